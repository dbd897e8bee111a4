package variants

import (
	"strings"

	"github.com/samber/lo"
)

// CorrectedMarker prefixes a sample in a mutation's sample list once the
// mutation has been corrected in that sample's sequence.
const CorrectedMarker = "*"

// AggregatedMutation is one distinct mutation with every sample carrying it.
type AggregatedMutation struct {
	Mutation
	Samples []string
}

func (a AggregatedMutation) NumSamples() int {
	return len(a.Samples)
}

func (a AggregatedMutation) SamplesField() string {
	return strings.Join(a.Samples, ",")
}

// Aggregate groups mutations by Key in the order keys are first seen. Sample
// lists keep first-seen order without repeats.
func Aggregate(muts []Mutation) []AggregatedMutation {
	index := make(map[Mutation]int)
	var out []AggregatedMutation
	for _, m := range muts {
		key := m.Key()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, AggregatedMutation{Mutation: key})
		}
		out[i].Samples = append(out[i].Samples, m.SampleID)
	}
	for i := range out {
		out[i].Samples = lo.Uniq(out[i].Samples)
	}
	return out
}

// IsCorrected reports whether a sample entry carries the corrected marker.
func IsCorrected(entry string) bool {
	return strings.HasPrefix(entry, CorrectedMarker)
}

// SampleOf strips the corrected marker from a sample entry.
func SampleOf(entry string) string {
	return strings.TrimPrefix(entry, CorrectedMarker)
}

// MarkCorrected marks sampleID in the sample list. It is a no-op if the entry
// is already marked or the sample is not a carrier.
func (a *AggregatedMutation) MarkCorrected(sampleID string) bool {
	for i, entry := range a.Samples {
		if entry == sampleID {
			a.Samples[i] = CorrectedMarker + sampleID
			return true
		}
	}
	return false
}

// SplitCorrected partitions the carriers into corrected and uncorrected copies of
// the mutation. Either may come back with no samples.
func (a AggregatedMutation) SplitCorrected() (corrected AggregatedMutation, pending AggregatedMutation) {
	corrected = AggregatedMutation{Mutation: a.Mutation}
	pending = AggregatedMutation{Mutation: a.Mutation}
	for _, entry := range a.Samples {
		if IsCorrected(entry) {
			corrected.Samples = append(corrected.Samples, entry)
		} else {
			pending.Samples = append(pending.Samples, entry)
		}
	}
	return corrected, pending
}
