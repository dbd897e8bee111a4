package triage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/gmaffy/genome-release/alignment"
	"github.com/gmaffy/genome-release/annotation"
	"github.com/gmaffy/genome-release/utils"
	"github.com/gmaffy/genome-release/variants"
)

// ErrMalformedMutation stops a run: a suspicious mutation that cannot be placed
// on the alignment cannot be corrected or safely released.
var ErrMalformedMutation = errors.New("malformed mutation")

// ExcludedGenes are never auto-corrected.
var ExcludedGenes = []string{"ORF6", "ORF7a", "ORF7b", "ORF8", annotation.NonCodingRegion}

type Outcome int

const (
	AutoCorrected Outcome = iota + 1
	NeedsInspection
	NonCoding
)

func (o Outcome) String() string {
	switch o {
	case AutoCorrected:
		return "auto-corrected"
	case NeedsInspection:
		return "needs-inspection"
	case NonCoding:
		return "non-coding"
	}
	return "unknown"
}

// Outcomes holds every correction outcome per sample id.
type Outcomes map[string][]Outcome

func (o Outcomes) add(sampleID string, outcome Outcome) {
	o[sampleID] = append(o[sampleID], outcome)
}

// Eligible reports whether m can be fixed by touching a single base: a one base
// indel or a nonsense substitution from one changed base, outside ExcludedGenes.
func Eligible(m variants.Mutation) bool {
	if lo.Contains(ExcludedGenes, m.Gene) {
		return false
	}
	switch m.Type {
	case variants.Insertion, variants.Deletion:
		return m.IndelLen == 1
	case variants.Substitution:
		return m.AltAA == annotation.Stop && m.NtChanges() == 1
	}
	return false
}

func validType(t variants.Type) bool {
	switch t {
	case variants.Insertion, variants.Deletion, variants.Substitution:
		return true
	}
	return false
}

// position resolves the 1-based reference position to edit. Pos wins; otherwise
// the start of Coords is used, or its end for insertions, whose Coords name the
// bases on either side of the inserted ones.
func position(m variants.Mutation) (int, error) {
	if m.Pos > 0 {
		return m.Pos, nil
	}
	parts := strings.Split(m.Coords, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%s: no position or coordinates: %w", m.Name(), ErrMalformedMutation)
	}
	field := parts[0]
	if m.Type == variants.Insertion {
		field = parts[1]
	}
	pos, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil || pos < 1 {
		return 0, fmt.Errorf("%s: bad coordinates %q: %w", m.Name(), m.Coords, ErrMalformedMutation)
	}
	return pos, nil
}

// InDir locates pairwise alignment files written by alignment.SplitMSA.
func InDir(dir string) func(sampleID string) string {
	return func(sampleID string) string {
		return filepath.Join(dir, alignment.PairFileName(sampleID))
	}
}

// Corrector rewrites pairwise alignment files to remove single base problems.
// It must not run concurrently over the same files.
type Corrector struct {
	RefID  string
	Locate func(sampleID string) string
	Log    *utils.RunLogger
	Notes  []string

	// Checkpoint, when set, receives the marked mutations after every mutation
	// that corrected at least one file.
	Checkpoint func(muts []variants.AggregatedMutation) error
}

func NewCorrector(refID string, alignedDir string, log *utils.RunLogger) *Corrector {
	return &Corrector{RefID: refID, Locate: InDir(alignedDir), Log: log}
}

func (c *Corrector) note(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.Notes = append(c.Notes, msg)
	if c.Log != nil {
		c.Log.Warn(msg, "PROGRAM", "correct")
	}
}

// Correct walks the suspicious mutations in order, editing carrier files where
// the mutation is eligible and marking the corrected sample entries in muts.
// Entries that are already marked count as corrected without touching the file.
// Missing files are noted and left for inspection; an unknown type or an
// unresolvable position aborts with ErrMalformedMutation.
func (c *Corrector) Correct(muts []variants.AggregatedMutation) (Outcomes, error) {
	outcomes := make(Outcomes)
	for i := range muts {
		m := &muts[i]
		if !validType(m.Type) {
			return outcomes, fmt.Errorf("%s: unknown type %q: %w", m.Name(), m.Type, ErrMalformedMutation)
		}
		eligible := Eligible(m.Mutation)
		marked := false
		for _, entry := range append([]string(nil), m.Samples...) {
			sample := variants.SampleOf(entry)
			switch {
			case variants.IsCorrected(entry):
				outcomes.add(sample, AutoCorrected)
			case !eligible && m.Gene == annotation.NonCodingRegion:
				outcomes.add(sample, NonCoding)
			case !eligible:
				outcomes.add(sample, NeedsInspection)
			default:
				done, err := c.apply(m.Mutation, sample)
				if err != nil {
					return outcomes, fmt.Errorf("correcting %s in %s: %w", m.Name(), sample, err)
				}
				if !done {
					outcomes.add(sample, NeedsInspection)
					continue
				}
				m.MarkCorrected(sample)
				marked = true
				outcomes.add(sample, AutoCorrected)
			}
		}
		if marked && c.Checkpoint != nil {
			if err := c.Checkpoint(muts); err != nil {
				return outcomes, fmt.Errorf("saving corrections after %s: %w", m.Name(), err)
			}
		}
	}
	return outcomes, nil
}

// RestoreMarks copies the corrected markers of an earlier, possibly interrupted,
// Correct run onto the same mutations in muts. It returns the number of entries
// marked.
func RestoreMarks(muts, earlier []variants.AggregatedMutation) int {
	index := make(map[variants.Mutation]int, len(muts))
	for i, m := range muts {
		index[m.Key()] = i
	}
	n := 0
	for _, e := range earlier {
		i, ok := index[e.Key()]
		if !ok {
			continue
		}
		for _, entry := range e.Samples {
			if variants.IsCorrected(entry) && muts[i].MarkCorrected(variants.SampleOf(entry)) {
				n++
			}
		}
	}
	return n
}

// Replay rebuilds the outcomes of an earlier Correct run from its marked
// mutations without touching any file. Eligible entries left unmarked failed
// before and stay with inspection.
func Replay(muts []variants.AggregatedMutation) (Outcomes, error) {
	outcomes := make(Outcomes)
	for _, m := range muts {
		if !validType(m.Type) {
			return outcomes, fmt.Errorf("%s: unknown type %q: %w", m.Name(), m.Type, ErrMalformedMutation)
		}
		for _, entry := range m.Samples {
			sample := variants.SampleOf(entry)
			switch {
			case variants.IsCorrected(entry):
				outcomes.add(sample, AutoCorrected)
			case m.Gene == annotation.NonCodingRegion:
				outcomes.add(sample, NonCoding)
			default:
				outcomes.add(sample, NeedsInspection)
			}
		}
	}
	return outcomes, nil
}

// apply edits one sample file. It returns false, with a note, when the file
// cannot be used; errors are fatal.
func (c *Corrector) apply(m variants.Mutation, sample string) (bool, error) {
	pos, err := position(m)
	if err != nil {
		return false, err
	}
	path := c.Locate(sample)
	if !utils.FileExists(path) {
		c.note("%s: alignment %s not found, left for inspection", sample, path)
		return false, nil
	}
	rec, err := alignment.ReadPair(path, c.RefID)
	if err != nil {
		if errors.Is(err, alignment.ErrRecordNotFound) || errors.Is(err, alignment.ErrNotPairwise) {
			c.note("%s: %v, left for inspection", sample, err)
			return false, nil
		}
		return false, err
	}
	if rec.SampleID != sample {
		c.note("%s: %s holds %s, left for inspection", sample, path, rec.SampleID)
		return false, nil
	}

	ref, seq := []byte(rec.Reference), []byte(rec.Sequence)
	switch m.Type {
	case variants.Deletion, variants.Substitution:
		col, err := alignment.GappedIndex(rec.Reference, pos)
		if err != nil {
			return false, fmt.Errorf("%s: %w: %w", m.Name(), ErrMalformedMutation, err)
		}
		if seq[col] == alignment.Mask {
			return true, nil
		}
		seq[col] = alignment.Mask
	case variants.Insertion:
		col, ok, err := alignment.InsertionColumn(rec.Reference, pos)
		if err != nil {
			return false, fmt.Errorf("%s: %w: %w", m.Name(), ErrMalformedMutation, err)
		}
		if !ok {
			c.note("%s: no inserted column before position %d in %s, left for inspection", sample, pos, path)
			return false, nil
		}
		ref = append(ref[:col], ref[col+1:]...)
		seq = append(seq[:col], seq[col+1:]...)
	}

	rec.Reference, rec.Sequence = string(ref), string(seq)
	if err := alignment.WritePair(rec); err != nil {
		return false, err
	}
	if c.Log != nil {
		c.Log.Info("corrected", "PROGRAM", "correct", "SAMPLE", sample, "MUTATION", m.Name(), "FILE", path)
	}
	return true, nil
}

// SplitCorrected partitions suspicious mutations into rows whose carriers were
// all corrected and rows with carriers still needing a look. A mutation with
// both kinds of carrier appears once in each.
func SplitCorrected(muts []variants.AggregatedMutation) (corrected, inspect []variants.AggregatedMutation) {
	for _, m := range muts {
		done, pending := m.SplitCorrected()
		if done.NumSamples() > 0 {
			corrected = append(corrected, done)
		}
		if pending.NumSamples() > 0 {
			inspect = append(inspect, pending)
		}
	}
	return corrected, inspect
}
