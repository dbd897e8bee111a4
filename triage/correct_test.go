package triage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmaffy/genome-release/alignment"
	"github.com/gmaffy/genome-release/annotation"
	"github.com/gmaffy/genome-release/utils"
	"github.com/gmaffy/genome-release/variants"
)

func writePair(t *testing.T, dir, id, ref, seq string) string {
	t.Helper()
	path := filepath.Join(dir, alignment.PairFileName(id))
	require.NoError(t, alignment.WritePair(alignment.Record{SampleID: id, RefID: "ref", Reference: ref, Sequence: seq, Path: path}))
	return path
}

func readPair(t *testing.T, path string) alignment.Record {
	t.Helper()
	rec, err := alignment.ReadPair(path, "ref")
	require.NoError(t, err)
	return rec
}

func newTestCorrector(dir string) *Corrector {
	return NewCorrector("ref", dir, utils.Discard())
}

func TestEligible(t *testing.T) {
	assert.True(t, Eligible(deletion("S", 4, 1)))
	assert.False(t, Eligible(deletion("S", 4, 2)))
	assert.False(t, Eligible(deletion("ORF8", 27900, 1)))
	assert.False(t, Eligible(deletion(annotation.NonCodingRegion, 10, 1)))
	assert.True(t, Eligible(nonsense("S", 21570, 3)))

	double := nonsense("S", 21569, 3)
	double.RefCodon = "TCG"
	assert.False(t, Eligible(double), "two changed bases are left for review")

	missense := nonsense("S", 21570, 3)
	missense.AltAA = "R"
	assert.False(t, Eligible(missense))
}

func TestCorrectDeletionIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writePair(t, dir, "s1", "ACGTACGTAC", "ACG-ACGTAC")

	muts := []variants.AggregatedMutation{aggregated(deletion("S", 4, 1), "s1")}
	c := newTestCorrector(dir)
	outcomes, err := c.Correct(muts)
	require.NoError(t, err)
	assert.Equal(t, Outcomes{"s1": {AutoCorrected}}, outcomes)
	assert.Equal(t, []string{"*s1"}, muts[0].Samples)
	assert.Equal(t, "ACGNACGTAC", readPair(t, path).Sequence)

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	// marked entries are not corrected again
	outcomes, err = c.Correct(muts)
	require.NoError(t, err)
	assert.Equal(t, Outcomes{"s1": {AutoCorrected}}, outcomes)
	assert.Equal(t, []string{"*s1"}, muts[0].Samples)

	// an unmarked entry over an already masked base is a no-op edit
	fresh := []variants.AggregatedMutation{aggregated(deletion("S", 4, 1), "s1")}
	_, err = c.Correct(fresh)
	require.NoError(t, err)
	assert.Equal(t, []string{"*s1"}, fresh[0].Samples)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Empty(t, c.Notes)
}

func TestCorrectInsertionRemovesColumn(t *testing.T) {
	dir := t.TempDir()
	path := writePair(t, dir, "s1", "AC-GTACGT", "ACAGTACGT")

	ins := variants.Mutation{Type: variants.Insertion, Gene: "S", Coords: "2:3", IndelLen: 1, IndelSeq: "A"}
	muts := []variants.AggregatedMutation{aggregated(ins, "s1")}
	outcomes, err := newTestCorrector(dir).Correct(muts)
	require.NoError(t, err)
	assert.Equal(t, Outcomes{"s1": {AutoCorrected}}, outcomes)

	rec := readPair(t, path)
	assert.Equal(t, "ACGTACGT", rec.Reference)
	assert.Equal(t, "ACGTACGT", rec.Sequence)

	c := newTestCorrector(dir)
	outcomes, err = c.Correct([]variants.AggregatedMutation{aggregated(ins, "s1")})
	require.NoError(t, err)
	assert.Equal(t, Outcomes{"s1": {NeedsInspection}}, outcomes)
	assert.Len(t, c.Notes, 1)
}

func TestCorrectResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	path := writePair(t, dir, "s1", "AC-GTACGT", "ACAGTACGT")
	ins := variants.Mutation{Type: variants.Insertion, Gene: "S", Coords: "2:3", IndelLen: 1, IndelSeq: "A"}
	orf8 := deletion("ORF8", 27900, 1)

	var saved []variants.AggregatedMutation
	c := newTestCorrector(dir)
	c.Checkpoint = func(muts []variants.AggregatedMutation) error {
		saved = saved[:0]
		for _, m := range muts {
			m.Samples = append([]string(nil), m.Samples...)
			saved = append(saved, m)
		}
		return nil
	}
	_, err := c.Correct([]variants.AggregatedMutation{aggregated(ins, "s1"), aggregated(orf8, "s2")})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, []string{"*s1"}, saved[0].Samples)

	// the run stopped before writing its tables; start again from unmarked rows
	fresh := []variants.AggregatedMutation{aggregated(ins, "s1"), aggregated(orf8, "s2")}
	assert.Equal(t, 1, RestoreMarks(fresh, saved))
	assert.Equal(t, 0, RestoreMarks(fresh, saved))

	again := newTestCorrector(dir)
	outcomes, err := again.Correct(fresh)
	require.NoError(t, err)
	assert.Equal(t, Outcomes{"s1": {AutoCorrected}, "s2": {NeedsInspection}}, outcomes)
	assert.Empty(t, again.Notes)
	assert.Equal(t, "ACGTACGT", readPair(t, path).Sequence)
}

func TestCorrectCheckpointError(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "s1", "ACGTACGTAC", "ACG-ACGTAC")
	c := newTestCorrector(dir)
	c.Checkpoint = func([]variants.AggregatedMutation) error { return os.ErrPermission }

	_, err := c.Correct([]variants.AggregatedMutation{aggregated(deletion("S", 4, 1), "s1")})
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestRestoreMarksIgnoresOtherMutations(t *testing.T) {
	muts := []variants.AggregatedMutation{aggregated(deletion("S", 4, 1), "s1", "s2")}
	earlier := []variants.AggregatedMutation{
		aggregated(deletion("S", 4, 1), "s2", "*s3"),
		aggregated(deletion("S", 7, 1), "*s1"),
	}
	assert.Equal(t, 0, RestoreMarks(muts, earlier))
	assert.Equal(t, []string{"s1", "s2"}, muts[0].Samples)
}

func TestCorrectNonsenseAfterInsertion(t *testing.T) {
	dir := t.TempDir()
	// the reference gap before the codon shifts the column to edit by one
	path := writePair(t, dir, "s1", "A-TGTGGTAA", "AATGTGATAA")

	muts := []variants.AggregatedMutation{aggregated(nonsense("S", 6, 2), "s1")}
	_, err := newTestCorrector(dir).Correct(muts)
	require.NoError(t, err)
	assert.Equal(t, "AATGTGNTAA", readPair(t, path).Sequence)
}

func TestCorrectRouting(t *testing.T) {
	dir := t.TempDir()
	orf8 := writePair(t, dir, "s1", "ACGTACGTAC", "ACG-ACGTAC")
	writePair(t, dir, "s2", "ACGTACGTAC", "ACGTACGTAC")

	muts := []variants.AggregatedMutation{
		aggregated(deletion("ORF8", 4, 1), "s1"),
		aggregated(deletion(annotation.NonCodingRegion, 29740, 5), "s2"),
		aggregated(deletion("S", 4, 1), "s3"),
	}
	c := newTestCorrector(dir)
	outcomes, err := c.Correct(muts)
	require.NoError(t, err)
	assert.Equal(t, Outcomes{
		"s1": {NeedsInspection},
		"s2": {NonCoding},
		"s3": {NeedsInspection},
	}, outcomes)
	assert.Equal(t, "ACG-ACGTAC", readPair(t, orf8).Sequence)
	assert.Equal(t, []string{"s1"}, muts[0].Samples)
	require.Len(t, c.Notes, 1)
	assert.Contains(t, c.Notes[0], "s3")
}

func TestCorrectMalformed(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "s1", "ACGTACGTAC", "ACG-ACGTAC")
	c := newTestCorrector(dir)

	_, err := c.Correct([]variants.AggregatedMutation{aggregated(deletion("S", 0, 1), "s1")})
	assert.ErrorIs(t, err, ErrMalformedMutation)

	unknown := deletion("S", 4, 1)
	unknown.Type = "mnp"
	_, err = c.Correct([]variants.AggregatedMutation{aggregated(unknown, "s1")})
	assert.ErrorIs(t, err, ErrMalformedMutation)

	_, err = c.Correct([]variants.AggregatedMutation{aggregated(deletion("S", 40, 1), "s1")})
	assert.ErrorIs(t, err, ErrMalformedMutation)
	assert.ErrorIs(t, err, alignment.ErrPositionOutOfRange)
}

func TestPosition(t *testing.T) {
	tests := []struct {
		name string
		m    variants.Mutation
		want int
	}{
		{"explicit", variants.Mutation{Type: variants.Deletion, Pos: 12, Coords: "1:2"}, 12},
		{"deletion coords", variants.Mutation{Type: variants.Deletion, Coords: "21765:21770"}, 21765},
		{"insertion coords", variants.Mutation{Type: variants.Insertion, Coords: "99:100"}, 100},
		{"substitution coords", variants.Mutation{Type: variants.Substitution, Coords: "7:7"}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := position(tt.m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, coords := range []string{"", "12", "a:b", "0:0"} {
		_, err := position(variants.Mutation{Type: variants.Deletion, Coords: coords})
		assert.ErrorIs(t, err, ErrMalformedMutation, coords)
	}
}

func TestSplitCorrected(t *testing.T) {
	muts := []variants.AggregatedMutation{
		aggregated(deletion("S", 4, 1), "*s1", "s2"),
		aggregated(deletion("N", 28300, 2), "s3"),
		aggregated(deletion("E", 26300, 1), "*s4"),
	}
	corrected, inspect := SplitCorrected(muts)
	require.Len(t, corrected, 2)
	require.Len(t, inspect, 2)
	assert.Equal(t, []string{"*s1"}, corrected[0].Samples)
	assert.Equal(t, []string{"*s4"}, corrected[1].Samples)
	assert.Equal(t, []string{"s2"}, inspect[0].Samples)
	assert.Equal(t, []string{"s3"}, inspect[1].Samples)
}

func TestReplayMatchesCorrect(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "s1", "ACGTACGTAC", "ACG-ACGTAC")
	muts := []variants.AggregatedMutation{
		aggregated(deletion("S", 4, 1), "s1", "s2"),
		aggregated(deletion(annotation.NonCodingRegion, 29740, 5), "s3"),
		aggregated(deletion("ORF8", 27900, 1), "s1"),
	}
	want, err := newTestCorrector(dir).Correct(muts)
	require.NoError(t, err)

	got, err := Replay(muts)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, Outcomes{"s1": {AutoCorrected, NeedsInspection}, "s2": {NeedsInspection}, "s3": {NonCoding}}, got)
}
