package variants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmaffy/genome-release/alignment"
	"github.com/gmaffy/genome-release/annotation"
)

func record(id, ref, seq string) alignment.Record {
	return alignment.Record{SampleID: id, RefID: "ref", Reference: ref, Sequence: seq}
}

func TestDetectDeletion(t *testing.T) {
	d := NewDetector(annotation.Table{{Name: "S", Start: 1, End: 8}})
	res := d.Detect(record("s1", "ACGTACGT", "ACG-ACGT"))

	require.Len(t, res.Deletions, 1)
	assert.Empty(t, res.Insertions)
	assert.Empty(t, res.Substitutions)

	del := res.Deletions[0]
	assert.Equal(t, Deletion, del.Type)
	assert.Equal(t, 4, del.Pos)
	assert.Equal(t, 1, del.IndelLen)
	assert.Equal(t, "T", del.IndelSeq)
	assert.Equal(t, "4:4", del.Coords)
	assert.Equal(t, "S", del.Gene)
	assert.Equal(t, 2, del.CodonNum)
	assert.True(t, del.IsFrameshift)
	assert.Equal(t, "ACG", del.PrevNts)
	assert.Equal(t, "ACGT", del.NextNts)
	assert.Equal(t, "s1", del.SampleID)
	assert.Equal(t, "S:DEL2/1", del.Name())
}

func TestDetectInsertion(t *testing.T) {
	d := NewDetector(nil)
	res := d.Detect(record("s1", "AC-GTACGT", "ACAGTACGT"))

	require.Len(t, res.Insertions, 1)
	assert.Empty(t, res.Deletions)
	ins := res.Insertions[0]
	assert.Equal(t, 3, ins.Pos)
	assert.Equal(t, "A", ins.IndelSeq)
	assert.Equal(t, "2:3", ins.Coords)
	assert.Equal(t, annotation.NonCodingRegion, ins.Gene)
	assert.Equal(t, "AC", ins.PrevNts)
	assert.Equal(t, "GTACGT", ins.NextNts)
	assert.Equal(t, "Non-coding region:INS3A", ins.Name())
}

func TestDetectIgnoresUnsequencedEnds(t *testing.T) {
	d := NewDetector(nil)
	res := d.Detect(record("s1", "ACGTACGTAC", "--GTACGT--"))
	assert.Equal(t, 0, res.Len())

	res = d.Detect(record("s1", "--ACGTACGT", "TTACGTACGT"))
	assert.Equal(t, 0, res.Len(), "overhang before the reference is not an insertion")
}

func TestDetectMinLength(t *testing.T) {
	d := NewDetector(nil)
	d.MinDelLen = 3
	res := d.Detect(record("s1", "ACGTACGTACGT", "A-GTA---CGTA"))
	require.Len(t, res.Deletions, 1)
	assert.Equal(t, 6, res.Deletions[0].Pos)
	assert.Equal(t, 3, res.Deletions[0].IndelLen)
	assert.False(t, res.Deletions[0].IsFrameshift)
}

func TestDetectSubstitutions(t *testing.T) {
	// gene covers ATG AAT TGG TAA
	genes := annotation.Table{{Name: "G", Start: 1, End: 12}}
	d := NewDetector(genes)

	res := d.Detect(record("s1", "ATGAATTGGTAA", "ATGTATTGATAA"))
	require.Len(t, res.Substitutions, 2)

	missense := res.Substitutions[0]
	assert.Equal(t, 4, missense.Pos)
	assert.Equal(t, 2, missense.CodonNum)
	assert.Equal(t, "AAT", missense.RefCodon)
	assert.Equal(t, "TAT", missense.AltCodon)
	assert.Equal(t, "N", missense.RefAA)
	assert.Equal(t, "Y", missense.AltAA)
	assert.Equal(t, Missense, missense.Effect)
	assert.Equal(t, "G:N2Y", missense.Name())

	nonsense := res.Substitutions[1]
	assert.Equal(t, 9, nonsense.Pos)
	assert.Equal(t, "TGA", nonsense.AltCodon)
	assert.Equal(t, annotation.Stop, nonsense.AltAA)
	assert.Equal(t, Nonsense, nonsense.Effect)
	assert.Equal(t, 1, nonsense.NtChanges())
}

func TestDetectSubstitutionOncePerCodon(t *testing.T) {
	d := NewDetector(annotation.Table{{Name: "G", Start: 1, End: 6}})
	res := d.Detect(record("s1", "ATGAAT", "ATGCCT"))
	require.Len(t, res.Substitutions, 1)
	assert.Equal(t, "CCT", res.Substitutions[0].AltCodon)
	assert.Equal(t, 2, res.Substitutions[0].NtChanges())
}

func TestDetectSynonymousAndUnreadableCodons(t *testing.T) {
	genes := annotation.Table{{Name: "G", Start: 1, End: 12}}
	d := NewDetector(genes)

	// CTT->CTC is synonymous
	res := d.Detect(record("s1", "CTTAAT", "CTCAAT"))
	assert.Empty(t, res.Substitutions)

	d.KeepSynonymous = true
	res = d.Detect(record("s1", "CTTAAT", "CTCAAT"))
	require.Len(t, res.Substitutions, 1)
	assert.Equal(t, Synonymous, res.Substitutions[0].Effect)

	// a gap or an ambiguous base inside the codon leaves no frame to translate
	res = d.Detect(record("s1", "ATGAATTGG", "ATGTA-TGG"))
	assert.Empty(t, res.Substitutions)
	require.Len(t, res.Deletions, 1)
	res = d.Detect(record("s1", "ATGAATTGG", "ATGTNTTGG"))
	assert.Empty(t, res.Substitutions)

	// outside every gene
	res = NewDetector(nil).Detect(record("s1", "ATGAAT", "ATGTAT"))
	assert.Empty(t, res.Substitutions)
}

func TestDetectAllKeepsStoreOrder(t *testing.T) {
	store := alignment.NewStore()
	store.Add(record("s2", "ACGTACGT", "ACG-ACGT"))
	store.Add(record("s1", "ACGTACGT", "ACG-ACGT"))

	res := NewDetector(nil).DetectAll(store)
	require.Len(t, res.Deletions, 2)
	assert.Equal(t, "s2", res.Deletions[0].SampleID)
	assert.Equal(t, "s1", res.Deletions[1].SampleID)
}

func TestDetectedPositionsMapToColumns(t *testing.T) {
	ref := "ATGAATTGGTAACCGTTAGC"
	seq := "CTGTA--GATAACC-TTAGC"
	d := NewDetector(annotation.Table{{Name: "G", Start: 1, End: 12}})
	res := d.Detect(record("s1", ref, seq))
	require.Len(t, res.Deletions, 2)
	require.Len(t, res.Substitutions, 1)

	for _, m := range append(res.Deletions, res.Substitutions...) {
		col, err := alignment.GappedIndex(ref, m.Pos)
		require.NoError(t, err)
		assert.Equal(t, m.Pos-1, col, m.Name())
		assert.NotEqual(t, ref[col], seq[col], m.Name())
	}
}
