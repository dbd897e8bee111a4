package triage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmaffy/genome-release/alignment"
	"github.com/gmaffy/genome-release/utils"
)

func touch(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRelocatorApply(t *testing.T) {
	src := t.TempDir()
	root := t.TempDir()

	files := []SampleFiles{
		{ID: "w", Fasta: touch(t, filepath.Join(src, "fa", "w.fa"), ">w\nACGT\n"), Bam: touch(t, filepath.Join(src, "bam", "w.bam"), "bam")},
		{ID: "n", Fasta: touch(t, filepath.Join(src, "fa", "n.fa"), ">n\nACGT\n")},
		{ID: "i", Fasta: filepath.Join(src, "fa", "i.fa")},
		{ID: "c", Fasta: touch(t, filepath.Join(src, "fa", "c.fa"), ">c\nACGT\n"),
			Aligned: writePair(t, src, "c", "ACGTACGTAC", "ACGNACGTAC")},
		{ID: "u", Fasta: touch(t, filepath.Join(src, "fa", "u.fa"), ">u\nACGT\n")},
	}
	manifest := Manifest{"w": White, "n": NonCodingWhitelisted, "i": StillInspect, "c": Corrected, "u": Unclassified}

	r := NewRelocator(root, 3, "ref", utils.Discard())
	require.NoError(t, r.Apply(context.Background(), manifest, files))

	assert.FileExists(t, filepath.Join(root, "white", "fa", "w.fa"))
	assert.FileExists(t, filepath.Join(root, "white", "bam", "w.bam"))
	assert.NoFileExists(t, files[0].Fasta)
	assert.FileExists(t, filepath.Join(root, "inspect", "fa", "noncoding.n.fa"))
	assert.FileExists(t, filepath.Join(root, "corrected", "msa", "c.fa"))
	assert.FileExists(t, files[4].Fasta, "unclassified samples stay put")
	require.Len(t, r.Notes, 1)
	assert.Contains(t, r.Notes[0], "i.fa")

	seqs, err := alignment.ReadFasta(filepath.Join(root, "corrected", "fa", "c.fa"))
	require.NoError(t, err)
	require.Len(t, seqs, 1)
	assert.Equal(t, "c", seqs[0].ID)
	assert.Equal(t, "ACGNACGTAC", seqs[0].Seq)

	// a second pass finds everything in place
	again := NewRelocator(root, 1, "ref", utils.Discard())
	require.NoError(t, again.Apply(context.Background(), manifest, files))
	assert.Len(t, again.Notes, 1)
	assert.FileExists(t, filepath.Join(root, "white", "fa", "w.fa"))
}

func TestRelocatorKeepsExistingDestination(t *testing.T) {
	src := t.TempDir()
	root := t.TempDir()
	r := NewRelocator(root, 1, "ref", utils.Discard())

	fa := touch(t, filepath.Join(src, "s.fa"), ">s\nNEW\n")
	dst := touch(t, r.Destination(White, "fa", fa), ">s\nOLD\n")

	require.NoError(t, r.Apply(context.Background(), Manifest{"s": White}, []SampleFiles{{ID: "s", Fasta: fa}}))
	raw, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, ">s\nOLD\n", string(raw))
	assert.Empty(t, r.Notes)
}
