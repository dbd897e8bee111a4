package consensus

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/gmaffy/genome-release/alignment"
)

// LineWidth is the sequence line length of written FASTA files.
const LineWidth = 60

// Write writes seqs to path, replacing it.
func Write(path string, seqs ...alignment.Sequence) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	w := fasta.NewWriter(bw, LineWidth)
	for _, s := range seqs {
		ls := linear.NewSeq(s.ID, alphabet.BytesToLetters([]byte(s.Seq)), alphabet.DNAredundant)
		if _, err := w.Write(ls); err != nil {
			f.Close()
			return fmt.Errorf("writing %s to %s: %w", s.ID, path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Rename rewrites the single record in src as dst under a new header. Consensus
// files come out of the pipeline named after the sample id; releases use the
// virus name.
func Rename(src string, dst string, name string) error {
	seqs, err := alignment.ReadFasta(src)
	if err != nil {
		return err
	}
	if len(seqs) != 1 {
		return fmt.Errorf("%s: expected one consensus record, found %d", src, len(seqs))
	}
	seqs[0].ID = name
	return Write(dst, seqs...)
}

// Unalign strips alignment gaps.
func Unalign(seq string) string {
	return strings.ReplaceAll(seq, string(alignment.Gap), "")
}

// SampleName is the third "/" field of a virus name, e.g. SEARCH-1234 for
// hCoV-19/USA/SEARCH-1234/2021. Headers with fewer fields are returned whole.
func SampleName(header string) string {
	fields := strings.Split(header, "/")
	if len(fields) < 3 {
		return header
	}
	return fields[2]
}

// SplitAlignments reads multiple alignments, drops the reference rows and
// writes every sample unaligned into outDir as <SampleName>.fasta, plus all of
// them into a single multi-FASTA at combined if it is not empty. A sample seen
// in more than one alignment keeps its last row.
func SplitAlignments(alignments []string, refID string, outDir string, combined string) (int, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return 0, err
	}
	var order []string
	bySample := make(map[string]alignment.Sequence)
	for _, path := range alignments {
		store, err := alignment.LoadMSA(path, refID)
		if err != nil {
			return 0, err
		}
		for _, rec := range store.Records() {
			if _, seen := bySample[rec.SampleID]; !seen {
				order = append(order, rec.SampleID)
			}
			bySample[rec.SampleID] = alignment.Sequence{ID: rec.SampleID, Seq: Unalign(rec.Sequence)}
		}
	}

	all := make([]alignment.Sequence, 0, len(order))
	for _, id := range order {
		s := bySample[id]
		if err := Write(filepath.Join(outDir, SampleName(id)+".fasta"), s); err != nil {
			return 0, err
		}
		all = append(all, s)
	}
	if combined != "" {
		if err := Write(combined, all...); err != nil {
			return 0, err
		}
	}
	return len(all), nil
}
