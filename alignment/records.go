package alignment

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

const (
	Gap  = '-'
	Mask = 'N'
)

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrLengthMismatch     = errors.New("aligned sequences differ in length")
	ErrNotPairwise        = errors.New("alignment file is not pairwise")
	ErrPositionOutOfRange = errors.New("position outside the reference")
)

// Record is one sample aligned against the reference. Reference and Sequence
// always have the same length.
type Record struct {
	SampleID  string
	RefID     string
	Reference string
	Sequence  string
	Path      string
}

// Sequence is one FASTA record, upper-cased.
type Sequence struct {
	ID  string
	Seq string
}

func ReadFasta(path string) ([]Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := fasta.NewReader(bufio.NewReader(f), linear.NewSeq("", nil, alphabet.DNAredundant))
	sc := seqio.NewScanner(r)

	var recs []Sequence
	for sc.Next() {
		s := sc.Seq().(*linear.Seq)
		recs = append(recs, Sequence{ID: s.ID, Seq: strings.ToUpper(lettersToString(s.Seq))})
	}
	if err := sc.Error(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recs, nil
}

func lettersToString(l alphabet.Letters) string {
	b := make([]byte, len(l))
	for i, c := range l {
		b[i] = byte(c)
	}
	return string(b)
}

// findReference returns the index of the reference record. An empty refID
// selects the first record.
func findReference(recs []Sequence, refID string) (int, error) {
	if len(recs) == 0 {
		return -1, ErrRecordNotFound
	}
	if refID == "" {
		return 0, nil
	}
	for i, r := range recs {
		if r.ID == refID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("reference %s: %w", refID, ErrRecordNotFound)
}

// ReadPair parses a pairwise alignment file holding the reference and one sample.
func ReadPair(path string, refID string) (Record, error) {
	recs, err := ReadFasta(path)
	if err != nil {
		return Record{}, err
	}
	if len(recs) != 2 {
		return Record{}, fmt.Errorf("%s has %d records: %w", path, len(recs), ErrNotPairwise)
	}
	refIdx, err := findReference(recs, refID)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", path, err)
	}
	ref, sample := recs[refIdx], recs[1-refIdx]
	if len(ref.Seq) != len(sample.Seq) {
		return Record{}, fmt.Errorf("%s: %d vs %d: %w", path, len(ref.Seq), len(sample.Seq), ErrLengthMismatch)
	}
	return Record{SampleID: sample.ID, RefID: ref.ID, Reference: ref.Seq, Sequence: sample.Seq, Path: path}, nil
}

// WritePair overwrites rec.Path with a two line per record FASTA, reference first.
func WritePair(rec Record) error {
	if len(rec.Reference) != len(rec.Sequence) {
		return fmt.Errorf("%s: %w", rec.SampleID, ErrLengthMismatch)
	}
	tmp := rec.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, ">%s\n%s\n>%s\n%s\n", rec.RefID, rec.Reference, rec.SampleID, rec.Sequence)
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, rec.Path)
}

// Store indexes aligned records by sample id, keeping load order.
type Store struct {
	records []Record
	byID    map[string]int
}

func NewStore() *Store {
	return &Store{byID: make(map[string]int)}
}

// Add appends rec, replacing an earlier record with the same sample id in place.
func (s *Store) Add(rec Record) {
	if i, ok := s.byID[rec.SampleID]; ok {
		s.records[i] = rec
		return
	}
	s.byID[rec.SampleID] = len(s.records)
	s.records = append(s.records, rec)
}

func (s *Store) Get(sampleID string) (Record, bool) {
	i, ok := s.byID[sampleID]
	if !ok {
		return Record{}, false
	}
	return s.records[i], true
}

func (s *Store) Records() []Record {
	return s.records
}

func (s *Store) Len() int {
	return len(s.records)
}

// LoadDir reads every pairwise alignment (*.fa, *.fasta) in dir, sorted by file name.
func LoadDir(dir string, refID string) (*Store, error) {
	var paths []string
	for _, pattern := range []string{"*.fa", "*.fasta"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	store := NewStore()
	for _, p := range paths {
		rec, err := ReadPair(p, refID)
		if err != nil {
			return nil, err
		}
		store.Add(rec)
	}
	return store, nil
}

// LoadMSA reads a multiple alignment in which every non-reference row is a sample.
func LoadMSA(path string, refID string) (*Store, error) {
	recs, err := ReadFasta(path)
	if err != nil {
		return nil, err
	}
	refIdx, err := findReference(recs, refID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ref := recs[refIdx]

	store := NewStore()
	for i, r := range recs {
		if i == refIdx {
			continue
		}
		if len(r.Seq) != len(ref.Seq) {
			return nil, fmt.Errorf("%s: %s: %w", path, r.ID, ErrLengthMismatch)
		}
		store.Add(Record{SampleID: r.ID, RefID: ref.ID, Reference: ref.Seq, Sequence: r.Seq, Path: path})
	}
	return store, nil
}

// Project drops the columns where both rows are gaps, which is what is left of
// another sample's insertion once a multiple alignment is cut down to one pair.
func Project(ref, sample string) (string, string) {
	var rb, sb strings.Builder
	rb.Grow(len(ref))
	sb.Grow(len(sample))
	for i := 0; i < len(ref); i++ {
		if ref[i] == Gap && sample[i] == Gap {
			continue
		}
		rb.WriteByte(ref[i])
		sb.WriteByte(sample[i])
	}
	return rb.String(), sb.String()
}

// ReferenceFrame drops the columns where the reference has a gap, leaving a row
// as long as the ungapped reference. Inserted bases are lost.
func ReferenceFrame(ref, sample string) string {
	var sb strings.Builder
	sb.Grow(len(ref))
	for i := 0; i < len(ref); i++ {
		if ref[i] != Gap {
			sb.WriteByte(sample[i])
		}
	}
	return sb.String()
}

// PairFileName turns a sample id (often a virus name with slashes) into a file name.
func PairFileName(sampleID string) string {
	r := strings.NewReplacer("/", "_", " ", "_", "|", "_")
	return r.Replace(sampleID) + ".fa"
}

// SplitMSA writes one pairwise file per sample of the multiple alignment at
// msaPath into outDir. Existing files are left alone.
func SplitMSA(msaPath string, refID string, outDir string) (*Store, error) {
	msa, err := LoadMSA(msaPath, refID)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	store := NewStore()
	for _, rec := range msa.Records() {
		path := filepath.Join(outDir, PairFileName(rec.SampleID))
		if _, err := os.Stat(path); err == nil {
			existing, err := ReadPair(path, rec.RefID)
			if err != nil {
				return nil, err
			}
			store.Add(existing)
			continue
		}
		ref, seq := Project(rec.Reference, rec.Sequence)
		pair := Record{SampleID: rec.SampleID, RefID: rec.RefID, Reference: ref, Sequence: seq, Path: path}
		if err := WritePair(pair); err != nil {
			return nil, err
		}
		store.Add(pair)
	}
	return store, nil
}
