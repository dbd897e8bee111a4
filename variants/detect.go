package variants

import (
	"github.com/gmaffy/genome-release/alignment"
	"github.com/gmaffy/genome-release/annotation"
)

// Detector finds insertions, deletions and substitutions of aligned samples.
// Indels shorter than MinInsLen/MinDelLen are dropped; values below 1 count as 1.
type Detector struct {
	Genes          annotation.Table
	MinInsLen      int
	MinDelLen      int
	KeepSynonymous bool
}

func NewDetector(genes annotation.Table) Detector {
	return Detector{Genes: genes, MinInsLen: 1, MinDelLen: 1}
}

type Result struct {
	Insertions    []Mutation
	Deletions     []Mutation
	Substitutions []Mutation
}

func (r *Result) append(other Result) {
	r.Insertions = append(r.Insertions, other.Insertions...)
	r.Deletions = append(r.Deletions, other.Deletions...)
	r.Substitutions = append(r.Substitutions, other.Substitutions...)
}

func (r Result) Len() int {
	return len(r.Insertions) + len(r.Deletions) + len(r.Substitutions)
}

func (d Detector) Detect(rec alignment.Record) Result {
	a := newAligned(rec)
	return Result{
		Insertions:    d.insertions(a),
		Deletions:     d.deletions(a),
		Substitutions: d.substitutions(a),
	}
}

// DetectAll runs Detect over the store in load order.
func (d Detector) DetectAll(store *alignment.Store) Result {
	var all Result
	for _, rec := range store.Records() {
		all.append(d.Detect(rec))
	}
	return all
}

// aligned is a record cut down to the columns it actually uses, with lookups
// between columns and ungapped reference positions.
type aligned struct {
	sampleID string
	ref      string
	seq      string
	refPos   []int
	posCol   []int
	ungapped string
}

func newAligned(rec alignment.Record) aligned {
	ref, seq := alignment.Project(rec.Reference, rec.Sequence)
	a := aligned{
		sampleID: rec.SampleID,
		ref:      ref,
		seq:      seq,
		refPos:   make([]int, len(ref)),
		posCol:   []int{-1},
	}
	ungapped := make([]byte, 0, len(ref))
	for i := 0; i < len(ref); i++ {
		a.refPos[i] = len(ungapped)
		if ref[i] != alignment.Gap {
			ungapped = append(ungapped, ref[i])
			a.posCol = append(a.posCol, i)
		}
	}
	a.ungapped = string(ungapped)
	return a
}

// flanks returns the reference context before position start and after position end.
func (a aligned) flanks(start, end int) (string, string) {
	from := start - 1 - FlankLen
	if from < 0 {
		from = 0
	}
	prevEnd := start - 1
	if prevEnd > len(a.ungapped) {
		prevEnd = len(a.ungapped)
	}
	to := end + FlankLen
	if to > len(a.ungapped) {
		to = len(a.ungapped)
	}
	nextStart := end
	if nextStart > to {
		nextStart = to
	}
	return a.ungapped[from:prevEnd], a.ungapped[nextStart:to]
}

// gapRuns returns the [start, end) column ranges of maximal runs of gaps in s,
// leaving out runs that touch either end of the alignment.
func gapRuns(s string) [][2]int {
	var runs [][2]int
	for i := 0; i < len(s); {
		if s[i] != alignment.Gap {
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == alignment.Gap {
			j++
		}
		if i > 0 && j < len(s) {
			runs = append(runs, [2]int{i, j})
		}
		i = j
	}
	return runs
}

func (d Detector) codingPosition(m *Mutation) {
	g, ok := d.Genes.Lookup(m.Pos)
	if !ok {
		m.Gene = annotation.NonCodingRegion
		return
	}
	m.Gene = g.Name
	if _, num, ok := g.CodonStart(m.Pos); ok {
		m.CodonNum = num
	}
}

func minLen(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
