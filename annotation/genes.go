package annotation

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-gota/gota/dataframe"
)

// NonCodingRegion is the gene name given to positions outside every annotated gene.
const NonCodingRegion = "Non-coding region"

// Gene is a coding region in 1-based, inclusive, ungapped reference coordinates.
// Frame is the number of bases between Start and the first base of codon 1.
type Gene struct {
	Name  string
	Start int
	End   int
	Frame int
}

func (g Gene) Contains(pos int) bool {
	return pos >= g.Start && pos <= g.End
}

// CodonStart returns the position of the first base of the codon holding pos,
// together with its 1-based codon number. ok is false when pos falls before the frame.
func (g Gene) CodonStart(pos int) (start int, codonNum int, ok bool) {
	offset := pos - g.Start - g.Frame
	if offset < 0 || !g.Contains(pos) {
		return 0, 0, false
	}
	start = g.Start + g.Frame + (offset/3)*3
	if start+2 > g.End {
		return 0, 0, false
	}
	return start, offset/3 + 1, true
}

type Table []Gene

// Lookup returns the first gene covering pos, in table order.
func (t Table) Lookup(pos int) (Gene, bool) {
	for _, g := range t {
		if g.Contains(pos) {
			return g, true
		}
	}
	return Gene{}, false
}

// GeneName is Lookup reduced to a name, NonCodingRegion when nothing covers pos.
func (t Table) GeneName(pos int) string {
	if g, ok := t.Lookup(pos); ok {
		return g.Name
	}
	return NonCodingRegion
}

// SARSCoV2 is the NC_045512.2 annotation. ORF1ab is split at the ribosomal slippage
// site so each part keeps a single reading frame; the overlap resolves to ORF1a.
func SARSCoV2() Table {
	return Table{
		{Name: "ORF1a", Start: 266, End: 13483},
		{Name: "ORF1b", Start: 13468, End: 21555},
		{Name: "S", Start: 21563, End: 25384},
		{Name: "ORF3a", Start: 25393, End: 26220},
		{Name: "E", Start: 26245, End: 26472},
		{Name: "M", Start: 26523, End: 27191},
		{Name: "ORF6", Start: 27202, End: 27387},
		{Name: "ORF7a", Start: 27394, End: 27759},
		{Name: "ORF7b", Start: 27756, End: 27887},
		{Name: "ORF8", Start: 27894, End: 28259},
		{Name: "N", Start: 28274, End: 29533},
		{Name: "ORF10", Start: 29558, End: 29674},
	}
}

// LoadTable reads a tab separated table with the columns gene, start, end and an
// optional frame column.
func LoadTable(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.WithDelimiter('\t'), dataframe.DetectTypes(false))
	if df.Err != nil {
		return nil, fmt.Errorf("reading gene table %s: %w", path, df.Err)
	}
	for _, col := range []string{"gene", "start", "end"} {
		if !hasColumn(df, col) {
			return nil, fmt.Errorf("gene table %s: missing column %q", path, col)
		}
	}

	names := df.Col("gene").Records()
	starts := df.Col("start").Records()
	ends := df.Col("end").Records()
	var frames []string
	if hasColumn(df, "frame") {
		frames = df.Col("frame").Records()
	}

	table := make(Table, 0, len(names))
	for i := range names {
		start, err := strconv.Atoi(starts[i])
		if err != nil {
			return nil, fmt.Errorf("gene table %s row %d: bad start %q", path, i+1, starts[i])
		}
		end, err := strconv.Atoi(ends[i])
		if err != nil {
			return nil, fmt.Errorf("gene table %s row %d: bad end %q", path, i+1, ends[i])
		}
		if end < start {
			return nil, fmt.Errorf("gene table %s row %d: end %d before start %d", path, i+1, end, start)
		}
		frame := 0
		if frames != nil && frames[i] != "" {
			if frame, err = strconv.Atoi(frames[i]); err != nil {
				return nil, fmt.Errorf("gene table %s row %d: bad frame %q", path, i+1, frames[i])
			}
		}
		table = append(table, Gene{Name: names[i], Start: start, End: end, Frame: frame})
	}
	return table, nil
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}
