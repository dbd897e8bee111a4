package variants

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// Column layouts of the mutation tables. Downstream reviewers diff these files
// between releases, so columns are only ever appended.
var (
	InsertionColumns = []string{"type", "mutation", "gene", "pos", "absolute_coords", "codon_num",
		"ins_len", "ins_seq", "is_frameshift", "prev_10nts", "next_10nts", "samples", "num_samples"}
	DeletionColumns = []string{"type", "mutation", "gene", "pos", "absolute_coords", "codon_num",
		"del_len", "del_seq", "is_frameshift", "prev_10nts", "next_10nts", "samples", "num_samples"}
	SubstitutionColumns = []string{"type", "mutation", "gene", "pos", "absolute_coords", "codon_num", "ref_codon", "alt_codon",
		"ref_aa", "alt_aa", "effect", "prev_10nts", "next_10nts", "samples", "num_samples"}
	CombinedColumns = []string{"type", "mutation", "gene", "pos", "absolute_coords", "codon_num",
		"indel_len", "indel_seq", "is_frameshift", "ref_codon", "alt_codon", "ref_aa", "alt_aa", "effect",
		"prev_10nts", "next_10nts", "samples", "num_samples"}
)

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func field(a AggregatedMutation, col string) string {
	switch col {
	case "type":
		return string(a.Type)
	case "mutation":
		return a.Name()
	case "gene":
		return a.Gene
	case "pos":
		return itoa(a.Pos)
	case "absolute_coords":
		return a.Coords
	case "codon_num":
		return itoa(a.CodonNum)
	case "ins_len", "del_len", "indel_len":
		return itoa(a.IndelLen)
	case "ins_seq", "del_seq", "indel_seq":
		return a.IndelSeq
	case "is_frameshift":
		if a.Type == Substitution {
			return ""
		}
		return strconv.FormatBool(a.IsFrameshift)
	case "ref_codon":
		return a.RefCodon
	case "alt_codon":
		return a.AltCodon
	case "ref_aa":
		return a.RefAA
	case "alt_aa":
		return a.AltAA
	case "effect":
		return string(a.Effect)
	case "prev_10nts":
		return a.PrevNts
	case "next_10nts":
		return a.NextNts
	case "samples":
		return a.SamplesField()
	case "num_samples":
		return strconv.Itoa(a.NumSamples())
	}
	return ""
}

func atoi(col, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("column %s: bad integer %q", col, v)
	}
	return n, nil
}

func setField(a *AggregatedMutation, col, v string) error {
	var err error
	switch col {
	case "type":
		a.Type = Type(v)
	case "gene":
		a.Gene = v
	case "pos":
		a.Pos, err = atoi(col, v)
	case "absolute_coords":
		a.Coords = v
	case "codon_num":
		a.CodonNum, err = atoi(col, v)
	case "ins_len", "del_len", "indel_len":
		a.IndelLen, err = atoi(col, v)
	case "ins_seq", "del_seq", "indel_seq":
		a.IndelSeq = v
	case "is_frameshift":
		if v != "" {
			a.IsFrameshift, err = strconv.ParseBool(v)
		}
	case "ref_codon":
		a.RefCodon = v
	case "alt_codon":
		a.AltCodon = v
	case "ref_aa":
		a.RefAA = v
	case "alt_aa":
		a.AltAA = v
	case "effect":
		a.Effect = Effect(v)
	case "prev_10nts":
		a.PrevNts = v
	case "next_10nts":
		a.NextNts = v
	case "samples":
		a.Samples = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				a.Samples = append(a.Samples, s)
			}
		}
	}
	return err
}

// WriteTable writes muts to path with the given column layout.
func WriteTable(path string, columns []string, muts []AggregatedMutation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if len(muts) == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(columns); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	}

	records := make([][]string, 0, len(muts)+1)
	records = append(records, columns)
	for _, m := range muts {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = field(m, col)
		}
		records = append(records, row)
	}
	df := dataframe.LoadRecords(records, dataframe.DetectTypes(false), dataframe.NaNValues([]string{}))
	if df.Err != nil {
		return fmt.Errorf("building table %s: %w", path, df.Err)
	}
	return df.WriteCSV(f)
}

// ReadTable loads any of the mutation table layouts. Missing or empty numeric
// cells are left as zero; it is up to the caller to decide whether that is fatal.
func ReadTable(path string) ([]AggregatedMutation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.DetectTypes(false), dataframe.NaNValues([]string{}))
	if df.Err != nil {
		if empty, hErr := headerOnly(path); hErr == nil && empty {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, df.Err)
	}

	names := df.Names()
	columns := make([][]string, len(names))
	for i, name := range names {
		columns[i] = df.Col(name).Records()
	}

	muts := make([]AggregatedMutation, df.Nrow())
	for row := range muts {
		for i, name := range names {
			if err := setField(&muts[row], name, columns[i][row]); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", path, row+1, err)
			}
		}
	}
	return muts, nil
}

func headerOnly(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, err
		}
		rows++
	}
	return rows <= 1, nil
}
