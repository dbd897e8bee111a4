package release

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/gmaffy/genome-release/utils"
)

// Sample sheet and report columns read from collaborator files.
const (
	SheetIDColumn       = "SEARCH SampleID"
	SheetReadyColumn    = "New sequences ready for release"
	SheetVirusColumn    = "Virus name"
	ReleasedIDColumn    = "covv_subm_sample_id"
	CoverageSampleCol   = "SAMPLE"
	CoverageCol         = "COVERAGE"
	CoverageAvgDepthCol = "AVG_DEPTH"
)

// Sample is one sequence that made it through the batch filters.
type Sample struct {
	ID        string
	VirusName string
	Consensus string
	Bam       string
	Coverage  float64
	AvgDepth  float64
}

// Counts are the batch statistics reported in data_release.log.
type Counts struct {
	ToRelease        int
	Found            int
	MissingConsensus int
	MissingBams      int
	AlreadyReleased  int
	Prepared         int
	MissingCoverage  int
	LowCoverage      int
	Passed           int
}

type Batch struct {
	Samples []Sample
	Counts  Counts
}

// FindFiles walks root for files with extension ext whose directory ends in
// dataType/tech, e.g. .../consensus_sequences/illumina/*.fa. Results are sorted.
func FindFiles(root, dataType, tech, ext string) ([]string, error) {
	suffix := string(filepath.Separator) + filepath.Join(dataType, tech)
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ext {
			return nil
		}
		if strings.HasSuffix(filepath.Dir(path), suffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// filesByID keys paths by sample id, later paths replacing earlier ones.
func filesByID(paths []string) (map[string]string, []string) {
	byID := make(map[string]string)
	var order []string
	for _, p := range paths {
		id := utils.FileSampleID(p)
		if id == "" {
			continue
		}
		if _, ok := byID[id]; !ok {
			order = append(order, id)
		}
		byID[id] = p
	}
	return byID, order
}

func readFrame(path string, opts ...dataframe.LoadOption) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()

	opts = append([]dataframe.LoadOption{dataframe.DetectTypes(false), dataframe.NaNValues([]string{})}, opts...)
	df := dataframe.ReadCSV(f, opts...)
	if df.Err != nil {
		return df, fmt.Errorf("reading %s: %w", path, df.Err)
	}
	return df, nil
}

func requireColumns(df dataframe.DataFrame, path string, cols ...string) error {
	names := make(map[string]bool)
	for _, n := range df.Names() {
		names[n] = true
	}
	for _, c := range cols {
		if !names[c] {
			return fmt.Errorf("%s: missing column %q", path, c)
		}
	}
	return nil
}

// readySamples returns sample_id and virus_name of every sheet row marked ready,
// keeping the last row per id.
func readySamples(sheetPath string) (dataframe.DataFrame, error) {
	sheet, err := readFrame(sheetPath)
	if err != nil {
		return sheet, err
	}
	if err := requireColumns(sheet, sheetPath, SheetIDColumn, SheetReadyColumn, SheetVirusColumn); err != nil {
		return sheet, err
	}

	ids := sheet.Col(SheetIDColumn).Records()
	ready := sheet.Col(SheetReadyColumn).Records()
	virus := sheet.Col(SheetVirusColumn).Records()

	last := make(map[string]int)
	var order []string
	for i, raw := range ids {
		if raw == "" || raw == "#REF!" {
			continue
		}
		id := utils.SheetSampleID(raw)
		if _, ok := last[id]; !ok {
			order = append(order, id)
		}
		last[id] = i
	}

	records := [][]string{{"sample_id", "virus_name"}}
	for _, id := range order {
		i := last[id]
		if ready[i] == "Yes" {
			records = append(records, []string{id, virus[i]})
		}
	}
	return frame(records, nil), nil
}

// coverageFrame reads every coverage report, keeping the last report per sample.
func coverageFrame(paths []string) (dataframe.DataFrame, error) {
	last := make(map[string][2]string)
	var order []string
	for _, p := range paths {
		df, err := readFrame(p, dataframe.WithDelimiter('\t'))
		if err != nil {
			return df, err
		}
		if err := requireColumns(df, p, CoverageSampleCol, CoverageCol, CoverageAvgDepthCol); err != nil {
			return df, err
		}
		samples := df.Col(CoverageSampleCol).Records()
		cov := df.Col(CoverageCol).Records()
		depth := df.Col(CoverageAvgDepthCol).Records()
		for i, s := range samples {
			id := utils.CoverageSampleID(s)
			if id == "" {
				continue
			}
			if _, ok := last[id]; !ok {
				order = append(order, id)
			}
			last[id] = [2]string{cov[i], depth[i]}
		}
	}

	records := [][]string{{"sample_id", "coverage", "avg_depth"}}
	for _, id := range order {
		v := last[id]
		records = append(records, []string{id, v[0], v[1]})
	}
	return frame(records, map[string]series.Type{"coverage": series.Float, "avg_depth": series.Float}), nil
}

func releasedIDs(path string) (map[string]bool, error) {
	released := make(map[string]bool)
	if path == "" {
		return released, nil
	}
	df, err := readFrame(path)
	if err != nil {
		return nil, err
	}
	if err := requireColumns(df, path, ReleasedIDColumn); err != nil {
		return nil, err
	}
	for _, id := range df.Col(ReleasedIDColumn).Records() {
		if strings.Contains(id, "SEARCH") {
			released[utils.SheetSampleID(id)] = true
		}
	}
	return released, nil
}

// frame builds a DataFrame from string records; header-only input keeps its
// columns with zero rows.
func frame(records [][]string, types map[string]series.Type) dataframe.DataFrame {
	if len(records) == 1 {
		cols := make([]series.Series, len(records[0]))
		for i, name := range records[0] {
			t := series.String
			if tt, ok := types[name]; ok {
				t = tt
			}
			cols[i] = series.New([]string{}, t, name)
		}
		return dataframe.New(cols...)
	}
	opts := []dataframe.LoadOption{dataframe.DetectTypes(false), dataframe.NaNValues([]string{})}
	if types != nil {
		opts = append(opts, dataframe.WithTypes(types))
	}
	return dataframe.LoadRecords(records, opts...)
}

// LoadBatch assembles the samples to release: sheet rows marked ready, joined
// with consensus and BAM files found under the analysis folder, minus samples
// already released, joined with coverage and filtered on minimum coverage and
// depth.
func LoadBatch(cfg utils.Config) (Batch, error) {
	var b Batch

	ready, err := readySamples(cfg.SampleSheet)
	if err != nil {
		return b, err
	}
	b.Counts.ToRelease = ready.Nrow()
	if b.Counts.ToRelease == 0 {
		return b, nil
	}

	consPaths, err := FindFiles(cfg.AnalysisFolder, "consensus_sequences", "illumina", ".fa")
	if err != nil {
		return b, err
	}
	bamPaths, err := FindFiles(cfg.AnalysisFolder, "merged_aligned_bams", "illumina", ".bam")
	if err != nil {
		return b, err
	}
	covPaths, err := FindFiles(cfg.AnalysisFolder, "trimmed_bams", filepath.Join("illumina", "reports"), ".tsv")
	if err != nil {
		return b, err
	}

	consensus, consOrder := filesByID(consPaths)
	bams, _ := filesByID(bamPaths)
	analysis := [][]string{{"sample_id", "consensus", "bam"}}
	for _, id := range consOrder {
		if strings.Contains(id, "SEARCH") {
			analysis = append(analysis, []string{id, consensus[id], bams[id]})
		}
	}

	if len(analysis) == 1 {
		b.Counts.MissingConsensus = b.Counts.ToRelease
		return b, nil
	}
	joined := ready.InnerJoin(frame(analysis, nil), "sample_id")
	if joined.Err != nil {
		return b, fmt.Errorf("joining sample sheet with analysis files: %w", joined.Err)
	}
	b.Counts.Found = joined.Nrow()
	b.Counts.MissingConsensus = b.Counts.ToRelease - b.Counts.Found
	for _, bam := range joined.Col("bam").Records() {
		if bam == "" {
			b.Counts.MissingBams++
		}
	}
	if cfg.IncludeBams && b.Counts.MissingBams > 0 {
		joined = joined.Filter(dataframe.F{Colname: "bam", Comparator: series.Neq, Comparando: ""})
	}

	released, err := releasedIDs(cfg.ReleasedMetadata)
	if err != nil {
		return b, err
	}
	var keep []int
	for i, id := range joined.Col("sample_id").Records() {
		if released[id] {
			b.Counts.AlreadyReleased++
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == 0 {
		return b, nil
	}
	joined = joined.Subset(keep)
	b.Counts.Prepared = joined.Nrow()

	cov, err := coverageFrame(covPaths)
	if err != nil {
		return b, err
	}
	withCov := joined.LeftJoin(cov, "sample_id")
	if withCov.Err != nil {
		return b, fmt.Errorf("joining coverage reports: %w", withCov.Err)
	}
	coverage := withCov.Col("coverage")
	for i, missing := range coverage.IsNaN() {
		if missing {
			b.Counts.MissingCoverage++
		} else if coverage.Elem(i).Float() < cfg.MinCoverage {
			b.Counts.LowCoverage++
		}
	}

	passed := withCov.FilterAggregation(dataframe.And,
		dataframe.F{Colname: "coverage", Comparator: series.GreaterEq, Comparando: cfg.MinCoverage},
		dataframe.F{Colname: "avg_depth", Comparator: series.GreaterEq, Comparando: cfg.MinDepth},
	)
	if passed.Err != nil {
		return b, fmt.Errorf("applying QC filter: %w", passed.Err)
	}

	ids := passed.Col("sample_id").Records()
	names := passed.Col("virus_name").Records()
	cons := passed.Col("consensus").Records()
	bamCol := passed.Col("bam").Records()
	covs := passed.Col("coverage").Float()
	depths := passed.Col("avg_depth").Float()
	for i := range ids {
		b.Samples = append(b.Samples, Sample{
			ID:        ids[i],
			VirusName: names[i],
			Consensus: cons[i],
			Bam:       bamCol[i],
			Coverage:  covs[i],
			AvgDepth:  depths[i],
		})
	}
	b.Counts.Passed = len(b.Samples)
	return b, nil
}
