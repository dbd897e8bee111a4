package release

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"gonum.org/v1/gonum/stat"

	"github.com/gmaffy/genome-release/variants"
)

// ReportName is the HTML report written into the output directory.
const ReportName = "release_report.html"

// QCStats summarises coverage or depth over the released samples.
type QCStats struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

func summarise(values []float64) QCStats {
	if len(values) == 0 {
		return QCStats{}
	}
	x := slices.Clone(values)
	sort.Float64s(x)
	mean, std := stat.MeanStdDev(x, nil)
	return QCStats{
		N:      len(x),
		Mean:   mean,
		StdDev: std,
		Min:    x[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, x, nil),
		Median: stat.Quantile(0.5, stat.Empirical, x, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, x, nil),
		Max:    x[len(x)-1],
	}
}

// QC returns coverage and depth statistics of the batch.
func QC(samples []Sample) (coverage QCStats, depth QCStats) {
	var cov, dp []float64
	for _, s := range samples {
		cov = append(cov, s.Coverage)
		dp = append(dp, s.AvgDepth)
	}
	return summarise(cov), summarise(dp)
}

// countByGene counts carrier samples per gene.
func countByGene(muts []variants.AggregatedMutation) map[string]int {
	counts := make(map[string]int)
	for _, m := range muts {
		counts[m.Gene] += m.NumSamples()
	}
	return counts
}

func mutationChart(sum *Summary) *charts.Bar {
	all := countByGene(append(append(slices.Clone(sum.Insertions), sum.Deletions...), sum.Substitutions...))
	suspicious := countByGene(sum.Suspicious)
	genes := slices.Sorted(maps.Keys(all))

	var allData, susData []opts.BarData
	for _, g := range genes {
		allData = append(allData, opts.BarData{Value: all[g]})
		susData = append(susData, opts.BarData{Value: suspicious[g]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Mutations per gene", Subtitle: "carrier samples"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Gene"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Samples"}),
	)
	bar.SetXAxis(genes).
		AddSeries("all", allData).
		AddSeries("suspicious", susData)
	return bar
}

func triageChart(sum *Summary) *charts.Pie {
	counts := sum.Manifest.Counts()
	var data []opts.PieData
	for _, s := range slices.Sorted(maps.Keys(counts)) {
		data = append(data, opts.PieData{Name: s.String(), Value: counts[s]})
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Triage", Subtitle: fmt.Sprintf("%d samples", len(sum.Manifest))}),
	)
	pie.AddSeries("state", data)
	return pie
}

func qcChart(sum *Summary) *charts.BoxPlot {
	cov, depth := QC(sum.Batch.Samples)
	box := func(s QCStats) []float64 { return []float64{s.Min, s.Q1, s.Median, s.Q3, s.Max} }

	bp := charts.NewBoxPlot()
	bp.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title: "Sequencing QC",
			Subtitle: fmt.Sprintf("coverage %.1f ± %.1f %%, depth %.0f ± %.0f (n=%d)",
				cov.Mean, cov.StdDev, depth.Mean, depth.StdDev, cov.N),
		}),
	)
	bp.SetXAxis([]string{"coverage (%)"}).AddSeries("coverage", []opts.BoxPlotData{{Value: box(cov)}})
	return bp
}

// WriteReport renders the release charts into path.
func WriteReport(path string, sum *Summary) error {
	page := components.NewPage()
	page.PageTitle = "Release report"
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(mutationChart(sum), qcChart(sum))
	if sum.Manifest != nil {
		page.AddCharts(triageChart(sum))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}
