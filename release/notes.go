package release

import (
	"bufio"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/gmaffy/genome-release/triage"
)

// ReleaseLogName is the plain-text summary reviewers read after a run.
const ReleaseLogName = "data_release.log"

// inspectSections list the samples that end up under inspect/, one heading per state.
var inspectSections = []struct {
	state   triage.State
	heading string
}{
	{triage.StillInspect, "Samples requiring manual inspection"},
	{triage.Inspect, "Suspicious samples without a correction outcome"},
	{triage.NonCodingWhitelisted, "Samples with non-coding suspicious mutations only (" + triage.NonCodingPrefix + " files)"},
}

// WriteReleaseLog writes the batch counts, triage results and every non-fatal
// note collected during the run to <outDir>/data_release.log.
func WriteReleaseLog(outDir string, sum *Summary, minCoverage float64, includeBams bool) error {
	f, err := os.Create(filepath.Join(outDir, ReleaseLogName))
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	c := sum.Batch.Counts
	fmt.Fprintf(w, "Prepared %d samples for release\n", c.Prepared)
	fmt.Fprintf(w, "%d samples were found to have coverage below %g%%\n", c.LowCoverage, minCoverage)
	fmt.Fprintf(w, "%d samples are missing coverage information\n", c.MissingCoverage)
	fmt.Fprintf(w, "%d samples were ignored because they were missing consensus sequence files\n", c.MissingConsensus)
	if includeBams {
		fmt.Fprintf(w, "%d samples were ignored because they were missing BAM sequence files\n", c.MissingBams)
	} else {
		fmt.Fprintf(w, "%d samples are missing BAM sequence files\n", c.MissingBams)
	}
	fmt.Fprintf(w, "%d samples had already been released\n", c.AlreadyReleased)
	fmt.Fprintf(w, "%d samples passed QC\n", c.Passed)

	if sum.Manifest != nil {
		fmt.Fprintf(w, "%d samples contain suspicious mutations\n", len(sum.SuspiciousIDs))
		counts := sum.Manifest.Counts()
		for _, s := range slices.Sorted(maps.Keys(counts)) {
			fmt.Fprintf(w, "%s: %d samples (%s)\n", s, counts[s], filepath.Join(outDir, s.Tree()))
		}
		for _, section := range inspectSections {
			ids := sum.Manifest.Samples(section.state)
			if len(ids) == 0 {
				continue
			}
			fmt.Fprintf(w, "%s:\n", section.heading)
			for _, id := range ids {
				fmt.Fprintf(w, "\t%s\n", id)
			}
		}
	}

	if len(sum.Notes) > 0 {
		fmt.Fprintf(w, "Notes:\n")
		for _, n := range sum.Notes {
			fmt.Fprintf(w, "\t%s\n", n)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
