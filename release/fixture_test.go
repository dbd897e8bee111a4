package release

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gmaffy/genome-release/annotation"
	"github.com/gmaffy/genome-release/utils"
)

const fixtureRef = "ATGAAACCCGGGTTTAAACCCGGGATGCAT"

var fixtureGenes = annotation.Table{
	{Name: "S", Start: 1, End: 12},
	{Name: "ORF8", Start: 13, End: 24},
}

func virusName(n string) string {
	return "hCoV-19/USA/CA-SEARCH-" + n + "/2021"
}

func deleteAt(seq string, col int) string {
	return seq[:col] + "-" + seq[col+1:]
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// newFixture lays out a sample sheet, an analysis folder and a pre-built batch
// alignment:
//
//	1001 clean, 1002 one base deletion in S, 1003 one base deletion in ORF8,
//	1004 low coverage, 1005 not ready, 1006 already released.
func newFixture(t *testing.T) utils.Config {
	t.Helper()
	root := t.TempDir()
	analysis := filepath.Join(root, "analysis")

	sheet := []string{"SEARCH SampleID,Virus name,New sequences ready for release"}
	report := []string{"SAMPLE\tCOVERAGE\tAVG_DEPTH"}
	for _, n := range []string{"1001", "1002", "1003", "1004", "1005", "1006"} {
		ready := "Yes"
		if n == "1005" {
			ready = "No"
		}
		sheet = append(sheet, "SEARCH-"+n+"-SAN,"+virusName(n)+","+ready)
		coverage := "99.1"
		if n == "1004" {
			coverage = "50.0"
		}
		report = append(report, "SEARCH-"+n+"-SAN_L001\t"+coverage+"\t2500")
		writeFixture(t, filepath.Join(analysis, "2021.06.01", "consensus_sequences", "illumina", "SEARCH-"+n+"-SAN_L001.fa"),
			">Consensus_SEARCH-"+n+"\n"+fixtureRef+"\n")
	}
	writeFixture(t, filepath.Join(analysis, "2021.06.01", "trimmed_bams", "illumina", "reports", "summary.tsv"),
		strings.Join(report, "\n")+"\n")

	cfg := utils.DefaultConfig()
	cfg.SampleSheet = filepath.Join(root, "sheet.csv")
	cfg.AnalysisFolder = analysis
	cfg.ReleasedMetadata = filepath.Join(root, "metadata.csv")
	cfg.OutputDir = filepath.Join(root, "release1")
	cfg.ReferenceName = "ref"
	cfg.Threads = 2

	writeFixture(t, cfg.SampleSheet, strings.Join(sheet, "\n")+"\n")
	writeFixture(t, cfg.ReleasedMetadata, "covv_subm_sample_id,covv_virus_name\nSEARCH-1006,"+virusName("1006")+"\n")

	msa := ">ref\n" + fixtureRef + "\n" +
		">" + virusName("1001") + "\n" + fixtureRef + "\n" +
		">" + virusName("1002") + "\n" + deleteAt(fixtureRef, 4) + "\n" +
		">" + virusName("1003") + "\n" + deleteAt(fixtureRef, 16) + "\n"
	writeFixture(t, filepath.Join(cfg.OutputDir, "msa", "release1_aligned.fa"), msa)
	return cfg
}
