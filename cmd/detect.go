/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gmaffy/genome-release/alignment"
	"github.com/gmaffy/genome-release/release"
	"github.com/gmaffy/genome-release/utils"
	"github.com/gmaffy/genome-release/variants"
)

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect -A <alignment file or directory> [args]",
	Short: "Detects insertions, deletions and substitutions in aligned consensus sequences",
	Long: `Reads a multiple alignment, or a directory of pairwise alignments, against the
reference and writes insertions.csv, deletions.csv and substitutions.csv with one row per
distinct mutation and the samples carrying it.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		aligned, aErr := cmd.Flags().GetString("aligned")
		if aErr != nil {
			log.Fatalf("Error getting aligned flag: %v", aErr)
		}
		genesFile, gErr := cmd.Flags().GetString("genes")
		if gErr != nil {
			log.Fatalf("Error getting genes flag: %v", gErr)
		}
		minIns, _ := cmd.Flags().GetInt("min_ins_len")
		minDel, _ := cmd.Flags().GetInt("min_del_len")
		keepSyn, _ := cmd.Flags().GetBool("keep_synonymous")

		info, err := os.Stat(aligned)
		if err != nil {
			log.Fatalf("Alignment %s is not a valid file or directory: %v", aligned, err)
		}
		var store *alignment.Store
		if info.IsDir() {
			store, err = alignment.LoadDir(aligned, cfg.ReferenceName)
		} else {
			store, err = alignment.LoadMSA(aligned, cfg.ReferenceName)
		}
		if err != nil {
			log.Fatalf("Error loading alignments: %v", err)
		}

		genes, err := loadGenes(genesFile)
		if err != nil {
			log.Fatalf("Error loading gene table: %v", err)
		}
		detector := variants.NewDetector(genes)
		detector.MinInsLen, detector.MinDelLen, detector.KeepSynonymous = minIns, minDel, keepSyn

		fmt.Printf("Detecting mutations in %d samples ...\n", store.Len())
		res := detector.DetectAll(store)
		if err := utils.EnsureDir(cfg.OutputDir); err != nil {
			log.Fatalf("Error creating output directory: %v", err)
		}
		for _, t := range []struct {
			file    string
			columns []string
			muts    []variants.Mutation
		}{
			{release.InsertionsFile, variants.InsertionColumns, res.Insertions},
			{release.DeletionsFile, variants.DeletionColumns, res.Deletions},
			{release.SubstitutionsFile, variants.SubstitutionColumns, res.Substitutions},
		} {
			agg := variants.Aggregate(t.muts)
			path := filepath.Join(cfg.OutputDir, t.file)
			if err := variants.WriteTable(path, t.columns, agg); err != nil {
				log.Fatalf("Error writing %s: %v", path, err)
			}
			fmt.Printf("%d distinct mutations written to %s\n", len(agg), path)
		}
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringP("aligned", "A", "", "multiple alignment FASTA or directory of pairwise alignments")
	detectCmd.Flags().String("genes", "", "gene table TSV (default: built-in NC_045512.2 genes)")
	detectCmd.Flags().Int("min_ins_len", 1, "minimum insertion length")
	detectCmd.Flags().Int("min_del_len", 1, "minimum deletion length")
	detectCmd.Flags().Bool("keep_synonymous", false, "report synonymous substitutions too")
	detectCmd.MarkFlagRequired("aligned")
}
