/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmaffy/genome-release/release"
	"github.com/gmaffy/genome-release/utils"
)

// releaseCmd represents the release command
var releaseCmd = &cobra.Command{
	Use:   "release -c <config file> [args]",
	Short: "Runs the full release pipeline on a batch of samples",
	Long: `Assembles the batch from the sample sheet and analysis folder, transfers and aligns the
consensus sequences, detects and triages suspicious mutations and sorts every sample into
the white, inspect or corrected tree of the output directory. Stages that completed in an
earlier run with the same output directory are not repeated.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}

		flags := cmd.Flags()
		for flag, dst := range map[string]*string{
			"sample_sheet":    &cfg.SampleSheet,
			"analysis_folder": &cfg.AnalysisFolder,
			"released":        &cfg.ReleasedMetadata,
			"policy":          &cfg.Policy,
			"genes":           &cfg.Genes,
			"aligner":         &cfg.Aligner,
		} {
			if flags.Changed(flag) {
				*dst, _ = flags.GetString(flag)
			}
		}
		if flags.Changed("min_coverage") {
			cfg.MinCoverage, _ = flags.GetFloat64("min_coverage")
		}
		if flags.Changed("min_depth") {
			cfg.MinDepth, _ = flags.GetFloat64("min_depth")
		}
		if flags.Changed("include_bams") {
			cfg.IncludeBams, _ = flags.GetBool("include_bams")
		}
		if flags.Changed("dry_run") {
			cfg.DryRun, _ = flags.GetBool("dry_run")
		}

		if cfg.SampleSheet == "" || cfg.AnalysisFolder == "" {
			log.Fatal("Please provide a sample sheet and an analysis folder")
		}
		if cfg.Reference == "" && !cfg.DryRun {
			log.Fatal("Please provide a reference genome (-r)")
		}
		if cfg.IncludeBams && !cfg.DryRun {
			fmt.Printf("Checking dependencies ...\n\n")
			if err := utils.CheckDeps("samtools"); err != nil {
				log.Fatalf("Dependency check failed: %v", err)
			}
			fmt.Printf("Dependencies OK\n\n----------------------------------------------------------\n\n")
		}

		policy, err := loadPolicy(cfg.Policy)
		if err != nil {
			log.Fatalf("Error loading policy: %v", err)
		}
		genes, err := loadGenes(cfg.Genes)
		if err != nil {
			log.Fatalf("Error loading gene table: %v", err)
		}

		runLog, err := utils.NewRunLogger(cfg.OutputDir, release.RunLogName, os.Stderr)
		if err != nil {
			log.Fatalf("Error creating run log: %v", err)
		}
		defer runLog.Close()

		fmt.Printf("Running with the following parameters:\nSample sheet: %s\nAnalysis folder: %s\nOutput: %s\nMin coverage: %g\nMin depth: %g\n ...\n\n",
			cfg.SampleSheet, cfg.AnalysisFolder, cfg.OutputDir, cfg.MinCoverage, cfg.MinDepth)

		sum, err := release.NewPipeline(cfg, policy, genes, runLog).Run(context.Background())
		if err != nil {
			runLog.Close()
			log.Fatalf("Release failed: %v", err)
		}
		if sum.Manifest != nil {
			fmt.Printf("Release written to %s. Summary in %s\n", cfg.OutputDir, release.ReleaseLogName)
		}
	},
}

func init() {
	rootCmd.AddCommand(releaseCmd)

	releaseCmd.Flags().StringP("sample_sheet", "s", "", "sample sheet CSV")
	releaseCmd.Flags().StringP("analysis_folder", "a", "", "folder holding consensus sequences, BAMs and coverage reports")
	releaseCmd.Flags().String("released", "", "metadata CSV of samples released before")
	releaseCmd.Flags().StringP("policy", "p", "", "YAML or JSON policy of nonconcerning genes and mutations")
	releaseCmd.Flags().String("genes", "", "gene table TSV (default: built-in NC_045512.2 genes)")
	releaseCmd.Flags().String("aligner", "minimap2", "minimap2 or mafft")
	releaseCmd.Flags().Float64("min_coverage", 95, "minimum genome coverage (%)")
	releaseCmd.Flags().Float64("min_depth", 1000, "minimum average depth")
	releaseCmd.Flags().Bool("include_bams", false, "release BAM files and drop samples without one")
	releaseCmd.Flags().Bool("dry_run", false, "assemble the batch and write the release log only")
}
