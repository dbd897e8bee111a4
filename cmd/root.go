/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmaffy/genome-release/annotation"
	"github.com/gmaffy/genome-release/triage"
	"github.com/gmaffy/genome-release/utils"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "genome-release",
	Short: "Prepares SARS-CoV-2 consensus sequences for public release",
	Long: `Prepares a batch of SARS-CoV-2 consensus sequences for release:
1.	Batch assembly: sample sheet, analysis files, coverage QC
2.	Alignment: (minimap2 + gofasta or mafft)
3.	Mutation detection: insertions, deletions, substitutions
4.	Suspicious mutation triage and single base auto-correction
5.	Post-inspection splitting of reviewed alignments
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cfgFile string
var refFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file ")
	rootCmd.PersistentFlags().StringVarP(&refFile, "reference", "r", "", "path to reference genome fasta file ")
	rootCmd.PersistentFlags().String("ref_name", "", "reference record name in alignments (default NC_045512.2)")
	rootCmd.PersistentFlags().StringP("outdir", "o", "", "output directory")
	rootCmd.PersistentFlags().IntP("threads", "t", 0, "number of threads")
}

// loadConfig reads the config file when one is given and applies the flags
// that were set on the command line.
func loadConfig(cmd *cobra.Command) (utils.Config, error) {
	cfg := utils.DefaultConfig()
	if cfgFile != "" {
		c, err := utils.ReadConfig(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
		cfg = c
	}
	if refFile != "" {
		cfg.Reference = refFile
	}

	flags := cmd.Flags()
	if flags.Changed("ref_name") {
		cfg.ReferenceName, _ = flags.GetString("ref_name")
	}
	if flags.Changed("outdir") {
		cfg.OutputDir, _ = flags.GetString("outdir")
	}
	if flags.Changed("threads") {
		cfg.Threads, _ = flags.GetInt("threads")
	}
	return cfg, nil
}

func loadPolicy(path string) (triage.Policy, error) {
	if path == "" {
		return triage.Policy{}, nil
	}
	return triage.LoadPolicy(path)
}

func loadGenes(path string) (annotation.Table, error) {
	if path == "" {
		return annotation.SARSCoV2(), nil
	}
	return annotation.LoadTable(path)
}
