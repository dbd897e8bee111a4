/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gmaffy/genome-release/release"
	"github.com/gmaffy/genome-release/triage"
	"github.com/gmaffy/genome-release/variants"
)

// correctCmd represents the correct command
var correctCmd = &cobra.Command{
	Use:   "correct -A <directory of pairwise alignments> [args]",
	Short: "Masks or removes single base suspicious mutations in pairwise alignments",
	Long: `Reads suspicious_mutations.csv from the output directory and edits the pairwise
alignment of every carrier whose mutation is a one base indel or a one base nonsense change
outside ORF6, ORF7a, ORF7b, ORF8 and non-coding regions. Corrected carriers are marked with
'*' and the table is split into suspicious_mutations_corrected.csv and
suspicious_mutations_inspect.csv.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		aligned, aErr := cmd.Flags().GetString("aligned")
		if aErr != nil {
			log.Fatalf("Error getting aligned flag: %v", aErr)
		}

		path := filepath.Join(cfg.OutputDir, release.SuspiciousFile)
		muts, err := variants.ReadTable(path)
		if err != nil {
			log.Fatalf("Error reading %s: %v", path, err)
		}

		corrector := triage.NewCorrector(cfg.ReferenceName, aligned, nil)
		corrector.Checkpoint = func(muts []variants.AggregatedMutation) error {
			return release.WriteSuspicious(cfg.OutputDir, muts)
		}
		outcomes, err := corrector.Correct(muts)
		if err != nil {
			log.Fatalf("Correction failed: %v", err)
		}
		if err := release.WriteSuspicious(cfg.OutputDir, muts); err != nil {
			log.Fatalf("Error writing suspicious tables: %v", err)
		}

		corrected := 0
		for _, o := range outcomes {
			for _, x := range o {
				if x == triage.AutoCorrected {
					corrected++
				}
			}
		}
		fmt.Printf("%d corrections across %d samples\n", corrected, len(outcomes))
		for _, n := range corrector.Notes {
			fmt.Println(n)
		}
	},
}

func init() {
	rootCmd.AddCommand(correctCmd)

	correctCmd.Flags().StringP("aligned", "A", "", "directory of pairwise alignments")
	correctCmd.MarkFlagRequired("aligned")
}
