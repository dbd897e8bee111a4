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

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify -o <directory with mutation tables> -p <policy> [args]",
	Short: "Flags mutations outside the policy as suspicious",
	Long: `Reads insertions.csv, deletions.csv and substitutions.csv from the output directory and
writes every mutation not covered by the policy's nonconcerning genes or mutations to
suspicious_mutations.csv.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		policyFile, pErr := cmd.Flags().GetString("policy")
		if pErr != nil {
			log.Fatalf("Error getting policy flag: %v", pErr)
		}
		if policyFile == "" {
			policyFile = cfg.Policy
		}
		policy, err := loadPolicy(policyFile)
		if err != nil {
			log.Fatalf("Error loading policy: %v", err)
		}

		var tables [3][]variants.AggregatedMutation
		for i, name := range []string{release.InsertionsFile, release.DeletionsFile, release.SubstitutionsFile} {
			muts, err := variants.ReadTable(filepath.Join(cfg.OutputDir, name))
			if err != nil {
				log.Fatalf("Error reading %s: %v", name, err)
			}
			tables[i] = muts
		}

		ids, suspicious := triage.Classify(tables[0], tables[1], tables[2], policy)
		path := filepath.Join(cfg.OutputDir, release.SuspiciousFile)
		if err := variants.WriteTable(path, variants.CombinedColumns, suspicious); err != nil {
			log.Fatalf("Error writing %s: %v", path, err)
		}
		fmt.Printf("%d suspicious mutations in %d samples written to %s\n", len(suspicious), len(ids), path)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringP("policy", "p", "", "YAML or JSON policy of nonconcerning genes and mutations")
}
