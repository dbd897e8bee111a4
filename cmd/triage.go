/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gmaffy/genome-release/alignment"
	"github.com/gmaffy/genome-release/release"
	"github.com/gmaffy/genome-release/triage"
	"github.com/gmaffy/genome-release/utils"
	"github.com/gmaffy/genome-release/variants"
)

// triageCmd represents the triage command
var triageCmd = &cobra.Command{
	Use:   "triage -A <directory of pairwise alignments> -f <directory of consensus sequences> [args]",
	Short: "Sorts samples into the white, inspect and corrected trees",
	Long: `Decides every sample's state from the corrected suspicious_mutations.csv in the output
directory and moves its consensus and pairwise alignment into
<outdir>/{white,inspect,corrected}/{fa,msa}. Samples are named by the header of their
consensus FASTA.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		aligned, aErr := cmd.Flags().GetString("aligned")
		if aErr != nil {
			log.Fatalf("Error getting aligned flag: %v", aErr)
		}
		faDir, fErr := cmd.Flags().GetString("fasta")
		if fErr != nil {
			log.Fatalf("Error getting fasta flag: %v", fErr)
		}

		path := filepath.Join(cfg.OutputDir, release.SuspiciousFile)
		muts, err := variants.ReadTable(path)
		if err != nil {
			log.Fatalf("Error reading %s: %v", path, err)
		}
		outcomes, err := triage.Replay(muts)
		if err != nil {
			log.Fatalf("Error reading corrections: %v", err)
		}
		suspicious := make(map[string]bool)
		for _, m := range muts {
			for _, entry := range m.Samples {
				suspicious[variants.SampleOf(entry)] = true
			}
		}

		files, err := consensusFiles(faDir, aligned)
		if err != nil {
			log.Fatalf("Error reading consensus sequences: %v", err)
		}
		ids := make([]string, len(files))
		for i, f := range files {
			ids[i] = f.ID
		}
		manifest, unknown := triage.Decide(ids, suspicious, outcomes)
		for _, id := range unknown {
			fmt.Printf("%s: carries suspicious mutations but has no consensus in %s, not triaged\n", id, faDir)
		}

		runLog, err := utils.NewRunLogger(cfg.OutputDir, release.RunLogName, os.Stderr)
		if err != nil {
			log.Fatalf("Error creating run log: %v", err)
		}
		defer runLog.Close()
		relocator := triage.NewRelocator(cfg.OutputDir, cfg.Threads, cfg.ReferenceName, runLog)
		if err := relocator.Apply(context.Background(), manifest, files); err != nil {
			runLog.Close()
			log.Fatalf("Relocation failed: %v", err)
		}

		for _, s := range []triage.State{triage.White, triage.Corrected, triage.NonCodingWhitelisted, triage.Inspect, triage.StillInspect} {
			fmt.Printf("%s: %d samples\n", s, len(manifest.Samples(s)))
		}
		for _, n := range relocator.Notes {
			fmt.Println(n)
		}
	},
}

// consensusFiles pairs every FASTA in faDir with its pairwise alignment in
// alignedDir, keyed by the FASTA header.
func consensusFiles(faDir, alignedDir string) ([]triage.SampleFiles, error) {
	var files []triage.SampleFiles
	for _, pattern := range []string{"*.fa", "*.fasta"} {
		paths, err := filepath.Glob(filepath.Join(faDir, pattern))
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			seqs, err := alignment.ReadFasta(p)
			if err != nil {
				return nil, err
			}
			if len(seqs) != 1 {
				return nil, fmt.Errorf("%s: expected one consensus record, found %d", p, len(seqs))
			}
			files = append(files, triage.SampleFiles{
				ID:      seqs[0].ID,
				Fasta:   p,
				Aligned: filepath.Join(alignedDir, alignment.PairFileName(seqs[0].ID)),
			})
		}
	}
	return files, nil
}

func init() {
	rootCmd.AddCommand(triageCmd)

	triageCmd.Flags().StringP("aligned", "A", "", "directory of pairwise alignments")
	triageCmd.Flags().StringP("fasta", "f", "", "directory of consensus sequences")
	triageCmd.MarkFlagRequired("aligned")
	triageCmd.MarkFlagRequired("fasta")
}
