/*
Copyright © 2025 Godwin Mafireyi <mafireyi@gmail.com>
*/
package cmd

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gmaffy/genome-release/consensus"
)

// postInspectionCmd represents the postInspection command
var postInspectionCmd = &cobra.Command{
	Use:   "postInspection -i <alignment> [-i <alignment> ...] [args]",
	Short: "Splits reviewed alignments into per-sample consensus sequences",
	Long: `After manual review, reads the white and inspect alignments, drops the reference,
removes alignment gaps and writes one FASTA per sample, named by the third '/' field of
its header, plus a combined multi-FASTA for upload.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		alignments, iErr := cmd.Flags().GetStringSlice("alignment")
		if iErr != nil {
			log.Fatalf("Error getting alignment flag: %v", iErr)
		}
		combined, cErr := cmd.Flags().GetString("combined")
		if cErr != nil {
			log.Fatalf("Error getting combined flag: %v", cErr)
		}
		if combined != "" && !filepath.IsAbs(combined) {
			combined = filepath.Join(cfg.OutputDir, combined)
		}

		outDir := filepath.Join(cfg.OutputDir, "post_inspection")
		n, err := consensus.SplitAlignments(alignments, cfg.ReferenceName, outDir, combined)
		if err != nil {
			log.Fatalf("Error splitting alignments: %v", err)
		}
		fmt.Printf("%d consensus sequences written to %s\n", n, outDir)
	},
}

func init() {
	rootCmd.AddCommand(postInspectionCmd)

	postInspectionCmd.Flags().StringSliceP("alignment", "i", nil, "reviewed alignment FASTA, repeatable")
	postInspectionCmd.Flags().String("combined", "upload.fasta", "combined multi-FASTA, relative to the output directory")
	postInspectionCmd.MarkFlagRequired("alignment")
}
