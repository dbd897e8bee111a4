package release

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/gmaffy/genome-release/consensus"
	"github.com/gmaffy/genome-release/triage"
	"github.com/gmaffy/genome-release/utils"
)

// Transfer copies each sample's consensus into <outDir>/fa, renamed to the virus
// name, and its mapped reads into <outDir>/bam when includeBams is set. Files
// already present are kept, so an interrupted transfer can be resumed.
func Transfer(ctx context.Context, samples []Sample, outDir string, includeBams bool, threads int, log *utils.RunLogger) ([]triage.SampleFiles, error) {
	faDir := filepath.Join(outDir, "fa")
	bamDir := filepath.Join(outDir, "bam")
	for _, dir := range []string{faDir, bamDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	files := Files(samples, outDir, includeBams)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(threads, 1))
	for i, s := range samples {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := transferConsensus(s, files[i].Fasta); err != nil {
				return err
			}
			if files[i].Bam != "" {
				return transferBam(s, files[i].Bam, log)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// Files are the transferred paths of samples, keyed by virus name.
func Files(samples []Sample, outDir string, includeBams bool) []triage.SampleFiles {
	files := make([]triage.SampleFiles, len(samples))
	for i, s := range samples {
		files[i] = triage.SampleFiles{ID: s.VirusName, Fasta: filepath.Join(outDir, "fa", s.ID+".fa")}
		if includeBams && s.Bam != "" {
			files[i].Bam = filepath.Join(outDir, "bam", s.ID+".bam")
		}
	}
	return files
}

func transferConsensus(s Sample, dst string) error {
	if utils.FileExists(dst) {
		return nil
	}
	if err := consensus.Rename(s.Consensus, dst, s.VirusName); err != nil {
		return fmt.Errorf("transferring consensus of %s: %w", s.ID, err)
	}
	return nil
}

// transferBam keeps mapped reads only.
func transferBam(s Sample, dst string, log *utils.RunLogger) error {
	if utils.FileExists(dst) {
		return nil
	}
	tmp := dst + ".tmp"
	log.Stage("samtools", "transfer-bam", s.ID, utils.StatusStarted, "CMD", fmt.Sprintf("samtools view -b -F 4 -o %s %s", tmp, s.Bam))
	if err := utils.RunCmd("samtools", "view", "-b", "-F", "4", "-o", tmp, s.Bam); err != nil {
		os.Remove(tmp)
		log.Stage("samtools", "transfer-bam", s.ID, utils.StatusFailed, "ERROR", err.Error())
		return fmt.Errorf("transferring BAM of %s: %w", s.ID, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return err
	}
	log.Stage("samtools", "transfer-bam", s.ID, utils.StatusCompleted)
	return nil
}
