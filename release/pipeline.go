package release

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gmaffy/genome-release/alignment"
	"github.com/gmaffy/genome-release/annotation"
	"github.com/gmaffy/genome-release/triage"
	"github.com/gmaffy/genome-release/utils"
	"github.com/gmaffy/genome-release/variants"
)

// Output file names inside the release directory.
const (
	InsertionsFile          = "insertions.csv"
	DeletionsFile           = "deletions.csv"
	SubstitutionsFile       = "substitutions.csv"
	SuspiciousFile          = "suspicious_mutations.csv"
	SuspiciousInspectFile   = "suspicious_mutations_inspect.csv"
	SuspiciousCorrectedFile = "suspicious_mutations_corrected.csv"
	RunLogName              = "release.log"
)

// Stage names recorded in the run log.
const (
	StageBatch    = "batch"
	StageTransfer = "transfer"
	StageAlign    = "align"
	StageDetect   = "detect"
	StageCorrect  = "correct"
	StageTriage   = "triage"
	StageReport   = "report"

	// AllSamples is the SAMPLE of batch-wide stages.
	AllSamples = "ALL"
)

// Summary is everything a run produced, in memory.
type Summary struct {
	Batch         Batch
	Insertions    []variants.AggregatedMutation
	Deletions     []variants.AggregatedMutation
	Substitutions []variants.AggregatedMutation
	SuspiciousIDs map[string]bool
	Suspicious    []variants.AggregatedMutation
	Manifest      triage.Manifest
	Notes         []string
}

// Pipeline runs a release end to end.
type Pipeline struct {
	Cfg      utils.Config
	Policy   triage.Policy
	Detector variants.Detector
	Log      *utils.RunLogger
}

func NewPipeline(cfg utils.Config, policy triage.Policy, genes annotation.Table, log *utils.RunLogger) *Pipeline {
	return &Pipeline{Cfg: cfg, Policy: policy, Detector: variants.NewDetector(genes), Log: log}
}

// Paths derived from the output directory.
func (p *Pipeline) msaDir() string   { return filepath.Join(p.Cfg.OutputDir, "msa") }
func (p *Pipeline) pairsDir() string { return filepath.Join(p.msaDir(), "pairs") }
func (p *Pipeline) out(name string) string {
	return filepath.Join(p.Cfg.OutputDir, name)
}

// AlignedPath is the batch MSA, <OutputDir>/msa/<release name>_aligned.fa.
func (p *Pipeline) AlignedPath() string {
	name := filepath.Base(filepath.Clean(p.Cfg.OutputDir))
	return filepath.Join(p.msaDir(), name+"_aligned.fa")
}

// Run executes every stage. Stages recorded as completed in the run log of an
// earlier run are not repeated; their results are read back from disk. A dry
// run stops after assembling the batch.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	entries := utils.ParseLogFile(p.Log.Path)
	sum := &Summary{}

	p.Log.Stage("LoadBatch", StageBatch, AllSamples, utils.StatusStarted)
	batch, err := LoadBatch(p.Cfg)
	if err != nil {
		p.Log.Stage("LoadBatch", StageBatch, AllSamples, utils.StatusFailed, "ERROR", err.Error())
		return sum, err
	}
	sum.Batch = batch
	p.Log.Stage("LoadBatch", StageBatch, AllSamples, utils.StatusCompleted, "SAMPLES", len(batch.Samples))
	fmt.Printf("Preparing %d samples for release\n", batch.Counts.Prepared)

	if p.Cfg.DryRun || len(batch.Samples) == 0 {
		return sum, WriteReleaseLog(p.Cfg.OutputDir, sum, p.Cfg.MinCoverage, p.Cfg.IncludeBams)
	}

	// Files of a completed triage have left fa/ and bam/ already.
	relocated := utils.StageHasCompleted(entries, StageTriage, AllSamples)
	files := Files(batch.Samples, p.Cfg.OutputDir, p.Cfg.IncludeBams)
	if !relocated {
		p.Log.Stage("Transfer", StageTransfer, AllSamples, utils.StatusStarted)
		if files, err = Transfer(ctx, batch.Samples, p.Cfg.OutputDir, p.Cfg.IncludeBams, p.Cfg.Threads, p.Log); err != nil {
			p.Log.Stage("Transfer", StageTransfer, AllSamples, utils.StatusFailed, "ERROR", err.Error())
			return sum, err
		}
		p.Log.Stage("Transfer", StageTransfer, AllSamples, utils.StatusCompleted)
	}

	if err := p.align(); err != nil {
		return sum, err
	}
	if err := p.detect(entries, sum); err != nil {
		return sum, err
	}

	sum.SuspiciousIDs, sum.Suspicious = triage.Classify(sum.Insertions, sum.Deletions, sum.Substitutions, p.Policy)
	fmt.Printf("%d samples carry suspicious mutations\n", len(sum.SuspiciousIDs))

	outcomes, err := p.correct(entries, sum)
	if err != nil {
		return sum, err
	}

	ids := make([]string, len(batch.Samples))
	for i, s := range batch.Samples {
		ids[i] = s.VirusName
	}
	var unknown []string
	sum.Manifest, unknown = triage.Decide(ids, sum.SuspiciousIDs, outcomes)
	for _, id := range unknown {
		note := fmt.Sprintf("%s: carries suspicious mutations but is not in this batch, not triaged", id)
		sum.Notes = append(sum.Notes, note)
		p.Log.Warn(note, "PROGRAM", StageTriage)
	}
	for i := range files {
		files[i].Aligned = filepath.Join(p.pairsDir(), alignment.PairFileName(files[i].ID))
	}

	relocator := triage.NewRelocator(p.Cfg.OutputDir, p.Cfg.Threads, p.Cfg.ReferenceName, p.Log)
	if !relocated {
		p.Log.Stage("Relocator", StageTriage, AllSamples, utils.StatusStarted)
		if err := relocator.Apply(ctx, sum.Manifest, files); err != nil {
			p.Log.Stage("Relocator", StageTriage, AllSamples, utils.StatusFailed, "ERROR", err.Error())
			return sum, err
		}
		sum.Notes = append(sum.Notes, relocator.Notes...)
		p.Log.Stage("Relocator", StageTriage, AllSamples, utils.StatusCompleted)
	}
	if _, err := PartitionAlignment(p.AlignedPath(), p.Cfg.ReferenceName, sum.Manifest, relocator.Dir(triage.Corrected, "msa")); err != nil {
		return sum, err
	}

	if err := WriteReport(p.out(ReportName), sum); err != nil {
		p.Log.Stage("WriteReport", StageReport, AllSamples, utils.StatusFailed, "ERROR", err.Error())
		return sum, err
	}
	p.Log.Stage("WriteReport", StageReport, AllSamples, utils.StatusCompleted)

	return sum, WriteReleaseLog(p.Cfg.OutputDir, sum, p.Cfg.MinCoverage, p.Cfg.IncludeBams)
}

func (p *Pipeline) align() error {
	if err := utils.EnsureDir(p.msaDir()); err != nil {
		return err
	}
	aligned := p.AlignedPath()
	if utils.FileExists(aligned) {
		return nil
	}
	if err := utils.CheckDeps(alignment.AlignerDeps(p.Cfg.Aligner)...); err != nil {
		return err
	}

	seqs := filepath.Join(p.msaDir(), filepath.Base(filepath.Clean(p.Cfg.OutputDir))+".fa")
	p.Log.Stage(p.Cfg.Aligner, StageAlign, AllSamples, utils.StatusStarted)
	n, err := alignment.ConcatFasta(p.Cfg.Reference, p.out("fa"), seqs)
	if err == nil {
		fmt.Printf("Aligning %d consensus sequences\n", n)
		err = alignment.AlignConsensus(p.Cfg.Aligner, p.Cfg.Reference, seqs, aligned, p.Cfg.Threads)
	}
	if err != nil {
		p.Log.Stage(p.Cfg.Aligner, StageAlign, AllSamples, utils.StatusFailed, "ERROR", err.Error())
		return err
	}
	p.Log.Stage(p.Cfg.Aligner, StageAlign, AllSamples, utils.StatusCompleted)
	return nil
}

// detect fills the mutation tables of sum, reading them back when an earlier run
// completed detection.
func (p *Pipeline) detect(entries []utils.LogEntry, sum *Summary) error {
	tables := []struct {
		file    string
		columns []string
		muts    *[]variants.AggregatedMutation
	}{
		{InsertionsFile, variants.InsertionColumns, &sum.Insertions},
		{DeletionsFile, variants.DeletionColumns, &sum.Deletions},
		{SubstitutionsFile, variants.SubstitutionColumns, &sum.Substitutions},
	}

	if utils.StageHasCompleted(entries, StageDetect, AllSamples) {
		for _, t := range tables {
			muts, err := variants.ReadTable(p.out(t.file))
			if err != nil {
				return err
			}
			*t.muts = muts
		}
		fmt.Println("Mutation tables exist. skip")
		return nil
	}

	p.Log.Stage("Detector", StageDetect, AllSamples, utils.StatusStarted)
	store, err := alignment.LoadMSA(p.AlignedPath(), p.Cfg.ReferenceName)
	if err != nil {
		p.Log.Stage("Detector", StageDetect, AllSamples, utils.StatusFailed, "ERROR", err.Error())
		return err
	}
	res := p.Detector.DetectAll(store)
	sum.Insertions = variants.Aggregate(res.Insertions)
	sum.Deletions = variants.Aggregate(res.Deletions)
	sum.Substitutions = variants.Aggregate(res.Substitutions)
	for _, t := range tables {
		if err := variants.WriteTable(p.out(t.file), t.columns, *t.muts); err != nil {
			p.Log.Stage("Detector", StageDetect, AllSamples, utils.StatusFailed, "ERROR", err.Error())
			return err
		}
	}
	p.Log.Stage("Detector", StageDetect, AllSamples, utils.StatusCompleted,
		"INSERTIONS", len(sum.Insertions), "DELETIONS", len(sum.Deletions), "SUBSTITUTIONS", len(sum.Substitutions))
	return nil
}

// correct auto-corrects the suspicious mutations and writes the suspicious
// tables. After a completed correction stage the marked table is replayed
// instead, since corrections that drop a column cannot be detected twice.
func (p *Pipeline) correct(entries []utils.LogEntry, sum *Summary) (triage.Outcomes, error) {
	if utils.StageHasCompleted(entries, StageCorrect, AllSamples) && utils.FileExists(p.out(SuspiciousFile)) {
		muts, err := variants.ReadTable(p.out(SuspiciousFile))
		if err != nil {
			return nil, err
		}
		sum.Suspicious = muts
		return triage.Replay(muts)
	}

	p.Log.Stage("Corrector", StageCorrect, AllSamples, utils.StatusStarted)
	if _, err := alignment.SplitMSA(p.AlignedPath(), p.Cfg.ReferenceName, p.pairsDir()); err != nil {
		p.Log.Stage("Corrector", StageCorrect, AllSamples, utils.StatusFailed, "ERROR", err.Error())
		return nil, err
	}
	corrector := triage.NewCorrector(p.Cfg.ReferenceName, p.pairsDir(), p.Log)
	if utils.FileExists(p.out(SuspiciousFile)) {
		// an interrupted correction left its markers behind
		earlier, err := variants.ReadTable(p.out(SuspiciousFile))
		if err != nil {
			p.Log.Stage("Corrector", StageCorrect, AllSamples, utils.StatusFailed, "ERROR", err.Error())
			return nil, err
		}
		if n := triage.RestoreMarks(sum.Suspicious, earlier); n > 0 {
			fmt.Printf("%d corrections restored from %s\n", n, SuspiciousFile)
		}
	}
	corrector.Checkpoint = func(muts []variants.AggregatedMutation) error {
		return WriteSuspicious(p.Cfg.OutputDir, muts)
	}
	outcomes, err := corrector.Correct(sum.Suspicious)
	sum.Notes = append(sum.Notes, corrector.Notes...)
	if err != nil {
		p.Log.Stage("Corrector", StageCorrect, AllSamples, utils.StatusFailed, "ERROR", err.Error())
		return nil, err
	}
	if err := WriteSuspicious(p.Cfg.OutputDir, sum.Suspicious); err != nil {
		return nil, err
	}
	p.Log.Stage("Corrector", StageCorrect, AllSamples, utils.StatusCompleted)
	return outcomes, nil
}

// WriteSuspicious writes the suspicious mutations and their corrected and
// still-to-inspect partitions into outDir.
func WriteSuspicious(outDir string, muts []variants.AggregatedMutation) error {
	corrected, inspect := triage.SplitCorrected(muts)
	for name, rows := range map[string][]variants.AggregatedMutation{
		SuspiciousFile:          muts,
		SuspiciousInspectFile:   inspect,
		SuspiciousCorrectedFile: corrected,
	} {
		if err := variants.WriteTable(filepath.Join(outDir, name), variants.CombinedColumns, rows); err != nil {
			return err
		}
	}
	return nil
}
