package triage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gmaffy/genome-release/alignment"
	"github.com/gmaffy/genome-release/consensus"
	"github.com/gmaffy/genome-release/utils"
)

// NonCodingPrefix marks files of samples released despite non-coding changes.
const NonCodingPrefix = "noncoding."

// SampleFiles are the files that travel with a sample. Empty paths are skipped.
type SampleFiles struct {
	ID      string
	Fasta   string
	Bam     string
	Aligned string
}

// Relocator moves sample files into <Root>/{white,inspect,corrected}/{fa,bam,msa}.
type Relocator struct {
	Root    string
	Threads int
	RefID   string
	Log     *utils.RunLogger

	mu    sync.Mutex
	Notes []string
}

func NewRelocator(root string, threads int, refID string, log *utils.RunLogger) *Relocator {
	return &Relocator{Root: root, Threads: threads, RefID: refID, Log: log}
}

func (r *Relocator) note(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.mu.Lock()
	r.Notes = append(r.Notes, msg)
	r.mu.Unlock()
	if r.Log != nil {
		r.Log.Warn(msg, "PROGRAM", "relocate")
	}
}

// Dir returns the directory for kind ("fa", "bam" or "msa") under the tree of s.
func (r *Relocator) Dir(s State, kind string) string {
	return filepath.Join(r.Root, s.Tree(), kind)
}

// Destination is where path ends up for a sample in state s.
func (r *Relocator) Destination(s State, kind string, path string) string {
	name := filepath.Base(path)
	if s == NonCodingWhitelisted {
		name = NonCodingPrefix + name
	}
	return filepath.Join(r.Dir(s, kind), name)
}

// Apply moves every decided sample's files, Threads at a time. Samples left
// Unclassified or absent from the manifest are not touched. Files already at
// their destination are left alone and missing sources are noted, so Apply can
// be repeated after a partial run.
func (r *Relocator) Apply(ctx context.Context, manifest Manifest, files []SampleFiles) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Threads, 1))

	for _, sf := range files {
		state, ok := manifest[sf.ID]
		if !ok || state == Unclassified {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return r.relocate(sf, state)
		})
	}
	return g.Wait()
}

func (r *Relocator) relocate(sf SampleFiles, state State) error {
	for _, f := range []struct{ kind, path string }{{"fa", sf.Fasta}, {"bam", sf.Bam}, {"msa", sf.Aligned}} {
		if f.path == "" {
			continue
		}
		if err := r.move(sf.ID, f.path, r.Destination(state, f.kind, f.path)); err != nil {
			return err
		}
	}
	if state == Corrected && sf.Fasta != "" && sf.Aligned != "" {
		return r.writeCorrected(sf)
	}
	return nil
}

// writeCorrected replaces the moved consensus with the corrected sample row of
// its pairwise alignment.
func (r *Relocator) writeCorrected(sf SampleFiles) error {
	aligned := r.Destination(Corrected, "msa", sf.Aligned)
	if !utils.FileExists(aligned) {
		return nil
	}
	rec, err := alignment.ReadPair(aligned, r.RefID)
	if err != nil {
		return err
	}
	dst := r.Destination(Corrected, "fa", sf.Fasta)
	return consensus.Write(dst, alignment.Sequence{ID: rec.SampleID, Seq: consensus.Unalign(rec.Sequence)})
}

func (r *Relocator) move(sample, src, dst string) error {
	if utils.FileExists(dst) {
		return nil
	}
	if !utils.FileExists(src) {
		r.note("%s: %s not found, not moved to %s", sample, src, filepath.Dir(dst))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		if r.Log != nil {
			r.Log.Info("moved", "PROGRAM", "relocate", "SAMPLE", sample, "FROM", src, "TO", dst)
		}
		return nil
	}
	// rename fails across file systems
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("moving %s to %s: %w", src, dst, err)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}
