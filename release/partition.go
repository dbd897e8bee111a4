package release

import (
	"path/filepath"
	"strings"

	"github.com/gmaffy/genome-release/alignment"
	"github.com/gmaffy/genome-release/consensus"
	"github.com/gmaffy/genome-release/triage"
	"github.com/gmaffy/genome-release/utils"
)

// AlignmentParts are the per-tree alignments written next to the batch MSA.
type AlignmentParts struct {
	White     string
	Inspect   string
	Corrected string
}

// PartitionAlignment splits the batch alignment at msaPath by triage state into
// <prefix>_white.fa and <prefix>_inspect.fa, keeping the MSA columns. Corrected
// samples go to <prefix>_corrected.fa from their corrected pairwise files in
// correctedDir, cut to the reference frame. Corrected samples without a file are
// left out.
func PartitionAlignment(msaPath, refID string, manifest triage.Manifest, correctedDir string) (AlignmentParts, error) {
	prefix := strings.TrimSuffix(msaPath, filepath.Ext(msaPath))
	parts := AlignmentParts{
		White:     prefix + "_white.fa",
		Inspect:   prefix + "_inspect.fa",
		Corrected: prefix + "_corrected.fa",
	}

	store, err := alignment.LoadMSA(msaPath, refID)
	if err != nil {
		return parts, err
	}
	if store.Len() == 0 {
		return parts, nil
	}
	first := store.Records()[0]
	ref := alignment.Sequence{ID: first.RefID, Seq: first.Reference}

	white := []alignment.Sequence{ref}
	inspect := []alignment.Sequence{ref}
	corrected := []alignment.Sequence{{ID: ref.ID, Seq: consensus.Unalign(ref.Seq)}}
	for _, rec := range store.Records() {
		row := alignment.Sequence{ID: rec.SampleID, Seq: rec.Sequence}
		switch manifest[rec.SampleID].Tree() {
		case "white":
			white = append(white, row)
		case "inspect":
			inspect = append(inspect, row)
		case "corrected":
			path := filepath.Join(correctedDir, alignment.PairFileName(rec.SampleID))
			if !utils.FileExists(path) {
				continue
			}
			pair, err := alignment.ReadPair(path, refID)
			if err != nil {
				return parts, err
			}
			corrected = append(corrected, alignment.Sequence{ID: pair.SampleID, Seq: alignment.ReferenceFrame(pair.Reference, pair.Sequence)})
		}
	}

	for path, rows := range map[string][]alignment.Sequence{parts.White: white, parts.Inspect: inspect, parts.Corrected: corrected} {
		if err := consensus.Write(path, rows...); err != nil {
			return parts, err
		}
	}
	return parts, nil
}
