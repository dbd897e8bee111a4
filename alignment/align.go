package alignment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gmaffy/genome-release/utils"
)

// ConcatFasta writes the reference followed by every *.fa file in faDir to outFasta.
func ConcatFasta(reference string, faDir string, outFasta string) (int, error) {
	fastas, err := filepath.Glob(filepath.Join(faDir, "*.fa"))
	if err != nil {
		return 0, err
	}
	sort.Strings(fastas)

	outFile, err := os.Create(outFasta)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	for _, f := range append([]string{reference}, fastas...) {
		if err := appendFile(outFile, f); err != nil {
			return 0, err
		}
	}
	return len(fastas), nil
}

func appendFile(w io.Writer, path string) error {
	inFile, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input file %s: %w", path, err)
	}
	defer inFile.Close()

	if _, err = io.Copy(w, inFile); err != nil {
		return fmt.Errorf("failed to copy contents from %s: %w", path, err)
	}
	// files without a trailing newline would glue the next header onto their last line
	_, err = w.Write([]byte("\n"))
	return err
}

// AlignCommand builds the shell pipeline that aligns seqs against reference into out.
// gofasta drops insertions relative to the reference, mafft keeps them as
// reference gaps, so insertions are only reported for mafft alignments.
func AlignCommand(aligner string, reference string, seqs string, out string, threads int) (string, error) {
	switch aligner {
	case "minimap2":
		return fmt.Sprintf(`minimap2 -a -x asm20 --score-N=0 -t %d %s %s | gofasta sam toMultiAlign -r %s -t %d --pad > %s`,
			threads, reference, seqs, reference, threads, out), nil
	case "mafft":
		return fmt.Sprintf(`mafft --auto --thread %d %s > %s`, threads, seqs, out), nil
	default:
		return "", fmt.Errorf("unknown aligner %q (minimap2 or mafft)", aligner)
	}
}

// AlignerDeps lists the executables an aligner choice needs on PATH.
func AlignerDeps(aligner string) []string {
	if aligner == "mafft" {
		return []string{"mafft"}
	}
	return []string{"minimap2", "gofasta"}
}

// AlignConsensus aligns seqs unless out already exists, so an interrupted release
// can be re-run without paying for the alignment twice.
func AlignConsensus(aligner string, reference string, seqs string, out string, threads int) error {
	if utils.FileExists(out) {
		fmt.Printf("Alignment %s exists. skip\n", out)
		return nil
	}
	cmdStr, err := AlignCommand(aligner, reference, seqs, out, threads)
	if err != nil {
		return err
	}
	fmt.Println(cmdStr)
	if err := utils.RunBashCmdVerbose(cmdStr); err != nil {
		// a partial alignment would be skipped by the next run
		os.Remove(out)
		return fmt.Errorf("aligning %s: %w", seqs, err)
	}
	return nil
}
