package release

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmaffy/genome-release/triage"
)

func TestWriteReleaseLogListsInspectTree(t *testing.T) {
	dir := t.TempDir()
	sum := &Summary{
		Batch:         Batch{Counts: Counts{Prepared: 4, Passed: 4}},
		SuspiciousIDs: map[string]bool{"b": true, "c": true, "d": true},
		Manifest: triage.Manifest{
			"a": triage.White,
			"b": triage.StillInspect,
			"c": triage.Inspect,
			"d": triage.NonCodingWhitelisted,
		},
		Notes: []string{"d: something odd"},
	}
	require.NoError(t, WriteReleaseLog(dir, sum, 95, false))

	raw, err := os.ReadFile(filepath.Join(dir, ReleaseLogName))
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "Prepared 4 samples for release\n")
	assert.Contains(t, text, "3 samples contain suspicious mutations\n")
	assert.Contains(t, text, "Samples requiring manual inspection:\n\tb\n")
	assert.Contains(t, text, "Suspicious samples without a correction outcome:\n\tc\n")
	assert.Contains(t, text, "Samples with non-coding suspicious mutations only (noncoding. files):\n\td\n")
	assert.Contains(t, text, "Notes:\n\td: something odd\n")
	assert.NotContains(t, text, "\ta\n")
}

func TestWriteReleaseLogDryRun(t *testing.T) {
	dir := t.TempDir()
	sum := &Summary{Batch: Batch{Counts: Counts{ToRelease: 2, Found: 1, MissingConsensus: 1}}}
	require.NoError(t, WriteReleaseLog(dir, sum, 95, true))

	raw, err := os.ReadFile(filepath.Join(dir, ReleaseLogName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "1 samples were ignored because they were missing consensus sequence files\n")
	assert.NotContains(t, string(raw), "suspicious")
}
