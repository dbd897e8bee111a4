package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLog(t *testing.T) {
	logContent := `{"time":"2025-06-18T21:11:02.572267197+02:00","level":"INFO","msg":"RELEASE","PROGRAM":"INITIALISE","SAMPLE":"ALL","STATUS":"STARTED","CMD":"ALL"}
{"time":"2025-06-18T21:11:03.397122518+02:00","level":"INFO","msg":"RELEASE","PROGRAM":"TRANSFER","SAMPLE":"SEARCH1234","STATUS":"STARTED"}
{"time":"2025-06-18T21:11:04.124962114+02:00","level":"INFO","msg":"RELEASE","PROGRAM":"TRANSFER","SAMPLE":"SEARCH5678","STATUS":"STARTED"}
not a json line
{"time":"2025-06-18T21:20:17.308876904+02:00","level":"INFO","msg":"RELEASE","PROGRAM":"TRANSFER","SAMPLE":"SEARCH1234","STATUS":"COMPLETED"}
{"time":"2025-06-18T21:23:58.626151562+02:00","level":"INFO","msg":"RELEASE","PROGRAM":"INITIALISE","SAMPLE":"ALL","STATUS":"STARTED","CMD":"ALL"}
{"time":"2025-06-18T21:23:59.23049438+02:00","level":"INFO","msg":"RELEASE","PROGRAM":"ALIGN","SAMPLE":"ALL","STATUS":"COMPLETED"}
{"time":"2025-06-18T21:24:59.23049438+02:00","level":"INFO","msg":"RELEASE","PROGRAM":"ALIGN","SAMPLE":"ALL","STATUS":"STARTED"}`

	logFilePath := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, os.WriteFile(logFilePath, []byte(logContent), 0644))

	logEntries := ParseLogFile(logFilePath)
	require.Len(t, logEntries, 7)
	assert.Equal(t, "RELEASE", logEntries[0].Tool)
	assert.Equal(t, "ALL", logEntries[0].Cmd)

	assert.True(t, StageHasCompleted(logEntries, "TRANSFER", "SEARCH1234"))
	assert.False(t, StageHasCompleted(logEntries, "TRANSFER", "SEARCH5678"))
	assert.False(t, StageHasCompleted(logEntries, "ALIGN", "ALL"), "restarted stage is not complete")
}

func TestParseLogMissingFile(t *testing.T) {
	assert.Empty(t, ParseLogFile(filepath.Join(t.TempDir(), "nope.log")))
}

func TestRunLoggerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	var stderr bytes.Buffer
	logger, err := NewRunLogger(dir, "release.log", &stderr)
	require.NoError(t, err)

	logger.Stage("RELEASE", "DETECT", "ALL", StatusStarted)
	logger.Stage("RELEASE", "DETECT", "ALL", StatusCompleted)
	logger.Warn("RELEASE", "PROGRAM", "RELOCATE", "SAMPLE", "SEARCH1", "STATUS", "missing file")
	require.NoError(t, logger.Close())

	entries := ParseLogFile(filepath.Join(dir, "release.log"))
	require.Len(t, entries, 3)
	assert.Equal(t, logger.RunID, entries[0].Run)
	assert.True(t, StageHasCompleted(entries, "DETECT", "ALL"))
	assert.Contains(t, stderr.String(), "missing file")
	assert.NotContains(t, stderr.String(), "DETECT", "info records stay out of stderr")
}
