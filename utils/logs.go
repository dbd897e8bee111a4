package utils

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
)

const (
	StatusStarted   = "STARTED"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusSkipped   = "SKIPPED"
)

type LogEntry struct {
	Timestamp string `json:"time"`
	Level     string `json:"level"`
	Tool      string `json:"msg"`
	Program   string `json:"PROGRAM"`
	Sample    string `json:"SAMPLE"`
	Status    string `json:"STATUS"`
	Cmd       string `json:"CMD"`
	Run       string `json:"RUN"`
}

// ParseLogFile reads a JSON run log. A missing file yields no entries and
// lines that are not JSON log records are skipped.
func ParseLogFile(logFilePath string) []LogEntry {
	var entries []LogEntry
	file, err := os.Open(logFilePath)
	if err != nil {
		return entries
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// StageHasCompleted reports whether the latest record for program/sample is COMPLETED.
// A stage that was started again after completing counts as not completed.
func StageHasCompleted(entries []LogEntry, program string, sample string) bool {
	completed := false
	for _, e := range entries {
		if e.Program != program || e.Sample != sample {
			continue
		}
		switch e.Status {
		case StatusCompleted:
			completed = true
		case StatusStarted, StatusFailed:
			completed = false
		}
	}
	return completed
}

// RunLogger writes JSON records to <outDir>/<name> and text records to stderr.
type RunLogger struct {
	*slog.Logger
	RunID   string
	Path    string
	logFile *os.File
}

func NewRunLogger(outDir string, name string, stderr io.Writer) (*RunLogger, error) {
	if err := EnsureDir(outDir); err != nil {
		return nil, err
	}
	logFilePath := filepath.Join(outDir, name)
	logFile, err := os.OpenFile(logFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	handler := slogmulti.Fanout(
		slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(handler).With("RUN", runID)

	return &RunLogger{Logger: logger, RunID: runID, Path: logFilePath, logFile: logFile}, nil
}

func (l *RunLogger) Close() error {
	if l.logFile == nil {
		return nil
	}
	return l.logFile.Close()
}

// Stage logs a stage transition in the shape ParseLogFile reads back.
func (l *RunLogger) Stage(tool, program, sample, status string, args ...any) {
	attrs := append([]any{"PROGRAM", program, "SAMPLE", sample, "STATUS", status}, args...)
	if status == StatusFailed {
		l.Error(tool, attrs...)
		return
	}
	l.Info(tool, attrs...)
}

// Discard returns a logger that drops everything; used by tests and dry runs.
func Discard() *RunLogger {
	return &RunLogger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
