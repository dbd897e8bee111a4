package utils

import (
	"path/filepath"
	"strings"
)

const sampleIDPrefix = "SEARCH"

// FileSampleID derives the SEARCHxxxx id from an analysis file path. File names look
// like SEARCH-1234-LOC_L001.fa or <prefix>SEARCH-1234_..., both map to SEARCH1234.
func FileSampleID(path string) string {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, sampleIDPrefix) {
		if i := strings.Index(name, sampleIDPrefix); i >= 0 {
			name = name[i:]
		}
	}
	query := strings.Split(strings.Split(name, "_")[0], "-")
	if len(query) > 1 {
		return strings.Join(query[:2], "")
	}
	return searchWindow(path)
}

// SheetSampleID normalises an id from the sample sheet, e.g. SEARCH-1234-SAN -> SEARCH1234.
func SheetSampleID(id string) string {
	parts := strings.Split(id, "-")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "")
}

// CoverageSampleID normalises the SAMPLE column of a coverage report.
func CoverageSampleID(sample string) string {
	if !strings.HasPrefix(sample, sampleIDPrefix) {
		if i := strings.Index(sample, sampleIDPrefix); i >= 0 {
			sample = sample[i:]
		}
	}
	if !strings.Contains(sample, "/") {
		return SheetSampleID(strings.Split(sample, "_")[0])
	}
	return searchWindow(sample)
}

func searchWindow(s string) string {
	i := strings.Index(s, sampleIDPrefix)
	if i < 0 {
		return ""
	}
	end := i + 10
	if end > len(s) {
		end = len(s)
	}
	return s[i:end]
}
