package utils

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

type Config struct {
	Reference        string
	ReferenceName    string
	SampleSheet      string
	AnalysisFolder   string
	ReleasedMetadata string
	OutputDir        string
	Policy           string
	Genes            string
	Aligner          string

	Threads     int
	MinCoverage float64
	MinDepth    float64
	IncludeBams bool
	DryRun      bool
}

// DefaultConfig holds the values used when neither the config file nor a flag sets them.
func DefaultConfig() Config {
	return Config{
		ReferenceName: "NC_045512.2",
		OutputDir:     "./",
		Aligner:       "minimap2",
		Threads:       1,
		MinCoverage:   95,
		MinDepth:      1000,
	}
}

func ReadConfig(configPath string) (Config, error) {
	configFile, err := os.Open(configPath)
	if err != nil {
		return Config{}, err
	}
	defer configFile.Close()
	cfg := DefaultConfig()

	scanner := bufio.NewScanner(configFile)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		var convErr error
		switch key {
		case "Reference":
			cfg.Reference = value
		case "ReferenceName":
			cfg.ReferenceName = value
		case "SampleSheet":
			cfg.SampleSheet = value
		case "AnalysisFolder":
			cfg.AnalysisFolder = value
		case "ReleasedMetadata":
			cfg.ReleasedMetadata = value
		case "OutputDir":
			cfg.OutputDir = value
		case "Policy":
			cfg.Policy = value
		case "Genes":
			cfg.Genes = value
		case "Aligner":
			cfg.Aligner = value
		case "threads":
			cfg.Threads, convErr = strconv.Atoi(value)
		case "MinCoverage":
			cfg.MinCoverage, convErr = strconv.ParseFloat(value, 64)
		case "MinDepth":
			cfg.MinDepth, convErr = strconv.ParseFloat(value, 64)
		case "IncludeBams":
			cfg.IncludeBams, convErr = strconv.ParseBool(value)
		case "DryRun":
			cfg.DryRun, convErr = strconv.ParseBool(value)
		}
		if convErr != nil {
			return cfg, fmt.Errorf("config %s line %d: bad value for %s: %w", configPath, lineNum, key, convErr)
		}
	}

	if err := scanner.Err(); err != nil {
		return cfg, err
	}

	return cfg, nil

}

func RunBashCmdVerbose(cmdStr string) error {
	cmd := exec.Command("bash", "-c", cmdStr)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		return err
	}
	return nil
}

// RunCmd runs name with args without a shell and returns its stderr in the error on failure.
func RunCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// CheckDeps makes sure the external tools a step needs are on PATH.
func CheckDeps(tools ...string) error {
	var missing []string
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing dependencies: %s", strings.Join(missing, ", "))
	}
	return nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// EnsureDir creates dir if needed and fails if the path exists as a file.
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0755)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
