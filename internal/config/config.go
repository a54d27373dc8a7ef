package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/metascan/internal/risk"
)

const (
	DefaultConfigPath = "metascan.config.yml"

	// MaxThreads bounds the extraction worker pool.
	MaxThreads = 64

	envTargets     = "METASCAN_TARGETS"
	envTargetsFile = "METASCAN_TARGETS_FILE"
	envRecursive   = "METASCAN_RECURSIVE"
	envThreads     = "METASCAN_THREADS"
	envOutputDir   = "METASCAN_OUTPUT_DIR"
	envFormats     = "METASCAN_FORMATS"
	envDetectors   = "METASCAN_DETECTORS"
	envDryRun      = "METASCAN_DRY_RUN"
	envSummaryFile = "METASCAN_SUMMARY_FILE"
	envDatabase    = "METASCAN_DATABASE"
)

// Loader merges configuration coming from files, environment variables, and CLI flags.
type Loader struct {
	ConfigPath string
}

// LoggerConfig controls diagnostic log output.
type LoggerConfig struct {
	Level      string
	JSONFormat bool
}

// RuntimeConfig contains the fully merged settings required by metascan sub-commands.
type RuntimeConfig struct {
	Targets      []string
	Recursive    bool
	Threads      int
	OutputDir    string
	Formats      []string
	Detectors    []string
	DryRun       bool
	SummaryFile  string
	DatabasePath string
	Thresholds   risk.Thresholds
	Logger       LoggerConfig
}

// Overrides captures values coming from env vars or CLI flags.
type Overrides struct {
	Targets       []string
	TargetsFile   string
	Recursive     *bool
	Threads       int
	ThreadsSet    bool
	OutputDir     string
	Formats       []string
	Detectors     []string
	DryRun        *bool
	SummaryFile   string
	DatabasePath  string
	ThresholdLow  *int
	ThresholdHigh *int
	LogLevel      string
	LogJSON       *bool
}

// DefaultRuntimeConfig returns the baseline configuration when no overrides are provided.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Threads:      4,
		OutputDir:    "scan-results",
		Formats:      []string{"json", "csv"},
		DatabasePath: "metascan.db",
		Thresholds:   risk.DefaultThresholds(),
		Logger:       LoggerConfig{Level: "info"},
	}
}

// Load resolves the final runtime configuration.
func (l Loader) Load(override Overrides) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	path := l.ConfigPath
	if path == "" {
		path = DefaultConfigPath
	}

	if fileExists(path) {
		fileOv, err := loadFromFile(path)
		if err != nil {
			return cfg, err
		}
		if err := cfg.apply(fileOv); err != nil {
			return cfg, err
		}
	}

	if err := cfg.apply(overridesFromEnv()); err != nil {
		return cfg, err
	}

	if err := cfg.apply(override); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate ensures the config contains the minimum required data for scan/init commands.
func (c RuntimeConfig) Validate() error {
	if len(c.Targets) == 0 {
		return errors.New("no targets configured; provide --targets, --targets-file, or set METASCAN_TARGETS")
	}

	if c.Threads < 1 || c.Threads > MaxThreads {
		return fmt.Errorf("threads must be between 1 and %d (got %d)", MaxThreads, c.Threads)
	}

	if len(c.Formats) == 0 {
		return errors.New("at least one output format must be specified")
	}

	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}

	return c.Thresholds.Validate()
}

func (c *RuntimeConfig) apply(src Overrides) error {
	if len(src.Targets) > 0 {
		c.Targets = cleanList(src.Targets)
	}

	if src.TargetsFile != "" {
		values, err := readTargetsFile(src.TargetsFile)
		if err != nil {
			return err
		}
		c.Targets = values
	}

	if src.Recursive != nil {
		c.Recursive = *src.Recursive
	}

	if src.ThreadsSet {
		c.Threads = src.Threads
	}

	if src.OutputDir != "" {
		c.OutputDir = src.OutputDir
	}

	if len(src.Formats) > 0 {
		c.Formats = cleanList(src.Formats)
	}

	if len(src.Detectors) > 0 {
		c.Detectors = cleanList(src.Detectors)
	}

	if src.DryRun != nil {
		c.DryRun = *src.DryRun
	}

	if src.SummaryFile != "" {
		c.SummaryFile = src.SummaryFile
	}

	if src.DatabasePath != "" {
		c.DatabasePath = src.DatabasePath
	}

	if src.ThresholdLow != nil {
		c.Thresholds.Low = *src.ThresholdLow
	}

	if src.ThresholdHigh != nil {
		c.Thresholds.High = *src.ThresholdHigh
	}

	if src.LogLevel != "" {
		c.Logger.Level = src.LogLevel
	}

	if src.LogJSON != nil {
		c.Logger.JSONFormat = *src.LogJSON
	}

	return nil
}

func loadFromFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, err
	}

	type rawThresholds struct {
		Low  *int `yaml:"low"`
		High *int `yaml:"high"`
	}

	type rawLogger struct {
		Level string `yaml:"level"`
		JSON  *bool  `yaml:"json"`
	}

	type rawConfig struct {
		Targets     targetList     `yaml:"targets"`
		TargetsFile string         `yaml:"targetsFile"`
		Recursive   *bool          `yaml:"recursive"`
		Threads     *int           `yaml:"threads"`
		OutputDir   string         `yaml:"outputDir"`
		Formats     []string       `yaml:"formats"`
		Detectors   []string       `yaml:"detectors"`
		DryRun      *bool          `yaml:"dryRun"`
		SummaryFile string         `yaml:"summaryFile"`
		Database    string         `yaml:"database"`
		Thresholds  *rawThresholds `yaml:"thresholds"`
		Logger      *rawLogger     `yaml:"logger"`
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Overrides{}, err
	}

	over := Overrides{
		Targets:      raw.Targets,
		TargetsFile:  raw.TargetsFile,
		Recursive:    raw.Recursive,
		OutputDir:    raw.OutputDir,
		Formats:      raw.Formats,
		Detectors:    raw.Detectors,
		DryRun:       raw.DryRun,
		SummaryFile:  raw.SummaryFile,
		DatabasePath: raw.Database,
	}

	if raw.Threads != nil {
		over.Threads = *raw.Threads
		over.ThreadsSet = true
	}

	if raw.Thresholds != nil {
		over.ThresholdLow = raw.Thresholds.Low
		over.ThresholdHigh = raw.Thresholds.High
	}

	if raw.Logger != nil {
		over.LogLevel = raw.Logger.Level
		over.LogJSON = raw.Logger.JSON
	}

	return over, nil
}

func overridesFromEnv() Overrides {
	ov := Overrides{}

	if value := os.Getenv(envTargets); value != "" {
		ov.Targets = ParseTargetsList(value)
	}

	if value := os.Getenv(envTargetsFile); value != "" {
		ov.TargetsFile = value
	}

	if value := os.Getenv(envRecursive); value != "" {
		parsed := parseBool(value)
		ov.Recursive = &parsed
	}

	if value := os.Getenv(envThreads); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			ov.Threads = parsed
			ov.ThreadsSet = true
		}
	}

	if value := os.Getenv(envOutputDir); value != "" {
		ov.OutputDir = value
	}

	if value := os.Getenv(envFormats); value != "" {
		ov.Formats = ParseFormats(value)
	}

	if value := os.Getenv(envDetectors); value != "" {
		ov.Detectors = ParseDetectors(value)
	}

	if value := os.Getenv(envDryRun); value != "" {
		parsed := parseBool(value)
		ov.DryRun = &parsed
	}

	if value := os.Getenv(envSummaryFile); value != "" {
		ov.SummaryFile = value
	}

	if value := os.Getenv(envDatabase); value != "" {
		ov.DatabasePath = value
	}

	return ov
}

func parseBool(value string) bool {
	return strings.EqualFold(value, "true") || value == "1"
}

// ParseTargetsList turns comma or newline separated input into individual targets.
func ParseTargetsList(input string) []string {
	return splitOnDelimiters(input, []rune{',', '\n', '\r'})
}

// ParseFormats splits comma separated format strings.
func ParseFormats(input string) []string {
	return splitOnDelimiters(input, []rune{',', '\n', '\r', ' '})
}

// ParseDetectors splits comma separated rule identifiers.
func ParseDetectors(input string) []string {
	return splitOnDelimiters(input, []rune{',', '\n', '\r', ' '})
}

func splitOnDelimiters(input string, delims []rune) []string {
	if input == "" {
		return nil
	}

	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	separator := func(r rune) bool {
		for _, d := range delims {
			if r == d {
				return true
			}
		}
		return false
	}

	parts := strings.FieldsFunc(trimmed, separator)
	return cleanList(parts)
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		candidate := strings.TrimSpace(v)
		if candidate != "" {
			out = append(out, candidate)
		}
	}
	return out
}

func readTargetsFile(path string) ([]string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var targets []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return targets, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// targetList enables YAML fields that can be specified as a scalar or sequence.
type targetList []string

func (t *targetList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var out []string
		for _, node := range value.Content {
			out = append(out, strings.TrimSpace(node.Value))
		}
		*t = cleanList(out)
	case yaml.ScalarNode:
		*t = ParseTargetsList(value.Value)
	default:
		return fmt.Errorf("unsupported YAML type for targets")
	}
	return nil
}
