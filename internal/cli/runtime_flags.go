package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/metascan/internal/config"
)

// runtimeFlagSet tracks shared scan/init flags before they are converted into config overrides.
type runtimeFlagSet struct {
	targets       string
	targetsFile   string
	recursive     bool
	threads       int
	outputDir     string
	formats       string
	detectors     string
	dryRun        bool
	summaryFile   string
	database      string
	thresholdLow  int
	thresholdHigh int
	logLevel      string
	logJSON       bool
}

func bindRuntimeFlags(cmd *cobra.Command, flags *runtimeFlagSet) {
	cmd.Flags().StringVar(&flags.targets, "targets", "", "Comma-separated list of files or directories (overrides config)")
	cmd.Flags().StringVar(&flags.targetsFile, "targets-file", "", "Path to a file with one target per line")
	cmd.Flags().BoolVar(&flags.recursive, "recursive", false, "Descend into subdirectories of directory targets")
	cmd.Flags().IntVar(&flags.threads, "threads", 0, fmt.Sprintf("Number of concurrent extraction workers (1-%d)", config.MaxThreads))
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Directory for scan artifacts")
	cmd.Flags().StringVar(&flags.formats, "formats", "", "Comma-separated output formats (json,csv,sarif)")
	cmd.Flags().StringVar(&flags.detectors, "detectors", "", "Comma-separated detector rule IDs to run (default all)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Skip extraction and emit placeholder artifacts")
	cmd.Flags().StringVar(&flags.summaryFile, "summary-file", "", "Optional summary JSON output path")
	cmd.Flags().StringVar(&flags.database, "database", "", "Path to the SQLite history database")
	cmd.Flags().IntVar(&flags.thresholdLow, "threshold-low", 0, "Highest score still rated LOW")
	cmd.Flags().IntVar(&flags.thresholdHigh, "threshold-high", 0, "Lowest score rated HIGH")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error, off")
	cmd.Flags().BoolVar(&flags.logJSON, "log-json", false, "Emit logs as JSON")
}

func (f runtimeFlagSet) toOverrides(cmd *cobra.Command) config.Overrides {
	ov := config.Overrides{}
	if cmd.Flags().Changed("targets") {
		ov.Targets = config.ParseTargetsList(f.targets)
	}

	if cmd.Flags().Changed("targets-file") {
		ov.TargetsFile = f.targetsFile
	}

	if cmd.Flags().Changed("recursive") {
		ov.Recursive = &f.recursive
	}

	if cmd.Flags().Changed("threads") {
		ov.Threads = f.threads
		ov.ThreadsSet = true
	}

	if cmd.Flags().Changed("output-dir") {
		ov.OutputDir = f.outputDir
	}

	if cmd.Flags().Changed("formats") {
		ov.Formats = config.ParseFormats(f.formats)
	}

	if cmd.Flags().Changed("detectors") {
		ov.Detectors = config.ParseDetectors(f.detectors)
	}

	if cmd.Flags().Changed("dry-run") {
		ov.DryRun = &f.dryRun
	}

	if cmd.Flags().Changed("summary-file") {
		ov.SummaryFile = f.summaryFile
	}

	if cmd.Flags().Changed("database") {
		ov.DatabasePath = f.database
	}

	if cmd.Flags().Changed("threshold-low") {
		ov.ThresholdLow = &f.thresholdLow
	}

	if cmd.Flags().Changed("threshold-high") {
		ov.ThresholdHigh = &f.thresholdHigh
	}

	if cmd.Flags().Changed("log-level") {
		ov.LogLevel = f.logLevel
	}

	if cmd.Flags().Changed("log-json") {
		ov.LogJSON = &f.logJSON
	}

	return ov
}
