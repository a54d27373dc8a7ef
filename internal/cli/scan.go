package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/example/metascan/internal/config"
	"github.com/example/metascan/internal/events"
	"github.com/example/metascan/internal/exiftool"
	"github.com/example/metascan/internal/extract"
	"github.com/example/metascan/internal/logger"
	"github.com/example/metascan/internal/report"
	"github.com/example/metascan/internal/risk"
	"github.com/example/metascan/internal/store"
)

func newScanCmd(loader *config.Loader) *cobra.Command {
	flags := &runtimeFlagSet{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Extract metadata from targets and rate their privacy risk",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := flags.toOverrides(cmd)
			cfg, err := loader.Load(overrides)
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := ensureOutputDir(cfg.OutputDir); err != nil {
				return err
			}

			return runScan(cmd, cfg)
		},
	}

	bindRuntimeFlags(cmd, flags)

	return cmd
}

// extractionJob carries one file through the worker pool; results stay
// index-aligned with the resolved target list.
type extractionJob struct {
	index int
	path  string
}

type extractionResult struct {
	extraction extract.Extraction
	err        error
}

func runScan(cmd *cobra.Command, cfg config.RuntimeConfig) error {
	log := logger.New("scan", cfg.Logger)
	emitter := events.NewEmitter(cmd.OutOrStdout())
	runID := uuid.NewString()

	rules, err := risk.DefaultRegistry().Select(cfg.Detectors)
	if err != nil {
		return err
	}
	analyzer := risk.NewAnalyzer(rules, cfg.Thresholds)

	files, err := resolveTargets(cfg.Targets, cfg.Recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found under configured targets")
	}

	if err := emitter.Emit(events.ScanStarted(runID, len(files), cfg.Threads)); err != nil {
		return err
	}

	timestamp := time.Now().UTC().Format("20060102_150405")

	if cfg.DryRun {
		return runDryScan(cmd, cfg, emitter, runID, timestamp, files)
	}

	extractor := extract.New(detectExiftool(cmd.Context(), log))
	extractions := extractAll(cmd.Context(), extractor, files, cfg.Threads)

	now := time.Now().UTC()
	results := make([]risk.Result, len(files))
	failed := 0
	for i, ex := range extractions {
		if ex.err != nil {
			log.Warn("extraction failed", "path", files[i], "error", ex.err)
			if err := emitter.Emit(events.FileFailed(files[i], ex.err)); err != nil {
				return err
			}
			failed++
			results[i] = analyzer.Analyze(nil, now)
			continue
		}

		results[i] = analyzer.AnalyzeWithFallback(ex.extraction.Record, ex.extraction.FallbackTimestamps, now)
		if err := emitter.Emit(events.FileAnalyzed(files[i], results[i].Score, string(results[i].Level))); err != nil {
			return err
		}
	}

	summary := risk.Summarize(files, results)

	artifact := report.Artifact{GeneratedAt: now, RunID: runID, Summary: summary}
	for i, path := range files {
		artifact.Results = append(artifact.Results, report.FileResult{Path: path, Result: results[i]})
	}

	for _, format := range cfg.Formats {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			continue
		}

		outputPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("scan_%s.%s", timestamp, artifactExtension(format)))
		if err := writeArtifactFile(artifact, outputPath, format); err != nil {
			return err
		}
		if err := emitter.Emit(events.ArtifactWritten(format, outputPath)); err != nil {
			return err
		}
	}

	if cfg.SummaryFile != "" {
		if err := writeSummaryFile(artifact, cfg.SummaryFile); err != nil {
			return err
		}
	}

	if cfg.DatabasePath != "" {
		if err := persistResults(cfg.DatabasePath, files, extractions, results, now); err != nil {
			log.Warn("history persistence failed", "error", err)
		}
	}

	return emitter.Emit(events.ScanFinished(runID, summary.Total, failed, summary.Levels.High))
}

// extractAll runs extractions through a bounded worker pool while preserving
// the input order of files.
func extractAll(ctx context.Context, extractor *extract.Extractor, files []string, threads int) []extractionResult {
	if threads < 1 {
		threads = 1
	}

	jobs := make(chan extractionJob)
	results := make([]extractionResult, len(files))

	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				extraction, err := extractor.Extract(ctx, job.path)
				results[job.index] = extractionResult{extraction: extraction, err: err}
			}
		}()
	}

	for i, path := range files {
		jobs <- extractionJob{index: i, path: path}
	}
	close(jobs)
	wg.Wait()

	return results
}

// detectExiftool probes for the optional exiftool backend.
func detectExiftool(ctx context.Context, log hclog.Logger) exiftool.Runner {
	runner := exiftool.NewRunner()
	if err := runner.EnsureBinary(); err != nil {
		log.Debug("exiftool not available; media extraction degrades to filesystem metadata", "error", err)
		return nil
	}
	if version, err := runner.Version(ctx); err == nil {
		log.Debug("exiftool detected", "version", version)
	}
	return runner
}

func persistResults(dbPath string, files []string, extractions []extractionResult, results []risk.Result, now time.Time) error {
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	for i, path := range files {
		if extractions[i].err != nil {
			continue
		}
		rec := extractions[i].extraction.Record

		entry := &store.Record{
			FilePath:    path,
			FileName:    filepath.Base(path),
			FileType:    stringField(rec, "File Type"),
			FileSize:    intField(rec, "File Size (bytes)"),
			ExtractedAt: now,
			ModifiedOn:  extractions[i].extraction.FallbackTimestamps["File Modified"],
			Metadata:    rec,
			Risk:        results[i],
		}
		if _, err := db.Insert(entry); err != nil {
			return err
		}
	}

	return db.Optimize()
}

func stringField(rec risk.Record, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

func intField(rec risk.Record, key string) int64 {
	switch v := rec[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func artifactExtension(format string) string {
	if format == "sarif" {
		return "sarif.json"
	}
	return format
}

func writeArtifactFile(artifact report.Artifact, path, format string) error {
	if err := ensureOutputDir(filepath.Dir(path)); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := artifact.Write(file, format); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeSummaryFile(artifact report.Artifact, path string) error {
	if err := ensureOutputDir(filepath.Dir(path)); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := artifact.WriteSummary(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func runDryScan(cmd *cobra.Command, cfg config.RuntimeConfig, emitter *events.Emitter, runID, timestamp string, files []string) error {
	for _, format := range cfg.Formats {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "" {
			continue
		}

		outputPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("scan_%s.%s", timestamp, artifactExtension(format)))
		if err := writePlaceholderArtifact(outputPath, format, files); err != nil {
			return err
		}
		if err := emitter.Emit(events.ArtifactWritten(format, outputPath)); err != nil {
			return err
		}
	}

	return emitter.Emit(events.ScanFinished(runID, 0, 0, 0))
}

func writePlaceholderArtifact(path, format string, files []string) error {
	if err := ensureOutputDir(filepath.Dir(path)); err != nil {
		return err
	}

	switch format {
	case "json", "sarif":
		payload := map[string]interface{}{
			"generatedAt": time.Now().UTC().Format(time.RFC3339),
			"files":       files,
			"note":        "dry-run placeholder artifact",
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(path, append(data, '\n'), 0o644)
	case "csv":
		lines := []string{"path,status"}
		for _, file := range files {
			lines = append(lines, fmt.Sprintf("%s,placeholder", file))
		}
		content := strings.Join(lines, "\n") + "\n"
		return os.WriteFile(path, []byte(content), 0o644)
	default:
		return fmt.Errorf("unsupported format %s", format)
	}
}
