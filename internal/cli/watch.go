package cli

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/metascan/internal/config"
	"github.com/example/metascan/internal/events"
	"github.com/example/metascan/internal/extract"
	"github.com/example/metascan/internal/logger"
	"github.com/example/metascan/internal/risk"
	"github.com/example/metascan/internal/store"
	"github.com/example/metascan/internal/watch"
)

func newWatchCmd(loader *config.Loader) *cobra.Command {
	flags := &runtimeFlagSet{}
	var debounceMs int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch target directories and analyze files as they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := flags.toOverrides(cmd)
			cfg, err := loader.Load(overrides)
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			return runWatch(cmd, cfg, time.Duration(debounceMs)*time.Millisecond)
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().IntVar(&debounceMs, "debounce-ms", 200, "Delay before a changed file is rescanned")

	return cmd
}

func runWatch(cmd *cobra.Command, cfg config.RuntimeConfig, debounce time.Duration) error {
	log := logger.New("watch", cfg.Logger)
	emitter := events.NewEmitter(cmd.OutOrStdout())

	rules, err := risk.DefaultRegistry().Select(cfg.Detectors)
	if err != nil {
		return err
	}
	analyzer := risk.NewAnalyzer(rules, cfg.Thresholds)
	extractor := extract.New(detectExiftool(cmd.Context(), log))

	var db *store.Store
	if cfg.DatabasePath != "" {
		db, err = store.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	watcher, err := watch.New(cfg.Targets, debounce, log)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	ctx := cmd.Context()
	watcher.Start(ctx)

	if err := emitter.Emit(events.WatchStarted(cfg.Targets)); err != nil {
		return err
	}
	log.Info("watching for changes", "targets", len(cfg.Targets), "debounce", debounce)

	for {
		select {
		case <-ctx.Done():
			return nil

		case change := <-watcher.Changes():
			if err := emitter.Emit(events.FileChanged(change.Path, change.Op)); err != nil {
				return err
			}

			extraction, err := extractor.Extract(ctx, change.Path)
			if err != nil {
				// Deletes and renames race the extraction; report and move on.
				log.Debug("extraction skipped", "path", change.Path, "error", err)
				continue
			}

			now := time.Now().UTC()
			result := analyzer.AnalyzeWithFallback(extraction.Record, extraction.FallbackTimestamps, now)
			if err := emitter.Emit(events.FileAnalyzed(change.Path, result.Score, string(result.Level))); err != nil {
				return err
			}

			if db != nil {
				rec := &store.Record{
					FilePath:    change.Path,
					FileName:    filepath.Base(change.Path),
					FileType:    stringField(extraction.Record, "File Type"),
					FileSize:    intField(extraction.Record, "File Size (bytes)"),
					ExtractedAt: now,
					ModifiedOn:  extraction.FallbackTimestamps["File Modified"],
					Metadata:    extraction.Record,
					Risk:        result,
				}
				if _, err := db.Insert(rec); err != nil {
					log.Warn("history persistence failed", "path", change.Path, "error", err)
				}
			}
		}
	}
}
