package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/metascan/internal/config"
	"github.com/example/metascan/internal/store"
)

func newHistoryCmd(loader *config.Loader) *cobra.Command {
	var (
		database string
		term     string
		fileType string
		level    string
		since    string
		sortBy   string
		limit    int
		showStat bool
		clear    bool
		deleteID int64
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query past scan results from the history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loader.Load(config.Overrides{DatabasePath: database})
			if err != nil {
				return err
			}

			db, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()

			switch {
			case clear:
				if err := db.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
				return nil

			case deleteID > 0:
				if err := db.Delete(deleteID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Record %d deleted.\n", deleteID)
				return nil

			case showStat:
				stats, err := db.Stats()
				if err != nil {
					return err
				}
				return printJSON(cmd, stats)
			}

			query := store.Query{
				Term:     term,
				FileType: fileType,
				Level:    level,
				Sort:     store.Sort(sortBy),
				Limit:    limit,
			}
			if since != "" {
				parsed, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("parse --since: %w", err)
				}
				query.Since = parsed
			}

			records, err := db.Search(query)
			if err != nil {
				return err
			}
			return printJSON(cmd, records)
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Path to the SQLite history database")
	cmd.Flags().StringVar(&term, "term", "", "Substring match against file name or path")
	cmd.Flags().StringVar(&fileType, "type", "", "Filter by file extension")
	cmd.Flags().StringVar(&level, "level", "", "Filter by risk level (low, medium, high)")
	cmd.Flags().StringVar(&since, "since", "", "Only records extracted after this RFC3339 instant")
	cmd.Flags().StringVar(&sortBy, "sort", string(store.SortDateDesc), "Sort order: date-desc, date-asc, name-asc, name-desc, score-desc")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of records to return")
	cmd.Flags().BoolVar(&showStat, "stats", false, "Print aggregate statistics instead of records")
	cmd.Flags().BoolVar(&clear, "clear", false, "Remove every stored record")
	cmd.Flags().Int64Var(&deleteID, "delete", 0, "Delete one record by ID")

	return cmd
}

func printJSON(cmd *cobra.Command, payload interface{}) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
