package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/metascan/internal/report"
)

func newReportCmd() *cobra.Command {
	var inputPath string
	var outputPath string
	var format string
	var summaryOnly bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render a JSON scan artifact into another format or a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return errors.New("--input is required")
			}

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return err
			}

			var artifact report.Artifact
			if err := json.Unmarshal(data, &artifact); err != nil {
				return fmt.Errorf("parse artifact %s: %w", inputPath, err)
			}

			if summaryOnly {
				return artifact.WriteSummary(cmd.OutOrStdout())
			}

			if outputPath == "" {
				return artifact.Write(cmd.OutOrStdout(), format)
			}

			if err := writeArtifactFile(artifact, outputPath, format); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Path to a JSON scan artifact")
	cmd.Flags().StringVar(&outputPath, "output", "", "Destination path (default stdout)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, csv, or sarif")
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "Print only the aggregate summary")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}

	return cmd
}
