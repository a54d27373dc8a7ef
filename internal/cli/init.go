package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/metascan/internal/config"
	"github.com/example/metascan/internal/exiftool"
	"github.com/example/metascan/internal/store"
)

func newInitCmd(loader *config.Loader) *cobra.Command {
	flags := &runtimeFlagSet{}
	var skipExiftoolCheck bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Validate the execution environment and prepare the output directory",
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

			if cfg.DatabasePath != "" {
				db, err := store.Open(cfg.DatabasePath)
				if err != nil {
					return err
				}
				if err := db.Close(); err != nil {
					return err
				}
			}

			if !skipExiftoolCheck && !cfg.DryRun {
				runner := exiftool.NewRunner()
				if err := runner.EnsureBinary(); err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Note: exiftool not found; media files will degrade to filesystem metadata.")
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Environment looks good. Output will be stored in %s\n", cfg.OutputDir)
			return nil
		},
	}

	bindRuntimeFlags(cmd, flags)
	cmd.Flags().BoolVar(&skipExiftoolCheck, "skip-exiftool-check", false, "Skip probing for the optional exiftool binary")

	return cmd
}
