package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/metascan/internal/config"
)

const version = "0.3.0"

// Execute builds the root command tree and runs the CLI.
func Execute() error {
	loader := &config.Loader{ConfigPath: config.DefaultConfigPath}
	rootOpts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "metascan",
		Short:         "Analyze file metadata for privacy and forensic risk",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	rootCmd.SetVersionTemplate("metascan version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&rootOpts.ConfigPath, "config", config.DefaultConfigPath, "Path to metascan.config.yml (optional)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if rootOpts.ConfigPath != "" {
			loader.ConfigPath = rootOpts.ConfigPath
		}
	}

	rootCmd.AddCommand(
		newInitCmd(loader),
		newScanCmd(loader),
		newReportCmd(),
		newHistoryCmd(loader),
		newWatchCmd(loader),
		newDoctorCmd(loader),
	)

	return rootCmd.Execute()
}

type rootOptions struct {
	ConfigPath string
}
