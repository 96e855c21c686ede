// Package cli wires the enrichment engine into a cobra command tree:
// enrich runs a batch, estimate sizes one, and checkpoints inspects or
// clears a checkpoint store.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/hollomancer/sbir-analytics-sub001/internal/config"
	"github.com/hollomancer/sbir-analytics-sub001/internal/logging"
)

// NewRootCmd creates the root command for the sbir-enrich CLI.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sbir-enrich",
		Short:   "Batch enrichment of award records against a reference registry",
		Long:    "sbir-enrich matches business records against a reference dataset using\nexact identifiers first and fuzzy name similarity second, in resumable,\nmemory-bounded chunks.",
		Version: version,
		Example: rootCmdExample,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				level = "debug"
				format = string(logging.FormatConsole)
			}

			logger := logging.New(logging.Config{
				Level:  level,
				Format: logging.Format(format),
				Writer: cmd.ErrOrStderr(),
			})
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", string(logging.FormatAuto), "log format (console, json, auto)")
	cmd.PersistentFlags().String("config", "", "path to a YAML config file")

	cmd.AddCommand(newEnrichCmd(), newEstimateCmd(), newCheckpointsCmd())

	return cmd
}

// loadConfig reads the config file named by the persistent --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

const rootCmdExample = `  # Enrich awards against the registry extract
  sbir-enrich enrich --records awards.csv --reference registry.csv --output enriched.json

  # Resumable run with durable checkpoints
  sbir-enrich enrich --records awards.csv --reference registry.csv \
    --checkpoint-dir ./checkpoints --output enriched.json

  # Continue an interrupted run
  sbir-enrich enrich --records awards.csv --reference registry.csv \
    --checkpoint-dir ./checkpoints --resume --output enriched.json

  # Pick a chunk size before a large run
  sbir-enrich estimate --record-count 250000 --reference-count 800000 --budget 512

  # Inspect or clear a checkpoint store
  sbir-enrich checkpoints show --dir ./checkpoints
  sbir-enrich checkpoints clear --dir ./checkpoints`
