package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hollomancer/sbir-analytics-sub001/internal/engine/progress"
	"github.com/hollomancer/sbir-analytics-sub001/internal/logging"
)

func newCheckpointsCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "Inspect and manage the checkpoint store",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "checkpoint directory (default from config)")

	cmd.AddCommand(newCheckpointsShowCmd(&dir), newCheckpointsClearCmd(&dir))
	return cmd
}

func newCheckpointsShowCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the latest checkpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := checkpointDir(cmd, *dir)
			if err != nil {
				return err
			}

			tracker := progress.NewTracker(0, 1).WithCheckpointDir(d)
			cp, err := tracker.LoadLastCheckpoint()
			if err != nil {
				return err
			}
			if cp == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "no checkpoints in %s\n", d)
				return nil
			}

			renderCheckpoint(cmd.OutOrStdout(), d, cp)
			return nil
		},
	}
}

func newCheckpointsClearCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all checkpoints and persisted chunk results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := checkpointDir(cmd, *dir)
			if err != nil {
				return err
			}

			tracker := progress.NewTracker(0, 1).WithCheckpointDir(d)
			if err := tracker.ClearCheckpoints(); err != nil {
				return err
			}

			logging.FromContext(cmd.Context()).Info().Str("dir", d).Msg("checkpoints cleared")
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", d)
			return nil
		},
	}
}

// checkpointDir resolves the store location: the --dir flag when set,
// otherwise the configured checkpoint directory.
func checkpointDir(cmd *cobra.Command, flagDir string) (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.CheckpointDir == "" {
		return "", fmt.Errorf("no checkpoint directory: pass --dir or set checkpoint_dir in config")
	}
	return cfg.CheckpointDir, nil
}

func renderCheckpoint(w io.Writer, dir string, cp *progress.Checkpoint) {
	var b strings.Builder
	b.WriteString(summaryTitleStyle.Render("LAST CHECKPOINT"))
	b.WriteString("\n")
	writeRow(&b, "Directory", dir)
	writeRow(&b, "Written", cp.Timestamp.Format("2006-01-02 15:04:05 MST"))
	writeRow(&b, "Chunks processed", fmt.Sprintf("%d", cp.ChunksProcessed))
	writeRow(&b, "Records processed", fmt.Sprintf("%d", cp.RecordsProcessed))
	writeRow(&b, "Percent complete", fmt.Sprintf("%.1f%%", cp.PercentComplete))
	writeRow(&b, "Elapsed", fmt.Sprintf("%.1fs", cp.ElapsedSeconds))
	writeRow(&b, "Est. remaining", fmt.Sprintf("%.1fs", cp.EstimatedRemainingSeconds))
	if len(cp.Errors) > 0 {
		writeRow(&b, "Errors", fmt.Sprintf("%d recorded", len(cp.Errors)))
	}
	if runID, ok := cp.Metadata["run_id"].(string); ok {
		writeRow(&b, "Run ID", runID)
	}

	fmt.Fprintln(w, summaryBoxStyle.Render(strings.TrimRight(b.String(), "\n")))
}
