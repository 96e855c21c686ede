package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hollomancer/sbir-analytics-sub001/internal/config"
	"github.com/hollomancer/sbir-analytics-sub001/internal/engine"
	"github.com/hollomancer/sbir-analytics-sub001/internal/ingest"
	"github.com/hollomancer/sbir-analytics-sub001/internal/logging"
)

// enrichFlags holds the per-invocation overrides for the enrich command.
type enrichFlags struct {
	recordsPath   string
	referencePath string
	outputPath    string

	chunkSize     int
	highThreshold float64
	lowThreshold  float64
	maxRetries    int
	workers       int
	checkpointDir string

	resume          bool
	keepCheckpoints bool
}

func newEnrichCmd() *cobra.Command {
	var flags enrichFlags

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Match a record set against the reference dataset",
		Long: "Enrich partitions the input into chunks, matches every record against\n" +
			"the reference dataset (exact identifiers first, fuzzy name similarity\n" +
			"second), and writes the enriched dataset plus run metrics. With a\n" +
			"checkpoint directory configured, an interrupted run resumes with\n" +
			"--resume without reprocessing completed chunks.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnrich(cmd, &flags)
		},
	}

	cmd.Flags().StringVar(&flags.recordsPath, "records", "", "input records file (.csv, .json, .jsonl)")
	cmd.Flags().StringVar(&flags.referencePath, "reference", "", "reference dataset file")
	cmd.Flags().StringVar(&flags.outputPath, "output", "", "enriched output file (default stdout)")
	cmd.Flags().IntVar(&flags.chunkSize, "chunk-size", 0, "records per chunk (default from config)")
	cmd.Flags().Float64Var(&flags.highThreshold, "high-threshold", 0, "fuzzy auto-accept threshold")
	cmd.Flags().Float64Var(&flags.lowThreshold, "low-threshold", 0, "fuzzy review-candidate threshold")
	cmd.Flags().IntVar(&flags.maxRetries, "max-retries", 0, "attempts per chunk before the run fails")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "intra-chunk matching concurrency")
	cmd.Flags().StringVar(&flags.checkpointDir, "checkpoint-dir", "", "directory for durable checkpoints")
	cmd.Flags().BoolVar(&flags.resume, "resume", false, "resume from the last checkpoint")
	cmd.Flags().BoolVar(&flags.keepCheckpoints, "keep-checkpoints", false, "keep checkpoints after a successful run")

	_ = cmd.MarkFlagRequired("records")
	_ = cmd.MarkFlagRequired("reference")

	return cmd
}

func runEnrich(cmd *cobra.Command, flags *enrichFlags) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyEnrichFlags(cfg, cmd, flags)

	records, err := ingest.LoadRecords(ctx, flags.recordsPath)
	if err != nil {
		return err
	}
	refs, err := ingest.LoadReference(ctx, flags.referencePath)
	if err != nil {
		return err
	}

	eng, err := engine.New(cfg, records, refs)
	if err != nil {
		return err
	}
	eng.WithResume(flags.resume).WithKeepCheckpoints(flags.keepCheckpoints)

	res, err := eng.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("enrichment failed")
		return err
	}

	if err := writeResult(flags.outputPath, res, cmd); err != nil {
		return err
	}

	renderSummary(cmd.ErrOrStderr(), res)
	return nil
}

// applyEnrichFlags overlays explicitly set CLI flags onto cfg; flags win
// over the config file and environment.
func applyEnrichFlags(cfg *config.Config, cmd *cobra.Command, flags *enrichFlags) {
	if cmd.Flags().Changed("chunk-size") {
		cfg.ChunkSize = flags.chunkSize
	}
	if cmd.Flags().Changed("high-threshold") {
		cfg.HighThreshold = flags.highThreshold
	}
	if cmd.Flags().Changed("low-threshold") {
		cfg.LowThreshold = flags.lowThreshold
	}
	if cmd.Flags().Changed("max-retries") {
		cfg.MaxRetries = flags.maxRetries
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = flags.workers
	}
	if cmd.Flags().Changed("checkpoint-dir") {
		cfg.CheckpointDir = flags.checkpointDir
	}
}

// writeResult emits the enriched dataset and metrics as JSON, to a file
// or stdout.
func writeResult(path string, res *engine.Result, cmd *cobra.Command) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
