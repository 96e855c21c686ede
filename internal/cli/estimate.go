package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollomancer/sbir-analytics-sub001/internal/engine"
	"github.com/hollomancer/sbir-analytics-sub001/internal/ingest"
	"github.com/hollomancer/sbir-analytics-sub001/internal/logging"
)

func newEstimateCmd() *cobra.Command {
	var (
		recordsPath   string
		referencePath string
		recordCount   int
		refCount      int
		chunkSize     int
		budgetMB      float64
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate memory usage for a planned run",
		Long: "Estimate sizes a run before it starts. Pass the input files to count\n" +
			"records, or --record-count/--reference-count to size a hypothetical\n" +
			"run. With --budget, a chunk size fitting that budget is suggested;\n" +
			"otherwise currently available system memory is used.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("chunk-size") {
				chunkSize = cfg.ChunkSize
			}

			if recordsPath != "" {
				records, err := ingest.LoadRecords(ctx, recordsPath)
				if err != nil {
					return err
				}
				recordCount = len(records)
			}
			if referencePath != "" {
				refs, err := ingest.LoadReference(ctx, referencePath)
				if err != nil {
					return err
				}
				refCount = len(refs)
			}
			if recordCount < 1 {
				return fmt.Errorf("nothing to size: pass --records or --record-count")
			}

			est := engine.EstimateMemory(recordCount, refCount, chunkSize)

			budget := budgetMB
			availableMB, err := engine.AvailableMemoryMB()
			if err != nil {
				log.Warn().Err(err).Msg("system memory unavailable, skipping suggestion")
				availableMB = 0
			}
			if budget <= 0 {
				budget = availableMB
			}

			suggested := 0
			if budget > 0 {
				suggested = engine.SuggestChunkSize(recordCount, refCount, budget)
			}

			renderEstimate(cmd.OutOrStdout(), est, availableMB, suggested)
			return nil
		},
	}

	cmd.Flags().StringVar(&recordsPath, "records", "", "input records file to count")
	cmd.Flags().StringVar(&referencePath, "reference", "", "reference dataset file to count")
	cmd.Flags().IntVar(&recordCount, "record-count", 0, "record count when no input file is given")
	cmd.Flags().IntVar(&refCount, "reference-count", 0, "reference entry count when no reference file is given")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "chunk size to estimate (default from config)")
	cmd.Flags().Float64Var(&budgetMB, "budget", 0, "memory budget in MB for the chunk-size suggestion")

	return cmd
}
