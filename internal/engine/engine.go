package engine

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hollomancer/sbir-analytics-sub001/internal/config"
	"github.com/hollomancer/sbir-analytics-sub001/internal/engine/chunk"
	"github.com/hollomancer/sbir-analytics-sub001/internal/engine/match"
	"github.com/hollomancer/sbir-analytics-sub001/internal/engine/progress"
	"github.com/hollomancer/sbir-analytics-sub001/internal/engine/retry"
	"github.com/hollomancer/sbir-analytics-sub001/internal/logging"
)

// Engine runs one enrichment pass over a fixed record set. Construct with
// New, then call Run once. The record and reference sets are immutable for
// the life of the run.
type Engine struct {
	cfg     *config.Config
	records []match.Record
	matcher *match.Matcher
	retrier *retry.Controller
	runID   string

	resume          bool
	keepCheckpoints bool

	// chunkHook runs before each chunk attempt; a returned error fails the
	// attempt and goes through the retry controller. Used to weave in
	// flaky downstream calls and by tests to inject faults.
	chunkHook func(ctx context.Context, chunkID, attempt int) error
}

// New validates cfg and builds an Engine over records and refs. Invalid
// configuration fails here, before any chunk is processed.
func New(cfg *config.Config, records []match.Record, refs []match.ReferenceEntry) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	matcher, err := match.NewMatcher(refs, match.Options{
		HighThreshold: cfg.HighThreshold,
		LowThreshold:  cfg.LowThreshold,
		TopK:          cfg.TopK,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	retrier, err := retry.NewController(cfg.MaxRetries, retry.DefaultBackoffUnit)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Engine{
		cfg:     cfg,
		records: records,
		matcher: matcher,
		retrier: retrier,
		runID:   ulid.Make().String(),
	}, nil
}

// WithResume makes Run restart from the last checkpoint in the configured
// checkpoint directory, skipping every chunk it certifies as done.
func (e *Engine) WithResume(resume bool) *Engine {
	e.resume = resume
	return e
}

// WithKeepCheckpoints leaves the checkpoint store in place after a fully
// successful run instead of clearing it.
func (e *Engine) WithKeepCheckpoints(keep bool) *Engine {
	e.keepCheckpoints = keep
	return e
}

// RunID returns this run's identifier.
func (e *Engine) RunID() string {
	return e.runID
}

// Run executes the enrichment pass: partition, per-chunk matching under
// the retry policy, a checkpoint after every completed chunk, and a final
// aggregation. Chunks are consumed strictly in ascending index order so
// the checkpoint cursor stays unambiguous.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	log := logging.FromContext(ctx).With().
		Str("component", "engine").
		Str("run_id", e.runID).
		Logger()

	chunks, err := chunk.Partition(e.records, e.cfg.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tracker := progress.NewTracker(len(e.records), e.cfg.ChunkSize).
		WithCheckpointDir(e.cfg.CheckpointDir)
	persist := e.cfg.CheckpointDir != ""

	results := make([]ChunkResult, 0, len(chunks))
	startIdx := 0
	resumed := false

	if e.resume && persist {
		startIdx, results, resumed = e.restoreFromCheckpoint(ctx, tracker, len(chunks))
		if !resumed {
			// Unusable store: restart cleanly rather than emit a dataset
			// with holes.
			tracker = progress.NewTracker(len(e.records), e.cfg.ChunkSize).
				WithCheckpointDir(e.cfg.CheckpointDir)
			startIdx = 0
			results = results[:0]
		}
	}

	log.Info().
		Int("total_records", len(e.records)).
		Int("chunk_size", e.cfg.ChunkSize).
		Int("total_chunks", len(chunks)).
		Int("start_chunk", startIdx).
		Int("reference_entries", e.matcher.ReferenceCount()).
		Bool("resumed", resumed).
		Msg("enrichment run starting")

	for _, ch := range chunks[startIdx:] {
		var cr ChunkResult
		err := e.retrier.Do(ctx, ch.Index, func(ctx context.Context, attempt int) error {
			if e.chunkHook != nil {
				if hookErr := e.chunkHook(ctx, ch.Index, attempt); hookErr != nil {
					return hookErr
				}
			}
			var procErr error
			cr, procErr = e.processChunk(ctx, ch)
			return procErr
		})
		if err != nil {
			return nil, e.fatal(ctx, tracker, err)
		}

		if persist {
			if saveErr := tracker.SaveChunkResults(ch.Index, cr); saveErr != nil {
				persist = e.demoteCheckpointing(ctx, tracker, saveErr)
			}
		}

		tracker.MarkChunkComplete(len(ch.Records))

		if persist {
			path, saveErr := tracker.SaveCheckpoint(map[string]any{
				"run_id":   e.runID,
				"chunk_id": ch.Index,
			})
			if saveErr != nil {
				persist = e.demoteCheckpointing(ctx, tracker, saveErr)
			} else {
				log.Debug().
					Int("chunk_id", ch.Index).
					Str("checkpoint", path).
					Msg("checkpoint written")
			}
		}

		log.Info().
			Int("chunk_id", ch.Index).
			Int("chunk_records", len(ch.Records)).
			Int("records_processed", tracker.RecordsProcessed()).
			Float64("percent_complete", tracker.PercentComplete()).
			Float64("estimated_remaining_s", tracker.EstimatedRemainingSeconds()).
			Msg("chunk complete")

		results = append(results, cr)
	}

	combined, metrics := Combine(results)

	if persist && !e.keepCheckpoints {
		if clearErr := tracker.ClearCheckpoints(); clearErr != nil {
			log.Warn().Err(clearErr).Msg("could not clear checkpoints after successful run")
		}
	}

	log.Info().
		Int("total_records", metrics.TotalRecords).
		Int("total_matched", metrics.TotalMatched).
		Float64("match_rate", metrics.MatchRate).
		Int("chunks_combined", metrics.ChunksCombined).
		Msg("enrichment run complete")

	return &Result{
		RunID:          e.runID,
		Records:        combined,
		Metrics:        metrics,
		Resumed:        resumed,
		ResumedAtChunk: startIdx,
	}, nil
}

// processChunk matches every record in the chunk. Output order always
// follows record order, even when matching runs on multiple workers.
func (e *Engine) processChunk(ctx context.Context, ch chunk.Chunk[match.Record]) (ChunkResult, error) {
	out := make([]EnrichedRecord, len(ch.Records))

	if e.cfg.Workers <= 1 {
		for i, rec := range ch.Records {
			out[i] = e.enrich(rec)
		}
	} else {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Workers)
		for i, rec := range ch.Records {
			i, rec := i, rec
			g.Go(func() error {
				out[i] = e.enrich(rec)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return ChunkResult{}, err
		}
	}

	matched := 0
	for i := range out {
		if out[i].MatchMethod.Assigned() {
			matched++
		}
	}

	return ChunkResult{ChunkID: ch.Index, Records: out, Matched: matched}, nil
}

// enrich maps one match result onto the external output shape.
func (e *Engine) enrich(rec match.Record) EnrichedRecord {
	res := e.matcher.Match(rec)

	er := EnrichedRecord{Record: rec, MatchMethod: res.Method}
	if res.HasScore {
		score := res.Score
		er.MatchScore = &score
	}
	if res.Method.Assigned() {
		er.MatchedReferenceID = res.RefID
	} else if res.Method == match.MethodFuzzyCandidate {
		er.MatchCandidates = res.Candidates
	}
	return er
}

// restoreFromCheckpoint loads the latest checkpoint and the durable chunk
// results it certifies. Returns ok=false when the store is absent or any
// certified chunk result cannot be reloaded.
func (e *Engine) restoreFromCheckpoint(
	ctx context.Context,
	tracker *progress.Tracker,
	totalChunks int,
) (startIdx int, results []ChunkResult, ok bool) {
	log := logging.FromContext(ctx)

	cp, err := tracker.LoadLastCheckpoint()
	if err != nil || cp == nil {
		return 0, nil, false
	}
	if cp.ChunksProcessed > totalChunks {
		log.Warn().
			Int("checkpoint_chunks", cp.ChunksProcessed).
			Int("total_chunks", totalChunks).
			Msg("checkpoint covers more chunks than this input; ignoring store")
		return 0, nil, false
	}

	startIdx = tracker.ResumeFrom(cp)
	results = make([]ChunkResult, 0, startIdx)
	for i := 0; i < startIdx; i++ {
		var cr ChunkResult
		if loadErr := tracker.LoadChunkResults(i, &cr); loadErr != nil {
			log.Warn().
				Int("chunk_id", i).
				Err(loadErr).
				Msg("checkpointed chunk result unreadable; restarting run from scratch")
			return 0, nil, false
		}
		results = append(results, cr)
	}

	log.Info().
		Int("chunks_restored", startIdx).
		Int("records_restored", tracker.RecordsProcessed()).
		Msg("resumed from checkpoint")
	return startIdx, results, true
}

// demoteCheckpointing logs a checkpoint store failure and switches the run
// to in-memory-only progress tracking. Checkpointing is a resilience
// feature, not a correctness requirement, so the run itself continues.
func (e *Engine) demoteCheckpointing(ctx context.Context, tracker *progress.Tracker, err error) bool {
	logging.FromContext(ctx).Warn().
		Err(err).
		Msg("checkpoint write failed; continuing with in-memory progress only")
	tracker.RecordError(err.Error())
	return false
}

// fatal wraps a permanent chunk failure with resumption guidance: the last
// successfully checkpointed index and where the store lives.
func (e *Engine) fatal(ctx context.Context, tracker *progress.Tracker, err error) error {
	logging.FromContext(ctx).Error().
		Err(err).
		Int("chunks_completed", tracker.ChunksProcessed()).
		Str("checkpoint_dir", e.cfg.CheckpointDir).
		Msg("enrichment run aborted")

	if e.cfg.CheckpointDir != "" {
		return fmt.Errorf(
			"enrichment aborted (%d chunks checkpointed in %s; re-run with resume enabled to continue): %w",
			tracker.ChunksProcessed(), e.cfg.CheckpointDir, err)
	}
	return fmt.Errorf("enrichment aborted after %d completed chunks: %w",
		tracker.ChunksProcessed(), err)
}
