// Package engine orchestrates resilient batch enrichment: it partitions
// the input into chunks, matches each record against the reference set
// under a bounded-retry policy, checkpoints progress after every chunk,
// and folds the per-chunk outputs into one ordered enriched dataset.
package engine

import (
	"github.com/hollomancer/sbir-analytics-sub001/internal/engine/match"
)

// EnrichedRecord is one input record augmented with match metadata. The
// embedded Record fields and the match_* keys together form the external
// output row.
type EnrichedRecord struct {
	match.Record

	// MatchMethod names the tier that resolved the record ("none" when
	// nothing did).
	MatchMethod match.Method `json:"match_method"`

	// MatchScore is the similarity score in [0,100]; nil when the record
	// is unmatched.
	MatchScore *float64 `json:"match_score,omitempty"`

	// MatchedReferenceID is set only for assigned matches (exact tiers and
	// fuzzy-auto).
	MatchedReferenceID string `json:"matched_reference_id,omitempty"`

	// MatchCandidates carries the retained fuzzy candidates for records in
	// the manual-review band.
	MatchCandidates []match.Candidate `json:"match_candidates,omitempty"`
}

// ChunkResult is the enriched output of one completed chunk.
type ChunkResult struct {
	ChunkID int              `json:"chunk_id"`
	Records []EnrichedRecord `json:"records"`
	// Matched counts records with an assigned reference.
	Matched int `json:"matched"`
}

// Metrics summarizes a whole run.
type Metrics struct {
	TotalRecords   int     `json:"total_records"`
	TotalMatched   int     `json:"total_matched"`
	MatchRate      float64 `json:"match_rate"`
	ChunksCombined int     `json:"chunks_combined"`

	// MethodCounts is the per-method histogram of match outcomes.
	MethodCounts map[match.Method]int `json:"method_counts,omitempty"`

	// Error is "empty_input" when the run saw no records; empty otherwise.
	Error string `json:"error,omitempty"`
}

// MetricsErrorEmptyInput is the Metrics.Error value for a run over zero
// records.
const MetricsErrorEmptyInput = "empty_input"

// Result is a completed run: the full enriched dataset in input order plus
// run-level metrics.
type Result struct {
	// RunID identifies the run; it is recorded in checkpoint metadata.
	RunID   string           `json:"run_id"`
	Records []EnrichedRecord `json:"records"`
	Metrics Metrics          `json:"metrics"`
	// Resumed reports whether the run restarted from a checkpoint.
	Resumed bool `json:"resumed,omitempty"`
	// ResumedAtChunk is the first chunk processed in this process when
	// Resumed is true.
	ResumedAtChunk int `json:"resumed_at_chunk,omitempty"`
}
