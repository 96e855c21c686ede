package engine

import (
	"github.com/hollomancer/sbir-analytics-sub001/internal/engine/match"
)

// Combine folds per-chunk outputs into one enriched dataset plus run-level
// metrics. Record order follows chunk order, which is input order. Empty
// input yields an empty dataset and metrics tagged "empty_input" rather
// than an error — a run over zero records is a normal outcome.
func Combine(results []ChunkResult) ([]EnrichedRecord, Metrics) {
	metrics := Metrics{ChunksCombined: len(results)}

	total := 0
	for _, cr := range results {
		total += len(cr.Records)
	}

	combined := make([]EnrichedRecord, 0, total)
	counts := make(map[match.Method]int)
	for _, cr := range results {
		combined = append(combined, cr.Records...)
		metrics.TotalMatched += cr.Matched
		for _, rec := range cr.Records {
			counts[rec.MatchMethod]++
		}
	}

	metrics.TotalRecords = total
	if total == 0 {
		metrics.Error = MetricsErrorEmptyInput
		return combined, metrics
	}

	metrics.MatchRate = float64(metrics.TotalMatched) / float64(total)
	metrics.MethodCounts = counts
	return combined, metrics
}
