package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hollomancer/sbir-analytics-sub001/internal/engine/match"
)

func enriched(id string, method match.Method) EnrichedRecord {
	return EnrichedRecord{
		Record:      match.Record{ID: id},
		MatchMethod: method,
	}
}

func TestCombine(t *testing.T) {
	results := []ChunkResult{
		{
			ChunkID: 0,
			Records: []EnrichedRecord{
				enriched("a", match.MethodExactPrimary),
				enriched("b", match.MethodNone),
			},
			Matched: 1,
		},
		{
			ChunkID: 1,
			Records: []EnrichedRecord{
				enriched("c", match.MethodFuzzyAuto),
				enriched("d", match.MethodFuzzyCandidate),
			},
			Matched: 1,
		},
	}

	combined, metrics := Combine(results)

	ids := make([]string, len(combined))
	for i, r := range combined {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)

	assert.Equal(t, 4, metrics.TotalRecords)
	assert.Equal(t, 2, metrics.TotalMatched)
	assert.InDelta(t, 0.5, metrics.MatchRate, 0.001)
	assert.Equal(t, 2, metrics.ChunksCombined)
	assert.Empty(t, metrics.Error)
	assert.Equal(t, 1, metrics.MethodCounts[match.MethodExactPrimary])
	assert.Equal(t, 1, metrics.MethodCounts[match.MethodFuzzyCandidate])
}

func TestCombineEmptyInput(t *testing.T) {
	combined, metrics := Combine(nil)
	assert.Empty(t, combined)
	assert.Equal(t, 0, metrics.TotalRecords)
	assert.Equal(t, 0, metrics.TotalMatched)
	assert.Equal(t, 0.0, metrics.MatchRate)
	assert.Equal(t, MetricsErrorEmptyInput, metrics.Error)
}
