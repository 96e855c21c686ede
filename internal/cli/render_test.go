package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hollomancer/sbir-analytics-sub001/internal/engine"
	"github.com/hollomancer/sbir-analytics-sub001/internal/engine/match"
)

func TestSortedMethodsTierOrder(t *testing.T) {
	counts := map[match.Method]int{
		match.MethodNone:           2,
		match.MethodFuzzyAuto:      1,
		match.MethodExactPrimary:   4,
		match.MethodFuzzyCandidate: 1,
	}

	got := sortedMethods(counts)
	want := []match.Method{
		match.MethodExactPrimary,
		match.MethodFuzzyAuto,
		match.MethodFuzzyCandidate,
		match.MethodNone,
	}
	assert.Equal(t, want, got)
}

func TestRenderSummary(t *testing.T) {
	res := &engine.Result{
		RunID: "01JTEST",
		Metrics: engine.Metrics{
			TotalRecords:   5,
			TotalMatched:   3,
			MatchRate:      0.6,
			ChunksCombined: 3,
			MethodCounts: map[match.Method]int{
				match.MethodExactPrimary: 2,
				match.MethodFuzzyAuto:    1,
				match.MethodNone:         2,
			},
		},
		Resumed:        true,
		ResumedAtChunk: 2,
	}

	var buf bytes.Buffer
	renderSummary(&buf, res)

	out := buf.String()
	assert.Contains(t, out, "ENRICHMENT SUMMARY")
	assert.Contains(t, out, "01JTEST")
	assert.Contains(t, out, "60.0%")
	assert.Contains(t, out, "Resumed at chunk")
	assert.Contains(t, out, string(match.MethodExactPrimary))
}

func TestRenderEstimate(t *testing.T) {
	est := engine.EstimateMemory(1000, 2000, 500)

	var buf bytes.Buffer
	renderEstimate(&buf, est, 1024, 500)

	out := buf.String()
	assert.Contains(t, out, "MEMORY ESTIMATE")
	assert.Contains(t, out, "Available now")
	assert.Contains(t, out, "Suggested chunk size")
}
