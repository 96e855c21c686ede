package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateMemory(t *testing.T) {
	est := EstimateMemory(10000, 50000, 500)

	assert.InDelta(t, 10000.0*bytesPerSourceRecord/bytesPerMB, est.SourceMB, 0.001)
	assert.InDelta(t, 50000.0*bytesPerReferenceEntry/bytesPerMB, est.ReferenceMB, 0.001)
	assert.InDelta(t, 500.0*bytesPerSourceRecord*workingMultiplier/bytesPerMB, est.WorkingMB, 0.001)
	assert.InDelta(t, est.SourceMB+est.ReferenceMB+est.WorkingMB, est.PeakMB, 0.001)
}

func TestEstimateMemoryDeterministic(t *testing.T) {
	a := EstimateMemory(1234, 5678, 100)
	b := EstimateMemory(1234, 5678, 100)
	assert.Equal(t, a, b)
}

func TestEstimateMemoryChunkClamped(t *testing.T) {
	// A chunk larger than the record set works no more memory than the
	// whole set.
	small := EstimateMemory(10, 100, 1000)
	exact := EstimateMemory(10, 100, 10)
	assert.Equal(t, exact, small)
}

func TestSuggestChunkSize(t *testing.T) {
	t.Run("WithinBudget", func(t *testing.T) {
		size := SuggestChunkSize(10000, 50000, 1024)
		assert.Positive(t, size)
		assert.LessOrEqual(t, size, 10000)

		est := EstimateMemory(10000, 50000, size)
		assert.LessOrEqual(t, est.PeakMB, 1024.0)
	})

	t.Run("TinyBudgetFloorsAtOne", func(t *testing.T) {
		assert.Equal(t, 1, SuggestChunkSize(10000, 50000, 1))
	})

	t.Run("EmptyInput", func(t *testing.T) {
		assert.Equal(t, 1, SuggestChunkSize(0, 100, 512))
	})

	t.Run("GenerousBudgetCapsAtRecordCount", func(t *testing.T) {
		assert.Equal(t, 100, SuggestChunkSize(100, 10, 1<<20))
	})
}
