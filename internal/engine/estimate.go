package engine

// Memory sizing approximations. These are deliberately coarse: the
// estimator is advisory, used once before a run to pick a chunk size, and
// enforces nothing at runtime.
const (
	// bytesPerSourceRecord approximates one input record with its
	// passthrough fields resident in memory.
	bytesPerSourceRecord = 2048

	// bytesPerReferenceEntry approximates one reference entry plus its
	// normalized-name and identifier-index overhead.
	bytesPerReferenceEntry = 512

	// workingMultiplier covers the in-flight copies of a chunk: the chunk
	// view, its enriched output, and scoring scratch space.
	workingMultiplier = 3

	bytesPerMB = 1 << 20
)

// MemoryEstimate is an advisory sizing breakdown in megabytes.
type MemoryEstimate struct {
	// SourceMB is the full input record set.
	SourceMB float64 `json:"source_mb"`
	// ReferenceMB is the in-memory reference set and its indexes.
	ReferenceMB float64 `json:"reference_mb"`
	// WorkingMB is the per-chunk working set.
	WorkingMB float64 `json:"working_mb"`
	// PeakMB is the expected peak resident footprint.
	PeakMB float64 `json:"peak_mb"`
}

// EstimateMemory sizes a run of recordCount records against referenceCount
// reference entries in chunks of chunkSize. Pure: same inputs, same
// estimate; never invoked per-chunk at runtime.
func EstimateMemory(recordCount, referenceCount, chunkSize int) MemoryEstimate {
	if chunkSize > recordCount {
		chunkSize = recordCount
	}

	est := MemoryEstimate{
		SourceMB:    float64(recordCount) * bytesPerSourceRecord / bytesPerMB,
		ReferenceMB: float64(referenceCount) * bytesPerReferenceEntry / bytesPerMB,
		WorkingMB:   float64(chunkSize) * bytesPerSourceRecord * workingMultiplier / bytesPerMB,
	}
	est.PeakMB = est.SourceMB + est.ReferenceMB + est.WorkingMB
	return est
}

// SuggestChunkSize returns the largest chunk size whose estimated peak
// stays within budgetMB, clamped to [1, recordCount]. Returns 1 when even
// a single-record chunk exceeds the budget; callers treat the suggestion
// as advisory.
func SuggestChunkSize(recordCount, referenceCount int, budgetMB float64) int {
	if recordCount < 1 {
		return 1
	}

	fixed := EstimateMemory(recordCount, referenceCount, 0)
	headroomMB := budgetMB - fixed.SourceMB - fixed.ReferenceMB
	if headroomMB <= 0 {
		return 1
	}

	size := int(headroomMB * bytesPerMB / (bytesPerSourceRecord * workingMultiplier))
	if size < 1 {
		return 1
	}
	if size > recordCount {
		size = recordCount
	}
	return size
}
