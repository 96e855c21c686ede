// Package progress tracks how much of an enrichment run has completed and
// persists that progress as durable checkpoints so an interrupted run can
// resume without reprocessing finished chunks.
//
// A Tracker exposes a single linear cursor: a checkpoint for chunk k
// certifies chunks 0..k-1 are done. It is mutated only by the run
// orchestrator, exactly once per completed chunk, and is not safe for
// concurrent use. A checkpoint directory has a single-writer invariant —
// one Tracker per directory at a time.
package progress

import (
	"time"
)

// Tracker holds the mutable progress state of one run.
type Tracker struct {
	totalRecords int
	chunkSize    int

	chunksProcessed  int
	recordsProcessed int

	startTime          time.Time
	lastCheckpointTime time.Time

	errs []string

	// dir is the checkpoint directory; empty disables persistence.
	dir string

	now func() time.Time
}

// NewTracker creates a Tracker for a run over totalRecords records in
// chunks of chunkSize.
func NewTracker(totalRecords, chunkSize int) *Tracker {
	t := &Tracker{
		totalRecords: totalRecords,
		chunkSize:    chunkSize,
		now:          time.Now,
	}
	t.startTime = t.now()
	return t
}

// WithCheckpointDir enables durable checkpoints under dir.
func (t *Tracker) WithCheckpointDir(dir string) *Tracker {
	t.dir = dir
	return t
}

// WithClock replaces the time source, used by tests for deterministic
// derived values.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	t.startTime = now()
	return t
}

// TotalChunks returns ceil(totalRecords / chunkSize).
func (t *Tracker) TotalChunks() int {
	n := t.totalRecords / t.chunkSize
	if t.totalRecords%t.chunkSize > 0 {
		n++
	}
	return n
}

// ChunksProcessed returns the number of completed chunks, which is also
// the index of the first unprocessed chunk.
func (t *Tracker) ChunksProcessed() int {
	return t.chunksProcessed
}

// RecordsProcessed returns the number of records in completed chunks.
func (t *Tracker) RecordsProcessed() int {
	return t.recordsProcessed
}

// PercentComplete returns completion in [0,100], 0 for an empty run.
func (t *Tracker) PercentComplete() float64 {
	if t.totalRecords == 0 {
		return 0
	}
	return float64(t.recordsProcessed) / float64(t.totalRecords) * 100
}

// ElapsedSeconds returns seconds since the run (or resumed run) started.
func (t *Tracker) ElapsedSeconds() float64 {
	return t.now().Sub(t.startTime).Seconds()
}

// EstimatedRemainingSeconds extrapolates remaining time from the observed
// per-record rate. Returns 0 before any record has completed.
func (t *Tracker) EstimatedRemainingSeconds() float64 {
	if t.recordsProcessed == 0 {
		return 0
	}
	remaining := t.totalRecords - t.recordsProcessed
	return t.ElapsedSeconds() * float64(remaining) / float64(t.recordsProcessed)
}

// MarkChunkComplete advances the cursor by one chunk of recordCount
// records. Counters are monotonically non-decreasing within a run.
func (t *Tracker) MarkChunkComplete(recordCount int) {
	t.chunksProcessed++
	t.recordsProcessed += recordCount
}

// RecordError appends a non-fatal error description to the run state; it
// is carried into every subsequent checkpoint.
func (t *Tracker) RecordError(msg string) {
	t.errs = append(t.errs, msg)
}

// Errors returns the accumulated non-fatal error descriptions.
func (t *Tracker) Errors() []string {
	return t.errs
}

// snapshot captures the full derived state as a Checkpoint.
func (t *Tracker) snapshot() Checkpoint {
	errs := t.errs
	if errs == nil {
		errs = []string{}
	}
	return Checkpoint{
		Timestamp:                 t.now().UTC(),
		ChunksProcessed:           t.chunksProcessed,
		RecordsProcessed:          t.recordsProcessed,
		PercentComplete:           t.PercentComplete(),
		ElapsedSeconds:            t.ElapsedSeconds(),
		EstimatedRemainingSeconds: t.EstimatedRemainingSeconds(),
		Errors:                    errs,
	}
}

// ResumeFrom restores the cursor from a previously loaded checkpoint and
// returns the index of the first unprocessed chunk. Chunks below that
// index are never reprocessed in the resumed run.
func (t *Tracker) ResumeFrom(cp *Checkpoint) int {
	t.chunksProcessed = cp.ChunksProcessed
	t.recordsProcessed = cp.RecordsProcessed
	t.errs = append(t.errs, cp.Errors...)
	return cp.ChunksProcessed
}
