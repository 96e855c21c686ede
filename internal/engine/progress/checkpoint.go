package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Checkpoint file naming. The zero-padded chunk cursor makes lexical and
// numeric ordering agree, so the latest checkpoint is the last filename.
const (
	checkpointFilePattern = "checkpoint_%04d.json"
	checkpointGlob        = "checkpoint_*.json"
	resultsFilePattern    = "results_%04d.json"
	resultsGlob           = "results_*.json"

	checkpointDirPerm  = 0o755
	checkpointFilePerm = 0o644
)

// Checkpoint is the durable snapshot written after each completed chunk.
// Field names and JSON keys are part of the external interface.
type Checkpoint struct {
	Timestamp                 time.Time      `json:"timestamp"`
	ChunksProcessed           int            `json:"chunks_processed"`
	RecordsProcessed          int            `json:"records_processed"`
	PercentComplete           float64        `json:"percent_complete"`
	ElapsedSeconds            float64        `json:"elapsed_seconds"`
	EstimatedRemainingSeconds float64        `json:"estimated_remaining_seconds"`
	Errors                    []string       `json:"errors"`
	Metadata                  map[string]any `json:"metadata,omitempty"`
}

// CheckpointError reports an I/O failure while reading or writing the
// checkpoint store. Checkpointing is a resilience feature, not a
// correctness requirement: callers log these and continue with in-memory
// progress tracking.
type CheckpointError struct {
	Op   string
	Path string
	Err  error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}

// SaveCheckpoint writes the current state plus caller-supplied metadata to
// the checkpoint directory, named by the zero-padded chunk cursor. It is a
// no-op returning "" when no checkpoint directory is configured. The write
// is atomic (temp file + rename) so a killed process never leaves a
// partially-written checkpoint observable.
func (t *Tracker) SaveCheckpoint(metadata map[string]any) (string, error) {
	if t.dir == "" {
		return "", nil
	}

	if err := os.MkdirAll(t.dir, checkpointDirPerm); err != nil {
		return "", &CheckpointError{Op: "mkdir", Path: t.dir, Err: err}
	}

	cp := t.snapshot()
	cp.Metadata = metadata

	path := filepath.Join(t.dir, fmt.Sprintf(checkpointFilePattern, t.chunksProcessed))
	if err := writeJSONAtomic(path, cp); err != nil {
		return "", err
	}

	t.lastCheckpointTime = t.now()
	return path, nil
}

// LoadLastCheckpoint returns the checkpoint with the highest chunk cursor,
// or nil when the directory is absent, empty, or holds only corrupt files.
// Corrupt checkpoints are treated as absent, not fatal.
func (t *Tracker) LoadLastCheckpoint() (*Checkpoint, error) {
	if t.dir == "" {
		return nil, nil
	}

	paths, err := filepath.Glob(filepath.Join(t.dir, checkpointGlob))
	if err != nil || len(paths) == 0 {
		return nil, nil
	}
	sort.Strings(paths)

	// Walk backwards so a corrupt latest file falls through to the newest
	// readable one.
	for i := len(paths) - 1; i >= 0; i-- {
		data, readErr := os.ReadFile(paths[i])
		if readErr != nil {
			continue
		}
		var cp Checkpoint
		if jsonErr := json.Unmarshal(data, &cp); jsonErr != nil {
			continue
		}
		return &cp, nil
	}
	return nil, nil
}

// ClearCheckpoints deletes every checkpoint and durable chunk-result file,
// typically after a fully successful run. A missing directory is not an
// error.
func (t *Tracker) ClearCheckpoints() error {
	if t.dir == "" {
		return nil
	}

	for _, glob := range []string{checkpointGlob, resultsGlob} {
		paths, err := filepath.Glob(filepath.Join(t.dir, glob))
		if err != nil {
			return &CheckpointError{Op: "glob", Path: t.dir, Err: err}
		}
		for _, p := range paths {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return &CheckpointError{Op: "remove", Path: p, Err: err}
			}
		}
	}
	return nil
}

// SaveChunkResults durably stores a completed chunk's enriched output so a
// resumed run can return the identical full dataset without reprocessing.
// No-op when no checkpoint directory is configured.
func (t *Tracker) SaveChunkResults(chunkIndex int, results any) error {
	if t.dir == "" {
		return nil
	}
	if err := os.MkdirAll(t.dir, checkpointDirPerm); err != nil {
		return &CheckpointError{Op: "mkdir", Path: t.dir, Err: err}
	}
	path := filepath.Join(t.dir, fmt.Sprintf(resultsFilePattern, chunkIndex))
	return writeJSONAtomic(path, results)
}

// LoadChunkResults reads a persisted chunk result into out.
func (t *Tracker) LoadChunkResults(chunkIndex int, out any) error {
	path := filepath.Join(t.dir, fmt.Sprintf(resultsFilePattern, chunkIndex))
	data, err := os.ReadFile(path)
	if err != nil {
		return &CheckpointError{Op: "read", Path: path, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &CheckpointError{Op: "decode", Path: path, Err: err}
	}
	return nil
}

// writeJSONAtomic marshals v and renames a temp file into place.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &CheckpointError{Op: "encode", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return &CheckpointError{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &CheckpointError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &CheckpointError{Op: "close", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, checkpointFilePerm); err != nil {
		os.Remove(tmpName)
		return &CheckpointError{Op: "chmod", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &CheckpointError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
