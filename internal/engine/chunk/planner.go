// Package chunk partitions a record set into ordered, non-overlapping
// chunks so large datasets can be processed and checkpointed in bounded
// memory.
//
// Chunks are contiguous views of the input slice in original order; no
// records are copied. Concatenating every chunk's records in chunk order
// reproduces the input exactly.
package chunk

import (
	"errors"
	"fmt"
)

// ErrInvalidChunkSize rejects non-positive chunk sizes at plan time.
var ErrInvalidChunkSize = errors.New("chunk size must be a positive integer")

// Chunk is one bounded, ordered subsequence of the input, processed and
// checkpointed as a single atomic unit.
type Chunk[T any] struct {
	// Index is the chunk's position in ascending processing order.
	Index int
	// Records is a view into the original input slice.
	Records []T
}

// Partition splits items into chunks of at most size records. The final
// chunk may be smaller. Empty input yields zero chunks, not an error.
func Partition[T any](items []T, size int) ([]Chunk[T], error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, size)
	}

	total := Count(len(items), size)
	chunks := make([]Chunk[T], 0, total)
	for i := 0; i < total; i++ {
		start := i * size
		end := min(start+size, len(items))
		chunks = append(chunks, Chunk[T]{Index: i, Records: items[start:end]})
	}
	return chunks, nil
}

// Count returns the number of chunks needed for total items at the given
// chunk size: ceil(total/size). size must be positive.
func Count(total, size int) int {
	n := total / size
	if total%size > 0 {
		n++
	}
	return n
}
