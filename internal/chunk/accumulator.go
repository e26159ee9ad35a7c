package chunk

import "gsdataset-go/internal/types"

// Accumulator collects scene records until their on-disk size reaches the
// threshold.
type Accumulator struct {
	threshold int64
	size      int64
	index     int
	records   []types.SceneRecord
}

func NewAccumulator(threshold int64) *Accumulator {
	return &Accumulator{threshold: threshold}
}

// Add appends rec and reports whether the chunk is full.
func (a *Accumulator) Add(rec types.SceneRecord, bytes int64) bool {
	a.records = append(a.records, rec)
	a.size += bytes
	return a.size >= a.threshold
}

func (a *Accumulator) Records() []types.SceneRecord {
	return a.records
}

func (a *Accumulator) Size() int64 {
	return a.size
}

// Index is the number of the chunk being filled.
func (a *Accumulator) Index() int {
	return a.index
}

func (a *Accumulator) Len() int {
	return len(a.records)
}

// Reset starts the next chunk.
func (a *Accumulator) Reset() {
	a.records = nil
	a.size = 0
	a.index++
}
