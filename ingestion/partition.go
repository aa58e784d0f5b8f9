package ingestion

import (
	"iter"

	"github.com/poiesic/bulkseed/core"
)

// maxPrealloc caps the capacity reserved up front for a batch.
const maxPrealloc = 1024

// Partition groups records into consecutive batches of at most size records,
// preserving input order. Batches are numbered from 0 and the last one may be
// smaller. A nil sequence yields no batches; size must be positive.
func Partition(records iter.Seq[core.Record], size int) iter.Seq[core.Batch] {
	return func(yield func(core.Batch) bool) {
		if records == nil || size <= 0 {
			return
		}

		seq := 0
		current := make([]core.Record, 0, min(size, maxPrealloc))
		for record := range records {
			current = append(current, record)
			if len(current) < size {
				continue
			}
			if !yield(core.NewBatch(seq, current)) {
				return
			}
			seq++
			current = make([]core.Record, 0, min(size, maxPrealloc))
		}

		if len(current) > 0 {
			yield(core.NewBatch(seq, current))
		}
	}
}
