package ingestion

import (
	"fmt"
	"testing"

	"github.com/poiesic/bulkseed/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	for _, n := range []int{0, 1, 7, 99, 100, 101, 250, 1000} {
		for _, size := range []int{1, 3, 50, 100, 2000} {
			t.Run(fmt.Sprintf("n=%d/size=%d", n, size), func(t *testing.T) {
				records := makeRecords(t, n)

				var batches []core.Batch
				for b := range Partition(FromSlice(records), size) {
					batches = append(batches, b)
				}

				require.Len(t, batches, (n+size-1)/size)

				var flat []core.Record
				for i, b := range batches {
					assert.Equal(t, i, b.Seq)
					assert.Equal(t, core.BatchID(b.Records), b.ID)
					if i < len(batches)-1 {
						assert.Equal(t, size, b.Len())
					} else {
						assert.LessOrEqual(t, b.Len(), size)
						assert.Positive(t, b.Len())
					}
					flat = append(flat, b.Records...)
				}

				require.Len(t, flat, n)
				for i := range records {
					assert.Equal(t, records[i].Key(), flat[i].Key())
				}
			})
		}
	}
}

func TestPartition_Deterministic(t *testing.T) {
	records := makeRecords(t, 42)

	collect := func() []core.ID {
		var ids []core.ID
		for b := range Partition(FromSlice(records), 10) {
			ids = append(ids, b.ID)
		}
		return ids
	}

	assert.Equal(t, collect(), collect())
}

func TestPartition_StopsEarly(t *testing.T) {
	consumed := 0
	source := func(yield func(core.Record) bool) {
		for _, r := range makeRecords(t, 100) {
			consumed++
			if !yield(r) {
				return
			}
		}
	}

	for b := range Partition(source, 10) {
		if b.Seq == 1 {
			break
		}
	}
	assert.Equal(t, 20, consumed)
}

func TestPartition_InvalidInput(t *testing.T) {
	count := 0
	for range Partition(nil, 10) {
		count++
	}
	for range Partition(FromSlice(makeRecords(t, 5)), 0) {
		count++
	}
	assert.Zero(t, count)
}
