package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/bulkseed/core"
	"github.com/poiesic/bulkseed/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_SaveAndList(t *testing.T) {
	_, ledger, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	// Saved out of order; listing must follow batch sequence
	for _, seq := range []int{2, 0, 1, 300} {
		require.NoError(t, ledger.SaveOutcome(ctx, &core.BatchOutcome{
			RunID:      "run-a",
			BatchSeq:   seq,
			Records:    100,
			Attempts:   1,
			Status:     core.BatchStatusSucceeded,
			FinishedAt: now,
		}))
	}
	require.NoError(t, ledger.SaveOutcome(ctx, &core.BatchOutcome{
		RunID:     "run-b",
		BatchSeq:  0,
		Attempts:  3,
		Status:    core.BatchStatusExhausted,
		LastError: "boom",
	}))

	outcomes, err := ledger.ListOutcomes(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, outcomes, 4)
	for i, want := range []int{0, 1, 2, 300} {
		assert.Equal(t, want, outcomes[i].BatchSeq)
		assert.Equal(t, now, outcomes[i].FinishedAt)
	}

	outcomes, err = ledger.ListOutcomes(ctx, "run-b")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, core.BatchStatusExhausted, outcomes[0].Status)
	assert.Equal(t, "boom", outcomes[0].LastError)
}

func TestLedger_SaveReplaces(t *testing.T) {
	_, ledger, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, ledger.SaveOutcome(ctx, &core.BatchOutcome{RunID: "r", BatchSeq: 0, Attempts: 1}))
	require.NoError(t, ledger.SaveOutcome(ctx, &core.BatchOutcome{RunID: "r", BatchSeq: 0, Attempts: 2}))

	outcomes, err := ledger.ListOutcomes(ctx, "r")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, 2, outcomes[0].Attempts)
}

func TestLedger_UnknownRun(t *testing.T) {
	_, ledger, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	outcomes, err := ledger.ListOutcomes(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestLedger_EmptyRunID(t *testing.T) {
	_, ledger, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	assert.ErrorIs(t, ledger.SaveOutcome(ctx, &core.BatchOutcome{}), storage.ErrInvalidQuery)
	_, err = ledger.ListOutcomes(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}
