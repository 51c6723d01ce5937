// Package persistencetest holds the behaviour every ISnapshotPersistence
// backend must share, run against each backend from its own tests.
package persistencetest

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/reconcile"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/snapshot"
)

// SampleRecord builds a small valid record created at createdAt.
func SampleRecord(t *testing.T, createdAt time.Time) *persistence.SnapshotRecord {
	t.Helper()

	snap, stats, err := snapshot.MergeRecords(
		snapshot.SourceMainnet, []snapshot.Record{
			{Address: "0x1111111111111111111111111111111111111111", Amount: "100"},
		},
		snapshot.SourceXDai, []snapshot.Record{
			{Address: "0x1111111111111111111111111111111111111111", Amount: "50"},
			{Address: "0x2222222222222222222222222222222222222222", Amount: "30"},
		},
		nil,
	)
	require.NoError(t, err)

	report, err := reconcile.ReconcileSources(snap, map[string]*amount.Amount{
		snapshot.SourceMainnet: amount.MustParse("120"),
		snapshot.SourceXDai:    amount.MustParse("50"),
	}, amount.Pow10(4))
	require.NoError(t, err)

	record := persistence.NewSnapshotRecord(snap, fmt.Sprintf("0x%064x", createdAt.UnixNano()), createdAt)
	record.Stats = stats
	record.Reconciliation = report
	record.Publishable = report.Valid
	return record
}

// Factory opens a fresh, empty backend.
type Factory func(t *testing.T) persistence.ISnapshotPersistence

// RunSuite exercises the shared ISnapshotPersistence contract.
func RunSuite(t *testing.T, open Factory) {
	t.Run("SaveAndLoad", func(t *testing.T) {
		p := open(t)
		defer func() { _ = p.Close() }()

		record := SampleRecord(t, time.Unix(1700000000, 0))
		require.NoError(t, p.SaveSnapshot(record))

		loaded, err := p.LoadSnapshot(record.RunID)
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, record.RunID, loaded.RunID)
		assert.True(t, record.CreatedAt.Equal(loaded.CreatedAt))
		assert.Equal(t, record.Root, loaded.Root)
		assert.Equal(t, record.Publishable, loaded.Publishable)
		assert.Equal(t, record.Stats, loaded.Stats)
		require.Equal(t, record.Snapshot.Len(), loaded.Snapshot.Len())
		for i := 0; i < record.Snapshot.Len(); i++ {
			assert.Equal(t, record.Snapshot.At(i).Address, loaded.Snapshot.At(i).Address)
			assert.True(t, record.Snapshot.At(i).Amount.Equal(loaded.Snapshot.At(i).Amount))
		}
		require.NotNil(t, loaded.Reconciliation)
		assert.Equal(t, "-10", loaded.Reconciliation.Delta.String())
		assert.False(t, loaded.Reconciliation.Valid)
	})

	t.Run("LoadNotFound", func(t *testing.T) {
		p := open(t)
		defer func() { _ = p.Close() }()

		loaded, err := p.LoadSnapshot(uuid.New())
		require.NoError(t, err)
		assert.Nil(t, loaded)

		latest, err := p.LoadLatestSnapshot()
		require.NoError(t, err)
		assert.Nil(t, latest)

		runs, err := p.ListSnapshotRuns()
		require.NoError(t, err)
		assert.Empty(t, runs)
	})

	t.Run("SaveRejectsInvalid", func(t *testing.T) {
		p := open(t)
		defer func() { _ = p.Close() }()

		require.Error(t, p.SaveSnapshot(nil))
		record := SampleRecord(t, time.Unix(1700000000, 0))
		record.Snapshot = nil
		require.Error(t, p.SaveSnapshot(record))
	})

	t.Run("ListAndLatest", func(t *testing.T) {
		p := open(t)
		defer func() { _ = p.Close() }()

		base := time.Unix(1700000000, 0)
		second := SampleRecord(t, base.Add(2*time.Hour))
		first := SampleRecord(t, base)
		third := SampleRecord(t, base.Add(3*time.Hour))
		for _, r := range []*persistence.SnapshotRecord{second, first, third} {
			require.NoError(t, p.SaveSnapshot(r))
		}

		runs, err := p.ListSnapshotRuns()
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, first.RunID, runs[0].RunID)
		assert.Equal(t, second.RunID, runs[1].RunID)
		assert.Equal(t, third.RunID, runs[2].RunID)
		assert.Equal(t, 2, runs[0].Accounts)

		latest, err := p.LoadLatestSnapshot()
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, third.RunID, latest.RunID)

		require.NoError(t, p.DeleteSnapshot(third.RunID))
		latest, err = p.LoadLatestSnapshot()
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, second.RunID, latest.RunID)
	})

	t.Run("DeleteIdempotent", func(t *testing.T) {
		p := open(t)
		defer func() { _ = p.Close() }()

		record := SampleRecord(t, time.Unix(1700000000, 0))
		require.NoError(t, p.SaveSnapshot(record))
		require.NoError(t, p.DeleteSnapshot(record.RunID))
		require.NoError(t, p.DeleteSnapshot(record.RunID))

		loaded, err := p.LoadSnapshot(record.RunID)
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("Overwrite", func(t *testing.T) {
		p := open(t)
		defer func() { _ = p.Close() }()

		record := SampleRecord(t, time.Unix(1700000000, 0))
		require.NoError(t, p.SaveSnapshot(record))
		record.Publishable = true
		require.NoError(t, p.SaveSnapshot(record))

		runs, err := p.ListSnapshotRuns()
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.True(t, runs[0].Publishable)
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		p := open(t)
		defer func() { _ = p.Close() }()

		base := time.Unix(1700000000, 0)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				record := SampleRecord(t, base.Add(time.Duration(i)*time.Minute))
				assert.NoError(t, p.SaveSnapshot(record))
				_, err := p.LoadSnapshot(record.RunID)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		runs, err := p.ListSnapshotRuns()
		require.NoError(t, err)
		assert.Len(t, runs, 10)
	})

	t.Run("ClosedOperations", func(t *testing.T) {
		p := open(t)
		require.NoError(t, p.HealthCheck())
		require.NoError(t, p.Close())
		require.NoError(t, p.Close())

		record := SampleRecord(t, time.Unix(1700000000, 0))
		require.ErrorIs(t, p.SaveSnapshot(record), persistence.ErrClosed)
		_, err := p.LoadSnapshot(record.RunID)
		require.ErrorIs(t, err, persistence.ErrClosed)
		_, err = p.LoadLatestSnapshot()
		require.ErrorIs(t, err, persistence.ErrClosed)
		_, err = p.ListSnapshotRuns()
		require.ErrorIs(t, err, persistence.ErrClosed)
		require.ErrorIs(t, p.DeleteSnapshot(record.RunID), persistence.ErrClosed)
		require.ErrorIs(t, p.HealthCheck(), persistence.ErrClosed)
	})
}
