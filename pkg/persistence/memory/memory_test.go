package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence/persistencetest"
)

func TestMemoryPersistence(t *testing.T) {
	persistencetest.RunSuite(t, func(t *testing.T) persistence.ISnapshotPersistence {
		return NewMemoryPersistence(zaptest.NewLogger(t))
	})
}

func TestMemoryPersistence_CopiesOnSaveAndLoad(t *testing.T) {
	m := NewMemoryPersistence(nil)
	defer func() { _ = m.Close() }()

	record := persistencetest.SampleRecord(t, time.Unix(1700000000, 0))
	require.NoError(t, m.SaveSnapshot(record))

	// Mutating the caller's copy must not reach the store
	record.Root = "0xdead"
	record.Stats.Added = 1000

	loaded, err := m.LoadSnapshot(record.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, "0xdead", loaded.Root)
	assert.NotEqual(t, 1000, loaded.Stats.Added)

	loaded.Root = "0xbeef"
	again, err := m.LoadSnapshot(record.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, "0xbeef", again.Root)
}
