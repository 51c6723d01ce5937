package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/persistence"
)

// MemoryPersistence is an in-memory implementation of ISnapshotPersistence.
// This implementation is intended for TESTING and dry runs.
//
// All data is stored in memory and will be lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
// Deep copies data to prevent external mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	// Runs: runID -> SnapshotRecord
	runs map[uuid.UUID]*persistence.SnapshotRecord

	closed bool
}

// NewMemoryPersistence creates a new in-memory persistence layer.
func NewMemoryPersistence(logger *zap.Logger) *MemoryPersistence {
	if logger != nil {
		logger.Sugar().Warnw("Using in-memory persistence - ALL RUNS WILL BE LOST ON EXIT",
			"hint", "set DIST_PERSISTENCE_TYPE=badger or redis to keep run history",
		)
	}

	return &MemoryPersistence{
		runs: make(map[uuid.UUID]*persistence.SnapshotRecord),
	}
}

// SaveSnapshot persists a run.
func (m *MemoryPersistence) SaveSnapshot(record *persistence.SnapshotRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil SnapshotRecord")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	clone, err := persistence.CloneSnapshotRecord(record)
	if err != nil {
		return fmt.Errorf("failed to copy SnapshotRecord: %w", err)
	}
	m.runs[record.RunID] = clone
	return nil
}

// LoadSnapshot retrieves a run by ID.
func (m *MemoryPersistence) LoadSnapshot(runID uuid.UUID) (*persistence.SnapshotRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	record, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	return persistence.CloneSnapshotRecord(record)
}

// LoadLatestSnapshot returns the newest run.
func (m *MemoryPersistence) LoadLatestSnapshot() (*persistence.SnapshotRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}

	runs := m.summaries()
	if len(runs) == 0 {
		return nil, nil
	}
	return persistence.CloneSnapshotRecord(m.runs[runs[len(runs)-1].RunID])
}

// ListSnapshotRuns returns run summaries sorted by CreatedAt.
func (m *MemoryPersistence) ListSnapshotRuns() ([]*persistence.SnapshotRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, persistence.ErrClosed
	}
	return m.summaries(), nil
}

func (m *MemoryPersistence) summaries() []*persistence.SnapshotRun {
	runs := make([]*persistence.SnapshotRun, 0, len(m.runs))
	for _, record := range m.runs {
		runs = append(runs, record.Summary())
	}
	persistence.SortRuns(runs)
	return runs
}

// DeleteSnapshot removes a run.
func (m *MemoryPersistence) DeleteSnapshot(runID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrClosed
	}

	delete(m.runs, runID)
	return nil
}

// Close marks the persistence layer as closed.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck always succeeds while open.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}
	return nil
}

var _ persistence.ISnapshotPersistence = (*MemoryPersistence)(nil)
