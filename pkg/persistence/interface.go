package persistence

import (
	"errors"

	"github.com/google/uuid"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("persistence layer is closed")

// ISnapshotPersistence stores distribution runs: the canonical snapshot, its
// merkle root and the reconciliation verdict.
// All implementations must be thread-safe.
type ISnapshotPersistence interface {
	// SaveSnapshot persists a run keyed by its RunID.
	// Overwrites any existing run with the same ID.
	SaveSnapshot(record *SnapshotRecord) error

	// LoadSnapshot retrieves a run by ID.
	// Returns nil if the run doesn't exist, error only on storage failure.
	LoadSnapshot(runID uuid.UUID) (*SnapshotRecord, error)

	// LoadLatestSnapshot returns the run with the newest CreatedAt.
	// Returns nil if no runs exist.
	LoadLatestSnapshot() (*SnapshotRecord, error)

	// ListSnapshotRuns returns run summaries sorted by CreatedAt (ascending).
	// Returns empty slice if no runs exist.
	ListSnapshotRuns() ([]*SnapshotRun, error)

	// DeleteSnapshot removes a run.
	// Idempotent - returns nil if the run doesn't exist.
	DeleteSnapshot(runID uuid.UUID) error

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations return ErrClosed.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	HealthCheck() error
}
