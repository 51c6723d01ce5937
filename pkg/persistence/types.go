package persistence

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/reconcile"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/snapshot"
)

// SnapshotRecord is one distribution run.
type SnapshotRecord struct {
	RunID     uuid.UUID `json:"runId"`
	CreatedAt time.Time `json:"createdAt"`

	// Root is the 0x-prefixed hex merkle root over Snapshot.
	Root     string             `json:"root"`
	Snapshot *snapshot.Snapshot `json:"snapshot"`

	Stats          *snapshot.MergeStats `json:"stats,omitempty"`
	Reconciliation *reconcile.Report    `json:"reconciliation,omitempty"`

	// Publishable is false when reconciliation failed or was skipped.
	Publishable bool `json:"publishable"`
}

// NewSnapshotRecord creates a record with a fresh random run ID.
func NewSnapshotRecord(snap *snapshot.Snapshot, root string, createdAt time.Time) *SnapshotRecord {
	return &SnapshotRecord{
		RunID:     uuid.New(),
		CreatedAt: createdAt.UTC(),
		Root:      root,
		Snapshot:  snap,
	}
}

// Validate checks that the record can be stored.
func (r *SnapshotRecord) Validate() error {
	if r.RunID == uuid.Nil {
		return fmt.Errorf("record has no run ID")
	}
	if r.CreatedAt.IsZero() {
		return fmt.Errorf("record %s has no creation time", r.RunID)
	}
	if r.Snapshot == nil {
		return fmt.Errorf("record %s has no snapshot", r.RunID)
	}
	if r.Root == "" {
		return fmt.Errorf("record %s has no root", r.RunID)
	}
	return nil
}

// Summary returns the listing view of the record.
func (r *SnapshotRecord) Summary() *SnapshotRun {
	run := &SnapshotRun{
		RunID:       r.RunID,
		CreatedAt:   r.CreatedAt,
		Root:        r.Root,
		Publishable: r.Publishable,
	}
	if r.Snapshot != nil {
		run.Accounts = r.Snapshot.Len()
	}
	return run
}

// SnapshotRun summarizes a stored run without its accounts.
type SnapshotRun struct {
	RunID       uuid.UUID `json:"runId"`
	CreatedAt   time.Time `json:"createdAt"`
	Root        string    `json:"root"`
	Accounts    int       `json:"accounts"`
	Publishable bool      `json:"publishable"`
}

// SortRuns orders runs by CreatedAt, then RunID for equal timestamps.
func SortRuns(runs []*SnapshotRun) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.Before(runs[j].CreatedAt)
		}
		return runs[i].RunID.String() < runs[j].RunID.String()
	})
}
