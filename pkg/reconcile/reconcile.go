// Package reconcile compares a snapshot's total against independently observed
// ground truth. A mismatch never blocks root computation; it is reported so an
// operator can hold back publication.
package reconcile

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/snapshot"
)

// ErrReconciliationMismatch is wrapped by MismatchError.
var ErrReconciliationMismatch = errors.New("snapshot total does not match ground truth")

// MismatchError carries both totals and their difference.
type MismatchError struct {
	SnapshotTotal *amount.Amount
	GroundTruth   *amount.Amount
	Delta         *big.Int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: snapshot=%s ground_truth=%s delta=%s",
		ErrReconciliationMismatch, e.SnapshotTotal, e.GroundTruth, e.Delta)
}

func (e *MismatchError) Unwrap() error {
	return ErrReconciliationMismatch
}

// Result is the verdict of a reconciliation.
type Result struct {
	Valid         bool           `json:"valid"`
	SnapshotTotal *amount.Amount `json:"snapshotTotal"`
	GroundTruth   *amount.Amount `json:"groundTruth"`
	// Delta is GroundTruth - SnapshotTotal; negative when the snapshot over-allocates.
	Delta *big.Int `json:"delta"`
}

// Reconcile checks snapshotTotal against groundTruth with exact equality.
func Reconcile(snapshotTotal, groundTruth *amount.Amount) *Result {
	delta := amount.Delta(snapshotTotal, groundTruth)
	return &Result{
		Valid:         delta.Sign() == 0,
		SnapshotTotal: snapshotTotal,
		GroundTruth:   groundTruth,
		Delta:         delta,
	}
}

// Err returns a *MismatchError when the result is invalid, nil otherwise.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	return &MismatchError{
		SnapshotTotal: r.SnapshotTotal,
		GroundTruth:   r.GroundTruth,
		Delta:         new(big.Int).Set(r.Delta),
	}
}

// SourceTotal is the ground truth observed on one ledger.
type SourceTotal struct {
	Source string         `json:"source"`
	Total  *amount.Amount `json:"total"`
}

// Report is the full verification summary for a snapshot.
type Report struct {
	Accounts int `json:"accounts"`
	// Sources is sorted by source name.
	Sources []SourceTotal `json:"sources"`

	CapFactor          *amount.Amount `json:"capFactor"`
	CapAdjustedTotal   *amount.Amount `json:"capAdjustedTotal"`
	CapDiscardedAmount *amount.Amount `json:"capDiscardedAmount"`

	*Result
}

// ReconcileSources sums the per-ledger ground truths, reconciles the snapshot
// against that sum and computes the cap-adjusted figures using capFactor.
func ReconcileSources(snap *snapshot.Snapshot, groundTruth map[string]*amount.Amount, capFactor *amount.Amount) (*Report, error) {
	if snap == nil {
		return nil, fmt.Errorf("cannot reconcile nil snapshot")
	}
	if len(groundTruth) == 0 {
		return nil, fmt.Errorf("no ground truth supplied")
	}

	sources := make([]SourceTotal, 0, len(groundTruth))
	for name, total := range groundTruth {
		if total == nil {
			return nil, fmt.Errorf("ground truth for %s is nil", name)
		}
		sources = append(sources, SourceTotal{Source: name, Total: total})
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Source < sources[j].Source
	})

	combined := amount.Zero()
	for _, s := range sources {
		combined = combined.Add(s.Total)
	}

	capTotal, discarded, err := snap.CapAdjustedTotal(capFactor)
	if err != nil {
		return nil, fmt.Errorf("failed to compute cap-adjusted total: %w", err)
	}

	return &Report{
		Accounts:           snap.Len(),
		Sources:            sources,
		CapFactor:          capFactor,
		CapAdjustedTotal:   capTotal,
		CapDiscardedAmount: discarded,
		Result:             Reconcile(snap.Total(), combined),
	}, nil
}
