package snapshot

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Merge combines two datasets into a canonical snapshot.
//
// Accounts from a seed the result in a's order. Each account from b is either
// summed into the existing entry for its address or appended. Excluded
// addresses are then dropped, and the remainder is stably sorted by amount
// descending so equal amounts keep their merge order. The inputs are not modified.
func Merge(a, b *Dataset, exclusions *ExclusionList) (*Snapshot, *MergeStats, error) {
	if a == nil || b == nil {
		return nil, nil, fmt.Errorf("merge requires two datasets")
	}

	stats := &MergeStats{
		SourceA:      a.source,
		SourceB:      b.source,
		SourceACount: len(a.accounts),
		SourceBCount: len(b.accounts),
	}

	working := make([]Account, 0, len(a.accounts)+len(b.accounts))
	index := make(map[common.Address]int, len(a.accounts)+len(b.accounts))

	for _, acct := range a.accounts {
		index[acct.Address] = len(working)
		working = append(working, acct)
	}

	for _, acct := range b.accounts {
		if pos, ok := index[acct.Address]; ok {
			working[pos].Amount = working[pos].Amount.Add(acct.Amount)
			stats.Updated++
			continue
		}
		index[acct.Address] = len(working)
		working = append(working, acct)
		stats.Added++
	}

	kept := make([]Account, 0, len(working))
	for _, acct := range working {
		if exclusions.Contains(acct.Address) {
			stats.Excluded++
			continue
		}
		kept = append(kept, acct)
	}

	sortCanonical(kept)
	stats.Accounts = len(kept)

	return newSnapshot(kept), stats, nil
}

// MergeRecords parses both raw record sets and merges them.
func MergeRecords(sourceA string, a []Record, sourceB string, b []Record, exclusions *ExclusionList) (*Snapshot, *MergeStats, error) {
	da, err := NewDataset(sourceA, a)
	if err != nil {
		return nil, nil, err
	}
	db, err := NewDataset(sourceB, b)
	if err != nil {
		return nil, nil, err
	}
	return Merge(da, db, exclusions)
}

// sortCanonical orders accounts by amount descending, keeping ties in place.
func sortCanonical(accounts []Account) {
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].Amount.Cmp(accounts[j].Amount) > 0
	})
}
