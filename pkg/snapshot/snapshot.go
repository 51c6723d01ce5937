// Package snapshot merges per-ledger balance datasets into the canonical,
// deduplicated and deterministically ordered allocation table that the merkle
// commitment is built over.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/util"
)

// Snapshot is an immutable canonical allocation table: unique addresses,
// sorted by amount descending.
type Snapshot struct {
	accounts []Account
	index    map[common.Address]int
}

func newSnapshot(accounts []Account) *Snapshot {
	index := make(map[common.Address]int, len(accounts))
	for i, acct := range accounts {
		index[acct.Address] = i
	}
	return &Snapshot{accounts: accounts, index: index}
}

// New validates accounts as a canonical snapshot: non-nil amounts, unique
// addresses and non-increasing amounts. The slice is copied.
func New(accounts []Account) (*Snapshot, error) {
	out := make([]Account, len(accounts))
	copy(out, accounts)

	s := newSnapshot(out)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate re-checks the canonical snapshot invariants.
func (s *Snapshot) Validate() error {
	seen := make(map[common.Address]int, len(s.accounts))
	for i, acct := range s.accounts {
		if acct.Amount == nil {
			return &RecordError{Source: "snapshot", Index: i, Address: util.FormatAddress(acct.Address), Err: fmt.Errorf("nil amount")}
		}
		if first, ok := seen[acct.Address]; ok {
			return &DuplicateAddressError{
				Source:     "snapshot",
				Address:    util.FormatAddress(acct.Address),
				FirstIndex: first,
				Index:      i,
			}
		}
		seen[acct.Address] = i

		if i > 0 && s.accounts[i-1].Amount.Cmp(acct.Amount) < 0 {
			return fmt.Errorf("%w: entry %d (%s) is larger than entry %d", ErrNotCanonical, i, acct.Amount, i-1)
		}
	}
	return nil
}

// Len returns the number of accounts.
func (s *Snapshot) Len() int {
	return len(s.accounts)
}

// At returns the account at position i in canonical order.
func (s *Snapshot) At(i int) Account {
	return s.accounts[i]
}

// Accounts returns a copy of the accounts in canonical order.
func (s *Snapshot) Accounts() []Account {
	out := make([]Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Lookup finds an account by its textual address, ignoring letter case.
// It returns the account and its canonical position.
func (s *Snapshot) Lookup(address string) (Account, int, error) {
	addr, err := util.ParseAddress(strings.ToLower(strings.TrimSpace(address)))
	if err != nil {
		return Account{}, -1, err
	}
	acct, i, ok := s.LookupAddress(addr)
	if !ok {
		return Account{}, -1, &AddressNotFoundError{Address: address}
	}
	return acct, i, nil
}

// LookupAddress finds an account by address bytes.
func (s *Snapshot) LookupAddress(addr common.Address) (Account, int, bool) {
	i, ok := s.index[addr]
	if !ok {
		return Account{}, -1, false
	}
	return s.accounts[i], i, true
}

// Total returns the sum of all amounts.
func (s *Snapshot) Total() *amount.Amount {
	total := amount.Zero()
	for _, acct := range s.accounts {
		total = total.Add(acct.Amount)
	}
	return total
}

// CapAdjustedTotal divides every amount by factor, truncating each one toward
// zero, and sums the quotients. The per-account remainders thrown away by the
// truncation are summed into discarded so the loss is visible to the caller.
func (s *Snapshot) CapAdjustedTotal(factor *amount.Amount) (total *amount.Amount, discarded *amount.Amount, err error) {
	if factor == nil || factor.IsZero() {
		return nil, nil, amount.ErrZeroFactor
	}
	total = amount.Zero()
	discarded = amount.Zero()
	for _, acct := range s.accounts {
		q, r, err := acct.Amount.ScaleDown(factor)
		if err != nil {
			return nil, nil, err
		}
		total = total.Add(q)
		discarded = discarded.Add(r)
	}
	return total, discarded, nil
}

// MarshalJSON writes the snapshot as an ordered array of {address, amount}.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.accounts)
}

// UnmarshalJSON reads an array of {address, amount} and validates it.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var accounts []Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if accounts == nil {
		return ErrNotArray
	}
	loaded, err := New(accounts)
	if err != nil {
		return err
	}
	*s = *loaded
	return nil
}

// Encode renders the snapshot file format: a two-space indented JSON array.
// Identical snapshots always encode to identical bytes.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.MarshalIndent(s.accounts, "", "  ")
}

// Decode parses and validates a snapshot file.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot decode empty snapshot data")
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, ErrNotArray
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
