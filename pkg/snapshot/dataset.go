package snapshot

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/util"
)

// Dataset is the parsed, address-unique balance table of one source, in the
// order the source delivered it.
type Dataset struct {
	source   string
	accounts []Account
}

// NewDataset parses raw records from source. Every record is validated; the
// first malformed record aborts with a *RecordError naming it, and a repeated
// address aborts with a *DuplicateAddressError.
func NewDataset(source string, records []Record) (*Dataset, error) {
	accounts := make([]Account, 0, len(records))
	for i, r := range records {
		acct, err := parseRecord(r)
		if err != nil {
			return nil, &RecordError{Source: source, Index: i, Address: r.Address, Err: err}
		}
		accounts = append(accounts, acct)
	}
	return NewDatasetFromAccounts(source, accounts)
}

// NewDatasetFromAccounts builds a dataset from already parsed accounts.
func NewDatasetFromAccounts(source string, accounts []Account) (*Dataset, error) {
	seen := make(map[common.Address]int, len(accounts))
	out := make([]Account, len(accounts))
	for i, acct := range accounts {
		if acct.Amount == nil {
			return nil, &RecordError{Source: source, Index: i, Address: util.FormatAddress(acct.Address), Err: fmt.Errorf("nil amount")}
		}
		if first, ok := seen[acct.Address]; ok {
			return nil, &DuplicateAddressError{
				Source:     source,
				Address:    util.FormatAddress(acct.Address),
				FirstIndex: first,
				Index:      i,
			}
		}
		seen[acct.Address] = i
		out[i] = acct
	}
	return &Dataset{source: source, accounts: out}, nil
}

// Source returns the dataset's source name.
func (d *Dataset) Source() string {
	return d.source
}

// Len returns the number of accounts.
func (d *Dataset) Len() int {
	return len(d.accounts)
}

// Accounts returns a copy of the accounts in source order.
func (d *Dataset) Accounts() []Account {
	out := make([]Account, len(d.accounts))
	copy(out, d.accounts)
	return out
}
