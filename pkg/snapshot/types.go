package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/util"
)

// Source names used by the two ledgers.
const (
	SourceMainnet = "mainnet"
	SourceXDai    = "xdai"
)

// Record is a raw (address, decimal amount) pair as delivered by a data source.
type Record struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

// Account is one parsed balance entry.
type Account struct {
	Address common.Address
	Amount  *amount.Amount
}

type accountJSON struct {
	Address string         `json:"address"`
	Amount  *amount.Amount `json:"amount"`
}

// MarshalJSON writes the account as {"address": lowercase hex, "amount": decimal string}.
func (a Account) MarshalJSON() ([]byte, error) {
	if a.Amount == nil {
		return nil, fmt.Errorf("account %s has nil amount", a.Address.Hex())
	}
	return json.Marshal(accountJSON{
		Address: util.FormatAddress(a.Address),
		Amount:  a.Amount,
	})
}

// UnmarshalJSON parses an account, rejecting malformed addresses and amounts.
func (a *Account) UnmarshalJSON(data []byte) error {
	var raw Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	acct, err := parseRecord(raw)
	if err != nil {
		return err
	}
	*a = acct
	return nil
}

// MergeStats summarizes what a merge did, for reporting.
type MergeStats struct {
	SourceA      string `json:"sourceA"`
	SourceB      string `json:"sourceB"`
	SourceACount int    `json:"sourceACount"`
	SourceBCount int    `json:"sourceBCount"`

	// Updated counts addresses from B that were already present in A.
	Updated int `json:"updated"`
	// Added counts addresses from B that were new.
	Added int `json:"added"`
	// Excluded counts merged addresses removed by the exclusion list.
	Excluded int `json:"excluded"`
	// Accounts is the size of the resulting snapshot.
	Accounts int `json:"accounts"`
}

func parseRecord(r Record) (Account, error) {
	addr, err := util.ParseAddress(r.Address)
	if err != nil {
		return Account{}, err
	}
	amt, err := amount.Parse(r.Amount)
	if err != nil {
		return Account{}, err
	}
	return Account{Address: addr, Amount: amt}, nil
}
