package contractCaller

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
)

// IContractCaller reads locked token balances from a single chain.
type IContractCaller interface {
	// LockedSupply returns the token's total locked supply at the latest block.
	LockedSupply(ctx context.Context, token common.Address) (*amount.Amount, error)

	// LockOf returns the amount locked for one holder.
	LockOf(ctx context.Context, token common.Address, holder common.Address) (*amount.Amount, error)
}
