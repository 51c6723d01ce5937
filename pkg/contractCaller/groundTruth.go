package contractCaller

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
)

// LedgerToken identifies the locked token on one ledger and the caller that reads it.
type LedgerToken struct {
	Name   string
	Token  common.Address
	Caller IContractCaller
}

// GroundTruth reads the locked supply of every ledger concurrently and
// returns it keyed by ledger name. Any single failure fails the whole read.
func GroundTruth(ctx context.Context, ledgers []LedgerToken, logger *zap.Logger) (map[string]*amount.Amount, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return readLedgers(ctx, ledgers, func(ctx context.Context, l LedgerToken) (*amount.Amount, error) {
		supply, err := l.Caller.LockedSupply(ctx, l.Token)
		if err != nil {
			return nil, err
		}
		logger.Sugar().Infow("Observed locked supply",
			"ledger", l.Name,
			"token", l.Token.Hex(),
			"lockedSupply", supply.String(),
		)
		return supply, nil
	})
}

// LockedBalances reads holder's lock on every ledger concurrently, keyed by
// ledger name.
func LockedBalances(ctx context.Context, ledgers []LedgerToken, holder common.Address, logger *zap.Logger) (map[string]*amount.Amount, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return readLedgers(ctx, ledgers, func(ctx context.Context, l LedgerToken) (*amount.Amount, error) {
		locked, err := l.Caller.LockOf(ctx, l.Token, holder)
		if err != nil {
			return nil, err
		}
		logger.Sugar().Debugw("Observed holder lock",
			"ledger", l.Name,
			"holder", holder.Hex(),
			"locked", locked.String(),
		)
		return locked, nil
	})
}

// validateLedgers rejects an empty list, missing callers and repeated names.
func validateLedgers(ledgers []LedgerToken) error {
	if len(ledgers) == 0 {
		return fmt.Errorf("no ledgers configured")
	}
	seen := make(map[string]bool, len(ledgers))
	for _, l := range ledgers {
		if l.Caller == nil {
			return fmt.Errorf("ledger %s has no contract caller", l.Name)
		}
		if seen[l.Name] {
			return fmt.Errorf("ledger %s configured twice", l.Name)
		}
		seen[l.Name] = true
	}
	return nil
}

func readLedgers(
	ctx context.Context,
	ledgers []LedgerToken,
	read func(ctx context.Context, l LedgerToken) (*amount.Amount, error),
) (map[string]*amount.Amount, error) {
	if err := validateLedgers(ledgers); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	values := make(map[string]*amount.Amount, len(ledgers))

	g, ctx := errgroup.WithContext(ctx)
	for _, l := range ledgers {
		g.Go(func() error {
			v, err := read(ctx, l)
			if err != nil {
				return fmt.Errorf("ledger %s: %w", l.Name, err)
			}
			mu.Lock()
			defer mu.Unlock()
			values[l.Name] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}
