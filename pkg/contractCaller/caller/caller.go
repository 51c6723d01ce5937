package caller

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/config"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/middleware-bindings/ILockedToken"
)

type ContractCaller struct {
	backend bind.ContractCaller
	client  *ethclient.Client
	logger  *zap.Logger
}

// NewContractCallerFromRPC dials rpcUrl and checks that the node serves the
// expected chain before returning a caller. Close releases the connection.
func NewContractCallerFromRPC(
	ctx context.Context,
	rpcUrl string,
	expectedChainId config.ChainId,
	logger *zap.Logger,
) (*ContractCaller, error) {
	client, err := ethclient.DialContext(ctx, rpcUrl)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial rpc %s", rpcUrl)
	}

	chainId, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to get chain ID")
	}
	if chainId.Uint64() != uint64(expectedChainId) {
		client.Close()
		return nil, fmt.Errorf("rpc %s serves chain %s, expected %d", rpcUrl, chainId, expectedChainId)
	}
	logger.Sugar().Infow("Connected to chain",
		"rpcUrl", rpcUrl,
		"chainId", chainId.Uint64(),
		"chainName", config.ChainIdToName[expectedChainId],
	)

	cc := NewContractCaller(client, logger)
	cc.client = client
	return cc, nil
}

// NewContractCaller wraps any contract backend, such as an ethclient or a
// simulated backend.
func NewContractCaller(backend bind.ContractCaller, logger *zap.Logger) *ContractCaller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractCaller{
		backend: backend,
		logger:  logger,
	}
}

func (cc *ContractCaller) LockedSupply(ctx context.Context, token common.Address) (*amount.Amount, error) {
	lockedToken, err := ILockedToken.NewILockedTokenCaller(token, cc.backend)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create locked token caller")
	}

	supply, err := lockedToken.LockedSupply(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get locked supply for token %s", token.Hex())
	}

	cc.logger.Sugar().Debugw("Read locked supply",
		"token", token.Hex(),
		"lockedSupply", supply.String(),
	)
	return toAmount(supply)
}

func (cc *ContractCaller) LockOf(ctx context.Context, token common.Address, holder common.Address) (*amount.Amount, error) {
	lockedToken, err := ILockedToken.NewILockedTokenCaller(token, cc.backend)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create locked token caller")
	}

	locked, err := lockedToken.LockOf(&bind.CallOpts{Context: ctx}, holder)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get lock of %s for token %s", holder.Hex(), token.Hex())
	}
	return toAmount(locked)
}

// Close closes the underlying RPC connection when the caller owns one.
func (cc *ContractCaller) Close() {
	if cc.client != nil {
		cc.client.Close()
	}
}

func toAmount(v *big.Int) (*amount.Amount, error) {
	a, err := amount.FromBig(v)
	if err != nil {
		return nil, errors.Wrap(err, "contract returned an invalid amount")
	}
	return a, nil
}
