package caller

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/contractCaller"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/middleware-bindings/ILockedToken"
)

var _ contractCaller.IContractCaller = (*ContractCaller)(nil)

// fakeBackend answers eth_call with ABI encoded uint256 results keyed by
// method name.
type fakeBackend struct {
	t       *testing.T
	results map[string]*big.Int
	err     error
	lastTo  common.Address
}

func (f *fakeBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (f *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	parsed, err := ILockedToken.ILockedTokenMetaData.GetAbi()
	require.NoError(f.t, err)

	f.lastTo = *call.To
	for name, method := range parsed.Methods {
		if bytes.HasPrefix(call.Data, method.ID) {
			v, ok := f.results[name]
			require.True(f.t, ok, "unexpected call to %s", name)
			return method.Outputs.Pack(v)
		}
	}
	f.t.Fatalf("unknown selector %x", call.Data[:4])
	return nil, nil
}

func TestContractCaller_LockedSupply(t *testing.T) {
	supply, ok := new(big.Int).SetString("123456789000000000000000000", 10)
	require.True(t, ok)

	backend := &fakeBackend{t: t, results: map[string]*big.Int{"lockedSupply": supply}}
	cc := NewContractCaller(backend, zaptest.NewLogger(t))

	token := common.HexToAddress("0x374CB8C27130E2c9E04F44303f3c8351B9De61C1")
	got, err := cc.LockedSupply(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "123456789000000000000000000", got.String())
	assert.Equal(t, token, backend.lastTo)
}

func TestContractCaller_LockOf(t *testing.T) {
	backend := &fakeBackend{t: t, results: map[string]*big.Int{"lockOf": big.NewInt(77)}}
	cc := NewContractCaller(backend, nil)

	got, err := cc.LockOf(context.Background(),
		common.HexToAddress("0xe0d0b1DBbCF3dd5CAc67edaf9243863Fd70745DA"),
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
	)
	require.NoError(t, err)
	assert.Equal(t, "77", got.String())
}

func TestContractCaller_CallError(t *testing.T) {
	backend := &fakeBackend{t: t, err: errors.New("connection refused")}
	cc := NewContractCaller(backend, nil)

	_, err := cc.LockedSupply(context.Background(), common.HexToAddress("0x374CB8C27130E2c9E04F44303f3c8351B9De61C1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get locked supply")
	assert.Contains(t, err.Error(), "connection refused")
}
