package contractCaller

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
)

// MockContractCallerStub serves fixed locked supplies for testing.
type MockContractCallerStub struct {
	mu       sync.Mutex
	supplies map[common.Address]*amount.Amount
	locks    map[common.Address]map[common.Address]*amount.Amount
	err      error
	calls    int
}

// NewMockContractCallerStub creates a stub with no configured tokens.
func NewMockContractCallerStub() *MockContractCallerStub {
	return &MockContractCallerStub{
		supplies: make(map[common.Address]*amount.Amount),
		locks:    make(map[common.Address]map[common.Address]*amount.Amount),
	}
}

// SetLockedSupply configures the supply returned for token.
func (m *MockContractCallerStub) SetLockedSupply(token common.Address, supply *amount.Amount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supplies[token] = supply
}

// SetLockOf configures the locked amount returned for holder of token.
func (m *MockContractCallerStub) SetLockOf(token, holder common.Address, locked *amount.Amount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[token] == nil {
		m.locks[token] = make(map[common.Address]*amount.Amount)
	}
	m.locks[token][holder] = locked
}

// SetError makes every call fail with err.
func (m *MockContractCallerStub) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the number of calls made.
func (m *MockContractCallerStub) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockContractCallerStub) LockedSupply(ctx context.Context, token common.Address) (*amount.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	supply, ok := m.supplies[token]
	if !ok {
		return nil, fmt.Errorf("no locked supply configured for %s", token.Hex())
	}
	return supply, nil
}

func (m *MockContractCallerStub) LockOf(ctx context.Context, token common.Address, holder common.Address) (*amount.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if locked, ok := m.locks[token][holder]; ok {
		return locked, nil
	}
	return amount.Zero(), nil
}

var _ IContractCaller = (*MockContractCallerStub)(nil)
