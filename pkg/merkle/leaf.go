package merkle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
)

// LeafLength is the size of an encoded leaf: a 20 byte address followed by a
// 32 byte big-endian amount.
const LeafLength = common.AddressLength + 32

// EncodeLeaf packs an (address, amount) pair exactly like Solidity's
// abi.encodePacked(address, uint256). Amounts that do not fit in 256 bits are rejected.
func EncodeLeaf(addr common.Address, amt *amount.Amount) ([]byte, error) {
	if amt == nil {
		return nil, fmt.Errorf("cannot encode leaf for %s: nil amount", addr.Hex())
	}
	u, err := amt.ToUint256()
	if err != nil {
		return nil, fmt.Errorf("cannot encode leaf for %s: %w", addr.Hex(), err)
	}

	amountBytes := u.Bytes32()

	data := make([]byte, 0, LeafLength)
	data = append(data, addr.Bytes()...)
	data = append(data, amountBytes[:]...)
	return data, nil
}

// HashLeaf returns keccak256(EncodeLeaf(addr, amt)).
func HashLeaf(addr common.Address, amt *amount.Amount) ([32]byte, error) {
	data, err := EncodeLeaf(addr, amt)
	if err != nil {
		return [32]byte{}, err
	}
	return [32]byte(crypto.Keccak256Hash(data)), nil
}
