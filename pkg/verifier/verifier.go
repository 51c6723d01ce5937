// Package verifier checks published inclusion proofs without the snapshot, the
// tree, or any of the code that produced them. It deliberately shares nothing
// with the generator: hashing comes from golang.org/x/crypto/sha3 and all
// inputs are the hex strings of a proof document.
package verifier

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	addressLength = 20
	wordLength    = 32
)

var (
	// ErrInvalidDocument is wrapped by every proof document decoding failure.
	ErrInvalidDocument = errors.New("invalid proof document")

	// ErrLeafMismatch is returned when the document's leaf does not match its address and amount.
	ErrLeafMismatch = errors.New("leaf does not match address and amount")
)

// ProofDocument is the published proof for one address.
type ProofDocument struct {
	Address string   `json:"address,omitempty"`
	Amount  string   `json:"amount,omitempty"`
	Root    string   `json:"root"`
	Leaf    string   `json:"leaf"`
	Proof   []string `json:"proof"`
}

// Verify replays proof against root starting from leaf. Each step hashes the
// current value with the next sibling, smaller value first.
func Verify(leaf []byte, proof [][]byte, root []byte) bool {
	current := leaf
	for _, sibling := range proof {
		current = hashSorted(current, sibling)
	}
	return bytes.Equal(current, root)
}

// VerifyDocument decodes and verifies a proof document. When the document
// carries an address and amount, the leaf is recomputed from them first and
// must equal the stated leaf.
func VerifyDocument(doc ProofDocument) (bool, error) {
	root, err := decodeWord("root", doc.Root)
	if err != nil {
		return false, err
	}
	leaf, err := decodeWord("leaf", doc.Leaf)
	if err != nil {
		return false, err
	}
	proof := make([][]byte, len(doc.Proof))
	for i, p := range doc.Proof {
		proof[i], err = decodeWord(fmt.Sprintf("proof[%d]", i), p)
		if err != nil {
			return false, err
		}
	}

	if doc.Address != "" || doc.Amount != "" {
		expected, err := LeafHash(doc.Address, doc.Amount)
		if err != nil {
			return false, err
		}
		if !bytes.Equal(expected, leaf) {
			return false, fmt.Errorf("%w: expected 0x%x", ErrLeafMismatch, expected)
		}
	}

	return Verify(leaf, proof, root), nil
}

// LeafHash computes keccak256(address || uint256(amount)) from text inputs.
// The address may be in any letter case; amount is a base-10 integer.
func LeafHash(address, amountDecimal string) ([]byte, error) {
	addr, err := hex.DecodeString(strip0x(address))
	if err != nil || len(addr) != addressLength {
		return nil, fmt.Errorf("%w: address %q", ErrInvalidDocument, address)
	}

	n, ok := new(big.Int).SetString(amountDecimal, 10)
	if !ok || n.Sign() < 0 || n.BitLen() > 8*wordLength || strings.ContainsAny(amountDecimal, "+-") {
		return nil, fmt.Errorf("%w: amount %q", ErrInvalidDocument, amountDecimal)
	}

	packed := make([]byte, addressLength+wordLength)
	copy(packed, addr)
	n.FillBytes(packed[addressLength:])

	return keccak(packed), nil
}

func hashSorted(a, b []byte) []byte {
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}
	return keccak(a, b)
}

func keccak(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

func decodeWord(name, s string) ([]byte, error) {
	b, err := hex.DecodeString(strip0x(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not hex: %v", ErrInvalidDocument, name, err)
	}
	if len(b) != wordLength {
		return nil, fmt.Errorf("%w: %s must be %d bytes, got %d", ErrInvalidDocument, name, wordLength, len(b))
	}
	return b, nil
}

func strip0x(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}
