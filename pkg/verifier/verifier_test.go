package verifier

import (
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/amount"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/merkle"
)

type fixture struct {
	addresses []common.Address
	amounts   []*amount.Amount
	tree      *merkle.MerkleTree
}

func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	f := &fixture{}
	leaves := make([][32]byte, n)
	for i := 0; i < n; i++ {
		addr := common.HexToAddress(fmt.Sprintf("0x%040x", 1000+i))
		amt := amount.FromUint64(uint64((n - i) * 1_000_000_000))
		leaf, err := merkle.HashLeaf(addr, amt)
		require.NoError(t, err)

		f.addresses = append(f.addresses, addr)
		f.amounts = append(f.amounts, amt)
		leaves[i] = leaf
	}
	tree, err := merkle.BuildMerkleTree(leaves)
	require.NoError(t, err)
	f.tree = tree
	return f
}

func (f *fixture) document(t *testing.T, i int) ProofDocument {
	t.Helper()
	proof, err := f.tree.GenerateProof(i)
	require.NoError(t, err)

	siblings := make([]string, len(proof.Proof))
	for j, s := range proof.Proof {
		siblings[j] = hexutil.Encode(s[:])
	}
	root := f.tree.Root()
	return ProofDocument{
		Address: f.addresses[i].Hex(),
		Amount:  f.amounts[i].String(),
		Root:    hexutil.Encode(root[:]),
		Leaf:    hexutil.Encode(proof.Leaf[:]),
		Proof:   siblings,
	}
}

func TestVerifyDocument_AgreesWithGenerator(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 16, 33} {
		f := newFixture(t, n)
		for i := 0; i < n; i++ {
			ok, err := VerifyDocument(f.document(t, i))
			require.NoError(t, err)
			require.True(t, ok, "n=%d i=%d", n, i)
		}
	}
}

func TestLeafHash_AgreesWithGenerator(t *testing.T) {
	addr := common.HexToAddress("0x374cb8c27130e2c9e04f44303f3c8351b9de61c1")
	amt := amount.MustParse("987654321987654321987654321")

	expected, err := merkle.HashLeaf(addr, amt)
	require.NoError(t, err)

	for _, form := range []string{addr.Hex(), "0x374cb8c27130e2c9e04f44303f3c8351b9de61c1", "374CB8C27130E2C9E04F44303F3C8351B9DE61C1"} {
		got, err := LeafHash(form, amt.String())
		require.NoError(t, err)
		assert.Equal(t, expected[:], got)
	}
}

func TestVerifyDocument_Tampering(t *testing.T) {
	f := newFixture(t, 7)

	t.Run("wrong amount", func(t *testing.T) {
		doc := f.document(t, 2)
		doc.Amount = "1"
		ok, err := VerifyDocument(doc)
		require.ErrorIs(t, err, ErrLeafMismatch)
		assert.False(t, ok)
	})

	t.Run("substituted leaf without address", func(t *testing.T) {
		doc := f.document(t, 2)
		other := f.document(t, 3)
		doc.Address, doc.Amount = "", ""
		doc.Leaf = other.Leaf
		ok, err := VerifyDocument(doc)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("flipped sibling byte", func(t *testing.T) {
		doc := f.document(t, 0)
		b := []byte(doc.Proof[0])
		if b[5] == 'a' {
			b[5] = 'b'
		} else {
			b[5] = 'a'
		}
		doc.Proof[0] = string(b)
		ok, err := VerifyDocument(doc)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("wrong root", func(t *testing.T) {
		doc := f.document(t, 0)
		doc.Root = f.document(t, 1).Leaf
		ok, err := VerifyDocument(doc)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestVerifyDocument_Malformed(t *testing.T) {
	f := newFixture(t, 3)

	testCases := []struct {
		name   string
		mutate func(*ProofDocument)
	}{
		{"root not hex", func(d *ProofDocument) { d.Root = "0xzz" }},
		{"short leaf", func(d *ProofDocument) { d.Leaf = "0x1234" }},
		{"short sibling", func(d *ProofDocument) { d.Proof = append(d.Proof, "0x00") }},
		{"bad address", func(d *ProofDocument) { d.Address = "0x1234" }},
		{"negative amount", func(d *ProofDocument) { d.Amount = "-1" }},
		{"plus amount", func(d *ProofDocument) { d.Amount = "+1" }},
		{"amount too large", func(d *ProofDocument) {
			d.Amount = "115792089237316195423570985008687907853269984665640564039457584007913129639936"
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := f.document(t, 0)
			tc.mutate(&doc)
			ok, err := VerifyDocument(doc)
			require.ErrorIs(t, err, ErrInvalidDocument)
			assert.False(t, ok)
		})
	}
}

func TestVerify_SingleLeafEmptyProof(t *testing.T) {
	f := newFixture(t, 1)
	doc := f.document(t, 0)
	require.Empty(t, doc.Proof)
	require.Equal(t, doc.Root, doc.Leaf)

	ok, err := VerifyDocument(doc)
	require.NoError(t, err)
	assert.True(t, ok)
}
