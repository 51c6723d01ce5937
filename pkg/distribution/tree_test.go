package distribution

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/snapshot"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/verifier"
)

func testSnapshot(t *testing.T, n int) *snapshot.Snapshot {
	t.Helper()
	records := make([]snapshot.Record, n)
	for i := range records {
		records[i] = snapshot.Record{
			Address: fmt.Sprintf("0x%040x", 0xabc0+i),
			Amount:  fmt.Sprintf("%d", (n-i)*1000000000000000),
		}
	}
	snap, _, err := snapshot.MergeRecords(snapshot.SourceMainnet, records, snapshot.SourceXDai, nil, nil)
	require.NoError(t, err)
	return snap
}

func TestBuildMerkleTreeFromSnapshot_MatchesLeaves(t *testing.T) {
	snap := testSnapshot(t, 7)

	leaves, err := HashLeaves(snap)
	require.NoError(t, err)
	require.Len(t, leaves, 7)

	for i, leaf := range leaves {
		acct := snap.At(i)
		expected, err := merkle.HashLeaf(acct.Address, acct.Amount)
		require.NoError(t, err)
		assert.Equal(t, expected, leaf)
	}

	sequential, err := BuildMerkleTreeFromSnapshot(snap, 1)
	require.NoError(t, err)
	parallel, err := BuildMerkleTreeFromSnapshot(snap, 4)
	require.NoError(t, err)
	assert.Equal(t, sequential.Root(), parallel.Root())
}

func TestBuildMerkleTreeFromSnapshot_Empty(t *testing.T) {
	snap := testSnapshot(t, 0)
	_, err := BuildMerkleTreeFromSnapshot(snap, 1)
	require.ErrorIs(t, err, merkle.ErrEmptyTree)

	_, err = BuildMerkleTreeFromSnapshot(nil, 1)
	require.Error(t, err)
}

func TestDistribution_ProofDocumentVerifies(t *testing.T) {
	snap := testSnapshot(t, 9)
	dist, err := NewDistribution(snap, 2)
	require.NoError(t, err)

	for i := 0; i < snap.Len(); i++ {
		addr := fmt.Sprintf("0x%040x", 0xabc0+i)
		doc, err := dist.ProofDocument(addr)
		require.NoError(t, err)

		assert.Equal(t, addr, doc.Address)
		assert.Equal(t, dist.Root(), doc.Root)

		ok, err := verifier.VerifyDocument(*doc)
		require.NoError(t, err)
		assert.True(t, ok, "proof for %s", addr)
	}
}

func TestDistribution_ProofDocumentLookup(t *testing.T) {
	snap := testSnapshot(t, 3)
	dist, err := NewDistribution(snap, 1)
	require.NoError(t, err)

	upper := "0x" + strings.ToUpper(fmt.Sprintf("%040x", 0xabc1))
	doc, err := dist.ProofDocument(upper)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("0x%040x", 0xabc1), doc.Address)

	_, err = dist.ProofDocument("0x9999999999999999999999999999999999999999")
	require.ErrorIs(t, err, snapshot.ErrAddressNotFound)
}

func TestDistribution_DefaultProofAddress(t *testing.T) {
	dist, err := NewDistribution(testSnapshot(t, 3), 1)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("0x%040x", 0xabc1), dist.DefaultProofAddress())

	single, err := NewDistribution(testSnapshot(t, 1), 1)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("0x%040x", 0xabc0), single.DefaultProofAddress())

	// Single leaf tree: the root is the leaf and the proof is empty
	doc, err := single.ProofDocument(single.DefaultProofAddress())
	require.NoError(t, err)
	assert.Empty(t, doc.Proof)
	assert.Equal(t, doc.Leaf, doc.Root)
}

func TestDistribution_RootIndependentOfInputOrder(t *testing.T) {
	// Addresses 17..20 hold on both ledgers; every merged amount is distinct
	mainnet := make([]snapshot.Record, 20)
	for i := range mainnet {
		mainnet[i] = snapshot.Record{Address: fmt.Sprintf("0x%040x", i+1), Amount: fmt.Sprintf("%d", (i+1)*1000)}
	}
	xdai := make([]snapshot.Record, 8)
	for i := range xdai {
		xdai[i] = snapshot.Record{Address: fmt.Sprintf("0x%040x", i+17), Amount: fmt.Sprintf("%d", i+1)}
	}

	rootOf := func(a, b []snapshot.Record) string {
		snap, _, err := snapshot.MergeRecords(snapshot.SourceMainnet, a, snapshot.SourceXDai, b, nil)
		require.NoError(t, err)
		require.Equal(t, 24, snap.Len())
		dist, err := NewDistribution(snap, 2)
		require.NoError(t, err)
		return dist.Root()
	}
	expected := rootOf(mainnet, xdai)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		a := append([]snapshot.Record(nil), mainnet...)
		b := append([]snapshot.Record(nil), xdai...)
		rng.Shuffle(len(a), func(x, y int) { a[x], a[y] = a[y], a[x] })
		rng.Shuffle(len(b), func(x, y int) { b[x], b[y] = b[y], b[x] })

		assert.Equal(t, expected, rootOf(a, b), "shuffle %d", i)
		assert.Equal(t, expected, rootOf(b, a), "shuffle %d with sources swapped", i)
	}
}

func TestDistribution_TiesKeepMergeInsertionOrder(t *testing.T) {
	addr := func(n int) string { return fmt.Sprintf("0x%040x", n) }

	build := func(a []snapshot.Record) (*snapshot.Snapshot, string) {
		snap, _, err := snapshot.MergeRecords(
			snapshot.SourceMainnet, a,
			snapshot.SourceXDai, []snapshot.Record{{Address: addr(2), Amount: "5"}, {Address: addr(4), Amount: "9"}},
			nil,
		)
		require.NoError(t, err)
		dist, err := NewDistribution(snap, 1)
		require.NoError(t, err)
		return snap, dist.Root()
	}

	snap, root := build([]snapshot.Record{{Address: addr(3), Amount: "5"}, {Address: addr(1), Amount: "5"}})
	order := make([]string, snap.Len())
	for i := range order {
		order[i] = snap.At(i).Address.Hex()
	}
	assert.Equal(t, []string{
		common.HexToAddress(addr(4)).Hex(),
		common.HexToAddress(addr(3)).Hex(),
		common.HexToAddress(addr(1)).Hex(),
		common.HexToAddress(addr(2)).Hex(),
	}, order)

	// Reordering tied entries in the input reorders the leaves and so the root
	_, swapped := build([]snapshot.Record{{Address: addr(1), Amount: "5"}, {Address: addr(3), Amount: "5"}})
	assert.NotEqual(t, root, swapped)
}
