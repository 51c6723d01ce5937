package distribution

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Layr-Labs/merkle-distribution-go/pkg/merkle"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/snapshot"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/util"
	"github.com/Layr-Labs/merkle-distribution-go/pkg/verifier"
)

// HashLeaves hashes every account of snap in canonical order.
func HashLeaves(snap *snapshot.Snapshot) ([][32]byte, error) {
	leaves := make([][32]byte, snap.Len())
	for i := 0; i < snap.Len(); i++ {
		acct := snap.At(i)
		leaf, err := merkle.HashLeaf(acct.Address, acct.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to hash entry %d: %w", i, err)
		}
		leaves[i] = leaf
	}
	return leaves, nil
}

// BuildMerkleTreeFromSnapshot commits to snap. workers above one spread the
// pair hashing of each level across goroutines; the root is the same either way.
func BuildMerkleTreeFromSnapshot(snap *snapshot.Snapshot, workers int) (*merkle.MerkleTree, error) {
	if snap == nil {
		return nil, fmt.Errorf("cannot build tree from nil snapshot")
	}
	leaves, err := HashLeaves(snap)
	if err != nil {
		return nil, err
	}
	return merkle.BuildMerkleTreeParallel(leaves, workers)
}

// Distribution pairs a canonical snapshot with its merkle tree.
type Distribution struct {
	snapshot *snapshot.Snapshot
	tree     *merkle.MerkleTree
}

// NewDistribution builds the merkle tree for snap.
func NewDistribution(snap *snapshot.Snapshot, workers int) (*Distribution, error) {
	tree, err := BuildMerkleTreeFromSnapshot(snap, workers)
	if err != nil {
		return nil, err
	}
	return &Distribution{snapshot: snap, tree: tree}, nil
}

func (d *Distribution) Snapshot() *snapshot.Snapshot {
	return d.snapshot
}

func (d *Distribution) Tree() *merkle.MerkleTree {
	return d.tree
}

// Root returns the 0x-prefixed hex root.
func (d *Distribution) Root() string {
	root := d.tree.Root()
	return hexutil.Encode(root[:])
}

// DefaultProofAddress is the account proven when none is requested: the
// second largest holder, or the only one in a single-entry snapshot.
func (d *Distribution) DefaultProofAddress() string {
	i := 1
	if d.snapshot.Len() < 2 {
		i = 0
	}
	return util.FormatAddress(d.snapshot.At(i).Address)
}

// ProofDocument looks up address (any letter case) and returns its published proof.
func (d *Distribution) ProofDocument(address string) (*verifier.ProofDocument, error) {
	acct, i, err := d.snapshot.Lookup(address)
	if err != nil {
		return nil, err
	}
	proof, err := d.tree.GenerateProof(i)
	if err != nil {
		return nil, err
	}

	siblings := make([]string, len(proof.Proof))
	for j, s := range proof.Proof {
		siblings[j] = hexutil.Encode(s[:])
	}

	return &verifier.ProofDocument{
		Address: util.FormatAddress(acct.Address),
		Amount:  acct.Amount.String(),
		Root:    d.Root(),
		Leaf:    hexutil.Encode(proof.Leaf[:]),
		Proof:   siblings,
	}, nil
}
