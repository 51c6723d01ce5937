package merkle

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyTree is returned when building a tree from zero leaves.
	ErrEmptyTree = errors.New("cannot build merkle tree from empty leaf list")

	// ErrLeafNotFound is returned when a proof is requested for a digest that is not a leaf.
	ErrLeafNotFound = errors.New("leaf not found in merkle tree")
)

// BuildMerkleTree creates a binary merkle tree from leaf digests.
// Leaves are used in the order given, which should be the canonical snapshot order.
//
// Each parent is keccak256(min(a, b) || max(a, b)). If there's an odd number of
// nodes at any level, the last node is promoted unchanged to the next level.
func BuildMerkleTree(leaves [][32]byte) (*MerkleTree, error) {
	return buildMerkleTree(leaves, buildLevel)
}

// BuildMerkleTreeParallel is BuildMerkleTree with each level's pair hashing
// spread across up to workers goroutines. The result is identical to
// BuildMerkleTree for the same input.
func BuildMerkleTreeParallel(leaves [][32]byte, workers int) (*MerkleTree, error) {
	if workers < 2 {
		return BuildMerkleTree(leaves)
	}
	return buildMerkleTree(leaves, func(level [][32]byte) [][32]byte {
		return buildLevelParallel(level, workers)
	})
}

func buildMerkleTree(leaves [][32]byte, next func([][32]byte) [][32]byte) (*MerkleTree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}

	// Copy leaves so the caller can't mutate the tree
	level := make([][32]byte, len(leaves))
	copy(level, leaves)

	levels := [][][32]byte{level}
	for len(level) > 1 {
		level = next(level)
		levels = append(levels, level)
	}

	return &MerkleTree{
		root:   level[0],
		levels: levels,
	}, nil
}

// buildLevel hashes adjacent pairs of a level into the next level.
func buildLevel(level [][32]byte) [][32]byte {
	next := make([][32]byte, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		if i+1 < len(level) {
			next[i/2] = hashPair(level[i], level[i+1])
		} else {
			// Odd node out is promoted as-is, never paired with itself
			next[i/2] = level[i]
		}
	}
	return next
}

func buildLevelParallel(level [][32]byte, workers int) [][32]byte {
	next := make([][32]byte, (len(level)+1)/2)

	chunk := (len(next) + workers - 1) / workers
	if chunk < 1 {
		chunk = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < len(next); start += chunk {
		end := min(start+chunk, len(next))
		g.Go(func() error {
			for p := start; p < end; p++ {
				i := 2 * p
				if i+1 < len(level) {
					next[p] = hashPair(level[i], level[i+1])
				} else {
					next[p] = level[i]
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	return next
}

// Root returns the merkle root.
func (mt *MerkleTree) Root() [32]byte {
	return mt.root
}

// Leaves returns a copy of the leaf digests in tree order.
func (mt *MerkleTree) Leaves() [][32]byte {
	out := make([][32]byte, len(mt.levels[0]))
	copy(out, mt.levels[0])
	return out
}

// LeafCount returns the number of leaves.
func (mt *MerkleTree) LeafCount() int {
	return len(mt.levels[0])
}

// Depth returns the number of hashing levels above the leaves.
func (mt *MerkleTree) Depth() int {
	return len(mt.levels) - 1
}

// GenerateProof creates a merkle proof for the leaf at the given index.
// The proof consists of sibling hashes along the path from leaf to root.
func (mt *MerkleTree) GenerateProof(leafIndex int) (*MerkleProof, error) {
	if leafIndex < 0 || leafIndex >= mt.LeafCount() {
		return nil, fmt.Errorf("leaf index %d out of bounds (tree has %d leaves)", leafIndex, mt.LeafCount())
	}

	proof := make([][32]byte, 0, mt.Depth())
	index := leafIndex

	// Traverse from leaf to root, collecting sibling hashes
	for level := 0; level < len(mt.levels)-1; level++ {
		currentLevel := mt.levels[level]

		siblingIndex := index + 1
		if index%2 == 1 {
			siblingIndex = index - 1
		}

		// Promoted node has no sibling at this level
		if siblingIndex < len(currentLevel) {
			proof = append(proof, currentLevel[siblingIndex])
		}

		index = index / 2
	}

	return &MerkleProof{
		LeafIndex: leafIndex,
		Leaf:      mt.levels[0][leafIndex],
		Proof:     proof,
	}, nil
}

// GenerateProofForLeaf creates a merkle proof for the given leaf digest.
func (mt *MerkleTree) GenerateProofForLeaf(leaf [32]byte) (*MerkleProof, error) {
	for i, l := range mt.levels[0] {
		if l == leaf {
			return mt.GenerateProof(i)
		}
	}
	return nil, fmt.Errorf("%w: 0x%x", ErrLeafNotFound, leaf)
}

// VerifyProof verifies that a leaf is included in the merkle tree with the given root.
func VerifyProof(proof *MerkleProof, root [32]byte) bool {
	if proof == nil {
		return false
	}
	return Verify(proof.Leaf, proof.Proof, root)
}

// Verify folds the sibling path into the leaf using sorted-pair hashing and
// compares the result with root. It needs nothing but the three arguments.
func Verify(leaf [32]byte, proof [][32]byte, root [32]byte) bool {
	current := leaf
	for _, sibling := range proof {
		current = hashPair(current, sibling)
	}
	return current == root
}

// hashPair computes keccak256(min(a, b) || max(a, b)) with byte-wise ordering.
func hashPair(a, b [32]byte) [32]byte {
	data := make([]byte, 64)
	if bytes.Compare(a[:], b[:]) <= 0 {
		copy(data[0:32], a[:])
		copy(data[32:64], b[:])
	} else {
		copy(data[0:32], b[:])
		copy(data[32:64], a[:])
	}

	return [32]byte(crypto.Keccak256Hash(data))
}
