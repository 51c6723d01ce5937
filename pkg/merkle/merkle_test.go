package merkle

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// createTestLeaves creates n random leaf digests
func createTestLeaves(n int) [][32]byte {
	leaves := make([][32]byte, n)
	for i := range leaves {
		leaves[i] = randomHash()
	}
	return leaves
}

// randomHash generates a random 32-byte hash for testing
func randomHash() [32]byte {
	var hash [32]byte
	_, _ = rand.Read(hash[:]) // Ignore error in test helper
	return hash
}

// sortedConcatHash is an independent rendition of the pair rule for assertions
func sortedConcatHash(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return [32]byte(crypto.Keccak256Hash(a[:], b[:]))
}

// TestBuildMerkleTree tests merkle tree construction with various numbers of leaves
func TestBuildMerkleTree(t *testing.T) {
	testCases := []struct {
		name      string
		numLeaves int
	}{
		{"Single leaf", 1},
		{"Two leaves", 2},
		{"Three leaves", 3},
		{"Four leaves (power of 2)", 4},
		{"Five leaves", 5},
		{"Seven leaves", 7},
		{"Eight leaves (power of 2)", 8},
		{"Fifteen leaves", 15},
		{"Sixteen leaves (power of 2)", 16},
		{"Seventeen leaves", 17},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			leaves := createTestLeaves(tc.numLeaves)
			tree, err := BuildMerkleTree(leaves)
			require.NoError(t, err)
			require.NotNil(t, tree)

			require.Equal(t, tc.numLeaves, tree.LeafCount())
			require.Equal(t, leaves, tree.Leaves())

			// Generate and verify proofs for all leaves
			for i := 0; i < tc.numLeaves; i++ {
				proof, err := tree.GenerateProof(i)
				require.NoError(t, err)
				require.Equal(t, i, proof.LeafIndex)
				require.Equal(t, leaves[i], proof.Leaf)

				require.True(t, VerifyProof(proof, tree.Root()), "Proof for leaf %d should be valid", i)
			}
		})
	}
}

// TestBuildMerkleTreeEmpty tests that building a tree from no leaves fails
func TestBuildMerkleTreeEmpty(t *testing.T) {
	tree, err := BuildMerkleTree(nil)
	require.ErrorIs(t, err, ErrEmptyTree)
	require.Nil(t, tree)

	tree, err = BuildMerkleTreeParallel([][32]byte{}, 4)
	require.ErrorIs(t, err, ErrEmptyTree)
	require.Nil(t, tree)
}

// TestSingleLeafTree checks that one leaf is its own root with an empty proof
func TestSingleLeafTree(t *testing.T) {
	leaf := randomHash()
	tree, err := BuildMerkleTree([][32]byte{leaf})
	require.NoError(t, err)

	require.Equal(t, leaf, tree.Root())
	require.Equal(t, 0, tree.Depth())

	proof, err := tree.GenerateProof(0)
	require.NoError(t, err)
	require.Empty(t, proof.Proof)
	require.True(t, VerifyProof(proof, tree.Root()))
}

// TestOddLeafPromotion checks the exact shape of a three leaf tree
func TestOddLeafPromotion(t *testing.T) {
	l1, l2, l3 := randomHash(), randomHash(), randomHash()
	tree, err := BuildMerkleTree([][32]byte{l1, l2, l3})
	require.NoError(t, err)

	h12 := sortedConcatHash(l1, l2)
	require.Equal(t, sortedConcatHash(h12, l3), tree.Root())
	require.NotEqual(t, sortedConcatHash(h12, sortedConcatHash(l3, l3)), tree.Root(),
		"the odd leaf must not be paired with itself")

	// L3 skips level 0 and pairs with h12 at level 1
	proof, err := tree.GenerateProof(2)
	require.NoError(t, err)
	require.Equal(t, [][32]byte{h12}, proof.Proof)

	proof, err = tree.GenerateProof(0)
	require.NoError(t, err)
	require.Equal(t, [][32]byte{l2, l3}, proof.Proof)
}

// TestPromotionAcrossLevels covers a node promoted more than once (5 leaves)
func TestPromotionAcrossLevels(t *testing.T) {
	leaves := createTestLeaves(5)
	tree, err := BuildMerkleTree(leaves)
	require.NoError(t, err)

	h01 := sortedConcatHash(leaves[0], leaves[1])
	h23 := sortedConcatHash(leaves[2], leaves[3])
	expected := sortedConcatHash(sortedConcatHash(h01, h23), leaves[4])
	require.Equal(t, expected, tree.Root())

	proof, err := tree.GenerateProof(4)
	require.NoError(t, err)
	require.Equal(t, [][32]byte{sortedConcatHash(h01, h23)}, proof.Proof)
	require.True(t, VerifyProof(proof, tree.Root()))
}

// TestHashPairIsOrderIndependent checks the sorted pair rule
func TestHashPairIsOrderIndependent(t *testing.T) {
	a, b := randomHash(), randomHash()
	require.Equal(t, hashPair(a, b), hashPair(b, a))
	require.Equal(t, sortedConcatHash(a, b), hashPair(a, b))
}

// TestMerkleProofVerification tests proof verification with valid and invalid cases
func TestMerkleProofVerification(t *testing.T) {
	leaves := createTestLeaves(4)
	tree, err := BuildMerkleTree(leaves)
	require.NoError(t, err)

	t.Run("Valid proof", func(t *testing.T) {
		proof, err := tree.GenerateProof(0)
		require.NoError(t, err)
		require.True(t, VerifyProof(proof, tree.Root()))
	})

	t.Run("Invalid proof - wrong root", func(t *testing.T) {
		proof, err := tree.GenerateProof(0)
		require.NoError(t, err)

		invalidRoot := [32]byte{1, 2, 3, 4, 5}
		require.False(t, VerifyProof(proof, invalidRoot))
	})

	t.Run("Invalid proof - tampered leaf", func(t *testing.T) {
		proof, err := tree.GenerateProof(0)
		require.NoError(t, err)

		proof.Leaf[0] ^= 0xFF
		require.False(t, VerifyProof(proof, tree.Root()))
	})

	t.Run("Invalid proof - substituted leaf", func(t *testing.T) {
		proof, err := tree.GenerateProof(0)
		require.NoError(t, err)

		proof.Leaf = leaves[3]
		require.False(t, VerifyProof(proof, tree.Root()))
	})

	t.Run("Invalid proof - every single byte flip", func(t *testing.T) {
		proof, err := tree.GenerateProof(1)
		require.NoError(t, err)

		for s := range proof.Proof {
			for b := 0; b < 32; b++ {
				tampered := make([][32]byte, len(proof.Proof))
				copy(tampered, proof.Proof)
				tampered[s][b] ^= 0x01
				require.False(t, Verify(proof.Leaf, tampered, tree.Root()), "sibling %d byte %d", s, b)
			}
		}
	})

	t.Run("Invalid proof - truncated", func(t *testing.T) {
		proof, err := tree.GenerateProof(0)
		require.NoError(t, err)
		require.False(t, Verify(proof.Leaf, proof.Proof[:1], tree.Root()))
	})

	t.Run("Invalid proof - nil proof", func(t *testing.T) {
		require.False(t, VerifyProof(nil, tree.Root()))
	})
}

// TestGenerateProofInvalidIndex tests proof generation with invalid indices
func TestGenerateProofInvalidIndex(t *testing.T) {
	tree, err := BuildMerkleTree(createTestLeaves(4))
	require.NoError(t, err)

	t.Run("Negative index", func(t *testing.T) {
		proof, err := tree.GenerateProof(-1)
		require.Error(t, err)
		require.Nil(t, proof)
	})

	t.Run("Index out of bounds", func(t *testing.T) {
		proof, err := tree.GenerateProof(10)
		require.Error(t, err)
		require.Nil(t, proof)
	})
}

func TestGenerateProofForLeaf(t *testing.T) {
	leaves := createTestLeaves(6)
	tree, err := BuildMerkleTree(leaves)
	require.NoError(t, err)

	proof, err := tree.GenerateProofForLeaf(leaves[3])
	require.NoError(t, err)
	require.Equal(t, 3, proof.LeafIndex)
	require.True(t, VerifyProof(proof, tree.Root()))

	_, err = tree.GenerateProofForLeaf(randomHash())
	require.ErrorIs(t, err, ErrLeafNotFound)
}

// TestMerkleTreeDoesNotAliasInput verifies the tree copies its leaves
func TestMerkleTreeDoesNotAliasInput(t *testing.T) {
	leaves := createTestLeaves(4)
	tree, err := BuildMerkleTree(leaves)
	require.NoError(t, err)
	root := tree.Root()

	leaves[0][0] ^= 0xFF
	require.Equal(t, root, tree.Root())

	out := tree.Leaves()
	out[1][0] ^= 0xFF
	proof, err := tree.GenerateProof(1)
	require.NoError(t, err)
	require.True(t, VerifyProof(proof, root))
}

// TestMerkleTreeLargeSet tests with a larger number of leaves
func TestMerkleTreeLargeSet(t *testing.T) {
	sizes := []int{50, 100, 201}

	for _, size := range sizes {
		t.Run(fmt.Sprintf("Size_%d", size), func(t *testing.T) {
			tree, err := BuildMerkleTree(createTestLeaves(size))
			require.NoError(t, err)
			require.Equal(t, size, tree.LeafCount())

			testIndices := []int{0, size / 4, size / 2, size - 1}
			for _, idx := range testIndices {
				proof, err := tree.GenerateProof(idx)
				require.NoError(t, err)
				require.True(t, VerifyProof(proof, tree.Root()))
			}
		})
	}
}

// TestMerkleProofLength tests that proof length is logarithmic
func TestMerkleProofLength(t *testing.T) {
	testCases := []struct {
		numLeaves     int
		maxProofDepth int
	}{
		{1, 0},
		{2, 1},
		{3, 2},
		{4, 2},
		{8, 3},
		{16, 4},
		{100, 7},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d_leaves", tc.numLeaves), func(t *testing.T) {
			tree, err := BuildMerkleTree(createTestLeaves(tc.numLeaves))
			require.NoError(t, err)
			require.Equal(t, tc.maxProofDepth, tree.Depth())

			for i := 0; i < tc.numLeaves; i++ {
				proof, err := tree.GenerateProof(i)
				require.NoError(t, err)
				require.LessOrEqual(t, len(proof.Proof), tc.maxProofDepth)
			}
		})
	}
}

// TestMerkleTreeDeterminism tests that the same leaves always produce the same tree
func TestMerkleTreeDeterminism(t *testing.T) {
	leaves := createTestLeaves(10)

	tree1, err := BuildMerkleTree(leaves)
	require.NoError(t, err)

	tree2, err := BuildMerkleTree(leaves)
	require.NoError(t, err)

	require.Equal(t, tree1.Root(), tree2.Root())
	require.Equal(t, tree1.Leaves(), tree2.Leaves())
}

// TestBuildMerkleTreeParallelMatchesSequential checks worker count never changes the root
func TestBuildMerkleTreeParallelMatchesSequential(t *testing.T) {
	for _, size := range []int{1, 2, 3, 7, 64, 333} {
		leaves := createTestLeaves(size)
		sequential, err := BuildMerkleTree(leaves)
		require.NoError(t, err)

		for _, workers := range []int{0, 1, 2, 3, 8, 1000} {
			parallel, err := BuildMerkleTreeParallel(leaves, workers)
			require.NoError(t, err)
			require.Equal(t, sequential.Root(), parallel.Root(), "size %d workers %d", size, workers)

			proof, err := parallel.GenerateProof(size - 1)
			require.NoError(t, err)
			require.True(t, VerifyProof(proof, sequential.Root()))
		}
	}
}

func FuzzVerify(f *testing.F) {
	f.Add(uint8(5), uint8(2), uint8(0))
	f.Add(uint8(1), uint8(0), uint8(0))
	f.Add(uint8(9), uint8(8), uint8(31))

	f.Fuzz(func(t *testing.T, n, idx, flip uint8) {
		size := int(n)%64 + 1
		leaves := createTestLeaves(size)
		tree, err := BuildMerkleTree(leaves)
		require.NoError(t, err)

		proof, err := tree.GenerateProof(int(idx) % size)
		require.NoError(t, err)
		require.True(t, VerifyProof(proof, tree.Root()))

		tamperedLeaf := proof.Leaf
		tamperedLeaf[int(flip)%32] ^= 0x80
		require.False(t, Verify(tamperedLeaf, proof.Proof, tree.Root()))
	})
}
