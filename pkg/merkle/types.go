package merkle

// MerkleTree is a binary keccak256 merkle tree over distribution leaves.
// Sibling pairs are hashed in ascending byte order, so proofs carry no
// left/right information. A tree is never modified after it is built.
type MerkleTree struct {
	// root is the merkle root hash
	root [32]byte

	// levels stores all tree levels for proof generation
	// levels[0] = leaves in canonical snapshot order, levels[len-1] = [root]
	levels [][][32]byte
}

// MerkleProof represents a proof that a leaf is included in the tree.
// The proof consists of sibling hashes along the path from leaf to root.
type MerkleProof struct {
	// LeafIndex is the position of the leaf in the canonical leaf order.
	// It is informational only; verification does not use it.
	LeafIndex int

	// Leaf is the hash of the leaf being proven
	Leaf [32]byte

	// Proof contains the sibling hashes from leaf to root
	// proof[0] is the sibling of the leaf, proof[len-1] is near the root.
	// Levels where the node was promoted without a sibling contribute nothing.
	Proof [][32]byte
}
