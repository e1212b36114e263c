package merkle

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// NodeHash combines two child digests into their parent digest.
// Implementations must be pure functions.
type NodeHash func(a, b common.Hash) common.Hash

// StandardNodeHash computes keccak256(min(a,b) || max(a,b)).
// Sorting the pair makes the hash commutative, so verifiers do not need to
// track child order. This matches the on-chain MerkleProof verifier.
func StandardNodeHash(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

// MultiProof is a compact witness for a set of leaves.
//
// Leaves holds the digests being proven in the order the verifier consumes
// them, Proof holds the sibling digests that cannot be derived from Leaves,
// and ProofFlags encodes the merge schedule: true pairs the current digest
// with the next digest in the leaf queue (a leaf or a previously derived
// node), false pairs it with the next Proof entry.
// len(ProofFlags) == len(Leaves) + len(Proof) - 1 for any well-formed proof.
type MultiProof struct {
	Leaves     []common.Hash
	Proof      []common.Hash
	ProofFlags []bool
}

// nodeHashOrDefault resolves a nil hook to the standard sorted-pair hash.
func nodeHashOrDefault(fn NodeHash) NodeHash {
	if fn == nil {
		return StandardNodeHash
	}
	return fn
}
