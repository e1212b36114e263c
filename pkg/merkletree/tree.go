// Package merkletree exposes the user-facing Merkle tree variants: standard
// trees whose leaves are double-keccak hashes of ABI-encoded tuples, and
// simple trees whose leaves are caller-supplied 32-byte values. Both wrap
// the engine in pkg/merkle and associate the hashed tree with the original
// values.
package merkletree

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/OpenZeppelin/merkle-tree/pkg/merkle"
)

// LeafHasher derives the 32-byte leaf digest for a raw value.
type LeafHasher[V any] func(V) (common.Hash, error)

// IndexedValue pairs an original input value with the position of its
// digest in the flat tree array.
type IndexedValue[V any] struct {
	Value     V
	TreeIndex int
}

// Entry is one (input index, value) pair as yielded by Entries.
type Entry[V any] struct {
	Index int
	Value V
}

// MultiProof witnesses a subset of a tree's values. Leaves carries the raw
// values in verification order; Proof and ProofFlags are as in the engine.
type MultiProof[V any] struct {
	Leaves     []V
	Proof      []common.Hash
	ProofFlags []bool
}

// MerkleTree associates a hashed tree with its original values. Trees are
// immutable once constructed and safe for shared concurrent reads.
type MerkleTree[V any] struct {
	tree       []common.Hash
	values     []IndexedValue[V]
	leafHash   LeafHasher[V]
	nodeHash   merkle.NodeHash // nil means merkle.StandardNodeHash
	hashLookup map[common.Hash]int
}

// newMerkleTree hashes the values, optionally sorts the leaves by digest,
// builds the flat tree, and records each value's tree index.
func newMerkleTree[V any](values []V, leafHash LeafHasher[V], nodeHash merkle.NodeHash, sortLeaves bool) (*MerkleTree[V], error) {
	type hashedValue struct {
		hash       common.Hash
		valueIndex int
	}
	hashed := make([]hashedValue, len(values))
	for i, v := range values {
		h, err := leafHash(v)
		if err != nil {
			return nil, err
		}
		hashed[i] = hashedValue{hash: h, valueIndex: i}
	}
	if sortLeaves {
		sort.SliceStable(hashed, func(a, b int) bool {
			return bytes.Compare(hashed[a].hash[:], hashed[b].hash[:]) < 0
		})
	}

	leaves := make([]common.Hash, len(hashed))
	for i, hv := range hashed {
		leaves[i] = hv.hash
	}
	tree, err := merkle.MakeTree(leaves, nodeHash)
	if err != nil {
		return nil, err
	}

	indexed := make([]IndexedValue[V], len(values))
	for i, v := range values {
		indexed[i] = IndexedValue[V]{Value: v}
	}
	lookup := make(map[common.Hash]int, len(hashed))
	for leafIndex, hv := range hashed {
		indexed[hv.valueIndex].TreeIndex = len(tree) - 1 - leafIndex
		lookup[hv.hash] = hv.valueIndex
	}

	return &MerkleTree[V]{
		tree:       tree,
		values:     indexed,
		leafHash:   leafHash,
		nodeHash:   nodeHash,
		hashLookup: lookup,
	}, nil
}

// loadMerkleTree reassembles a tree from dumped parts. The hash lookup is
// recomputed from the values; Validate must be called before the tree is
// handed to callers.
func loadMerkleTree[V any](tree []common.Hash, values []IndexedValue[V], leafHash LeafHasher[V], nodeHash merkle.NodeHash) (*MerkleTree[V], error) {
	lookup := make(map[common.Hash]int, len(values))
	for i, iv := range values {
		h, err := leafHash(iv.Value)
		if err != nil {
			return nil, err
		}
		lookup[h] = i
	}
	return &MerkleTree[V]{
		tree:       tree,
		values:     values,
		leafHash:   leafHash,
		nodeHash:   nodeHash,
		hashLookup: lookup,
	}, nil
}

// Root returns the tree's root digest.
func (t *MerkleTree[V]) Root() common.Hash {
	return t.tree[0]
}

// Len returns the number of values in the tree.
func (t *MerkleTree[V]) Len() int {
	return len(t.values)
}

// At returns the value at the given input index.
func (t *MerkleTree[V]) At(i int) (V, bool) {
	if i < 0 || i >= len(t.values) {
		var zero V
		return zero, false
	}
	return t.values[i].Value, true
}

// Entries returns the (index, value) pairs in original input order.
func (t *MerkleTree[V]) Entries() []Entry[V] {
	entries := make([]Entry[V], len(t.values))
	for i, iv := range t.values {
		entries[i] = Entry[V]{Index: i, Value: iv.Value}
	}
	return entries
}

// LeafHash returns the leaf digest of a value under this tree's leaf hash.
func (t *MerkleTree[V]) LeafHash(v V) (common.Hash, error) {
	return t.leafHash(v)
}

// LeafLookup resolves a value to its input index.
func (t *MerkleTree[V]) LeafLookup(v V) (int, error) {
	h, err := t.leafHash(v)
	if err != nil {
		return 0, err
	}
	i, ok := t.hashLookup[h]
	if !ok {
		return 0, errors.Wrap(merkle.ErrInvalidArgument, "leaf is not in tree")
	}
	return i, nil
}

// validateValueAt checks that the stored value at the given input index
// still hashes to the tree node it points at, returning the leaf digest.
func (t *MerkleTree[V]) validateValueAt(i int) (common.Hash, error) {
	if i < 0 || i >= len(t.values) {
		return common.Hash{}, errors.Wrapf(merkle.ErrInvalidArgument, "index %d out of bounds", i)
	}
	iv := t.values[i]
	if iv.TreeIndex < 0 || iv.TreeIndex >= len(t.tree) {
		return common.Hash{}, errors.Wrapf(merkle.ErrInvalidArgument, "tree index %d out of bounds", iv.TreeIndex)
	}
	h, err := t.leafHash(iv.Value)
	if err != nil {
		return common.Hash{}, err
	}
	if t.tree[iv.TreeIndex] != h {
		return common.Hash{}, errors.Wrap(merkle.ErrInvariant, "merkle tree does not contain the expected value")
	}
	return h, nil
}

// GetProof returns the sibling digests proving the value at the given input
// index. The proof is re-verified against the stored root before returning.
func (t *MerkleTree[V]) GetProof(i int) ([]common.Hash, error) {
	leaf, err := t.validateValueAt(i)
	if err != nil {
		return nil, err
	}

	proof, err := merkle.GetProof(t.tree, t.values[i].TreeIndex)
	if err != nil {
		return nil, err
	}
	if merkle.ProcessProof(leaf, proof, t.nodeHash) != t.Root() {
		return nil, errors.Wrap(merkle.ErrInvariant, "unable to prove value")
	}
	return proof, nil
}

// GetProofForValue is GetProof keyed by value instead of index.
func (t *MerkleTree[V]) GetProofForValue(v V) ([]common.Hash, error) {
	i, err := t.LeafLookup(v)
	if err != nil {
		return nil, err
	}
	return t.GetProof(i)
}

// GetMultiProof returns a witness for the values at the given input
// indices. Like GetProof, the output is re-verified before returning.
func (t *MerkleTree[V]) GetMultiProof(indices []int) (*MultiProof[V], error) {
	treeIndices := make([]int, len(indices))
	for k, i := range indices {
		if _, err := t.validateValueAt(i); err != nil {
			return nil, err
		}
		treeIndices[k] = t.values[i].TreeIndex
	}

	mp, err := merkle.GetMultiProof(t.tree, treeIndices, t.nodeHash)
	if err != nil {
		return nil, err
	}
	root, err := merkle.ProcessMultiProof(mp, t.nodeHash)
	if err != nil || root != t.Root() {
		return nil, errors.Wrap(merkle.ErrInvariant, "unable to prove values")
	}

	leaves := make([]V, len(mp.Leaves))
	for k, h := range mp.Leaves {
		vi, ok := t.hashLookup[h]
		if !ok {
			return nil, errors.Wrap(merkle.ErrInvariant, "proven leaf has no associated value")
		}
		leaves[k] = t.values[vi].Value
	}
	return &MultiProof[V]{Leaves: leaves, Proof: mp.Proof, ProofFlags: mp.ProofFlags}, nil
}

// GetMultiProofForValues is GetMultiProof keyed by values.
func (t *MerkleTree[V]) GetMultiProofForValues(values []V) (*MultiProof[V], error) {
	indices := make([]int, len(values))
	for k, v := range values {
		i, err := t.LeafLookup(v)
		if err != nil {
			return nil, err
		}
		indices[k] = i
	}
	return t.GetMultiProof(indices)
}

// Verify checks a proof for the value at the given input index against the
// stored root.
func (t *MerkleTree[V]) Verify(i int, proof []common.Hash) (bool, error) {
	leaf, err := t.validateValueAt(i)
	if err != nil {
		return false, err
	}
	return merkle.ProcessProof(leaf, proof, t.nodeHash) == t.Root(), nil
}

// VerifyForValue is Verify keyed by value.
func (t *MerkleTree[V]) VerifyForValue(v V, proof []common.Hash) (bool, error) {
	i, err := t.LeafLookup(v)
	if err != nil {
		return false, err
	}
	return t.Verify(i, proof)
}

// VerifyMultiProof checks a multiproof against the stored root.
func (t *MerkleTree[V]) VerifyMultiProof(mp *MultiProof[V]) (bool, error) {
	leaves := make([]common.Hash, len(mp.Leaves))
	for k, v := range mp.Leaves {
		h, err := t.leafHash(v)
		if err != nil {
			return false, err
		}
		leaves[k] = h
	}
	root, err := merkle.ProcessMultiProof(&merkle.MultiProof{
		Leaves:     leaves,
		Proof:      mp.Proof,
		ProofFlags: mp.ProofFlags,
	}, t.nodeHash)
	if err != nil {
		return false, err
	}
	return root == t.Root(), nil
}

// Validate re-checks every stored value against the tree and the tree
// against its own shape invariant.
func (t *MerkleTree[V]) Validate() error {
	for i := range t.values {
		if _, err := t.validateValueAt(i); err != nil {
			return err
		}
	}
	if !merkle.IsValidTree(t.tree, t.nodeHash) {
		return errors.Wrap(merkle.ErrInvariant, "merkle tree is invalid")
	}
	return nil
}

// Render draws the tree as an ASCII diagram.
func (t *MerkleTree[V]) Render() (string, error) {
	return merkle.Render(t.tree)
}
