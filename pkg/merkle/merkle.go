// Package merkle implements the complete-binary-tree engine shared by the
// standard and simple Merkle tree facades.
//
// Trees are stored as a flat array with the root at index 0. For a tree with
// L leaves the array has 2L-1 entries; the leaves occupy the tail of the
// array in reverse input order, so input leaf k lands at index len-1-k.
// Proofs produced here verify bit-identically against the MerkleProof
// library deployed in Ethereum smart contracts.
package merkle

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

func leftChildIndex(i int) int  { return 2*i + 1 }
func rightChildIndex(i int) int { return 2*i + 2 }
func parentIndex(i int) int     { return (i - 1) / 2 }

func siblingIndex(i int) int {
	if i%2 == 0 {
		return i - 1
	}
	return i + 1
}

func isTreeNode(tree []common.Hash, i int) bool {
	return i >= 0 && i < len(tree)
}

// A leaf has no children, so its left child index falls off the array.
func isLeafNode(tree []common.Hash, i int) bool {
	return isTreeNode(tree, i) && !isTreeNode(tree, leftChildIndex(i))
}

func checkLeafNode(tree []common.Hash, i int) error {
	if !isLeafNode(tree, i) {
		return errors.Wrapf(ErrInvalidArgument, "index %d is not a leaf", i)
	}
	return nil
}

// MakeTree builds the flat tree array from the given leaf digests.
// A nil fn selects StandardNodeHash.
func MakeTree(leaves []common.Hash, fn NodeHash) ([]common.Hash, error) {
	if len(leaves) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "expected non-zero number of leaves")
	}
	fn = nodeHashOrDefault(fn)

	tree := make([]common.Hash, 2*len(leaves)-1)
	for i, leaf := range leaves {
		tree[len(tree)-1-i] = leaf
	}
	for i := len(tree) - 1 - len(leaves); i >= 0; i-- {
		tree[i] = fn(tree[leftChildIndex(i)], tree[rightChildIndex(i)])
	}
	return tree, nil
}

// GetProof returns the sibling digests on the path from the leaf at the
// given tree index up to the root. The proof contains neither the leaf nor
// the root.
func GetProof(tree []common.Hash, index int) ([]common.Hash, error) {
	if err := checkLeafNode(tree, index); err != nil {
		return nil, err
	}

	proof := make([]common.Hash, 0)
	for index > 0 {
		proof = append(proof, tree[siblingIndex(index)])
		index = parentIndex(index)
	}
	return proof, nil
}

// ProcessProof folds a single-leaf proof into the implied root. Because the
// standard node hash sorts its pair, callers need not track child order.
func ProcessProof(leaf common.Hash, proof []common.Hash, fn NodeHash) common.Hash {
	fn = nodeHashOrDefault(fn)
	acc := leaf
	for _, sibling := range proof {
		acc = fn(sibling, acc)
	}
	return acc
}

// IsValidTree reports whether the array is a well-formed complete binary
// tree: non-empty, every internal node is the hash of its two children, and
// no node has only a left child.
func IsValidTree(tree []common.Hash, fn NodeHash) bool {
	if len(tree) == 0 {
		return false
	}
	fn = nodeHashOrDefault(fn)

	for i, node := range tree {
		l, r := leftChildIndex(i), rightChildIndex(i)
		if r >= len(tree) {
			if l < len(tree) {
				return false
			}
		} else if node != fn(tree[l], tree[r]) {
			return false
		}
	}
	return true
}
