package merkle

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// GetMultiProof produces a witness for the leaves at the given tree indices.
// The indices must all reference leaves and be pairwise distinct.
//
// The returned Leaves are ordered by descending tree index; that is the
// order in which ProcessMultiProof consumes them. For an empty index list
// the proof degenerates to {Leaves: [], Proof: [root], ProofFlags: []}.
func GetMultiProof(tree []common.Hash, indices []int, fn NodeHash) (*MultiProof, error) {
	if len(tree) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "expected non-zero number of nodes")
	}
	for _, i := range indices {
		if err := checkLeafNode(tree, i); err != nil {
			return nil, err
		}
	}

	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	for k := 1; k < len(sorted); k++ {
		if sorted[k] == sorted[k-1] {
			return nil, errors.Wrapf(ErrInvalidArgument, "cannot prove duplicated index %d", sorted[k])
		}
	}

	// Work queue seeded with the target indices, deepest first. Each step
	// consumes the head, pairs it with its sibling (either the next queue
	// entry or a supplied proof digest) and pushes the parent at the tail.
	queue := append([]int(nil), sorted...)
	proof := make([]common.Hash, 0)
	flags := make([]bool, 0)
	for len(queue) > 0 && queue[0] > 0 {
		j := queue[0]
		queue = queue[1:]
		s := siblingIndex(j)
		p := parentIndex(j)
		if len(queue) > 0 && queue[0] == s {
			flags = append(flags, true)
			queue = queue[1:]
		} else {
			flags = append(flags, false)
			proof = append(proof, tree[s])
		}
		queue = append(queue, p)
	}
	if len(sorted) == 0 {
		proof = append(proof, tree[0])
	}

	leaves := make([]common.Hash, len(sorted))
	for k, i := range sorted {
		leaves[k] = tree[i]
	}
	return &MultiProof{Leaves: leaves, Proof: proof, ProofFlags: flags}, nil
}

// ProcessMultiProof folds a multiproof into the implied root.
//
// Shape violations are reported as ErrInvalidArgument before any hashing.
// A proof that passes the shape checks but runs out of digests mid-fold, or
// leaves more than one digest behind, is structurally inconsistent and
// reported as ErrInvariant.
func ProcessMultiProof(mp *MultiProof, fn NodeHash) (common.Hash, error) {
	fn = nodeHashOrDefault(fn)

	supplied := 0
	for _, f := range mp.ProofFlags {
		if !f {
			supplied++
		}
	}
	if len(mp.Proof) < supplied {
		return common.Hash{}, errors.Wrap(ErrInvalidArgument, "invalid multiproof format")
	}
	if len(mp.Leaves)+len(mp.Proof) != len(mp.ProofFlags)+1 {
		return common.Hash{}, errors.Wrap(ErrInvalidArgument, "provided leaves and multiproof are not compatible")
	}

	stack := append([]common.Hash(nil), mp.Leaves...)
	proof := append([]common.Hash(nil), mp.Proof...)
	for _, flag := range mp.ProofFlags {
		if len(stack) == 0 {
			return common.Hash{}, errors.Wrap(ErrInvariant, "multiproof stack underflow")
		}
		a := stack[0]
		stack = stack[1:]

		var b common.Hash
		if flag {
			if len(stack) == 0 {
				return common.Hash{}, errors.Wrap(ErrInvariant, "multiproof stack underflow")
			}
			b = stack[0]
			stack = stack[1:]
		} else {
			if len(proof) == 0 {
				return common.Hash{}, errors.Wrap(ErrInvariant, "multiproof ran out of supplied digests")
			}
			b = proof[0]
			proof = proof[1:]
		}
		stack = append(stack, fn(a, b))
	}

	switch {
	case len(stack) == 1 && len(proof) == 0:
		return stack[0], nil
	case len(stack) == 0 && len(proof) == 1:
		return proof[0], nil
	}
	return common.Hash{}, errors.Wrap(ErrInvariant, "multiproof did not reduce to a single root")
}
