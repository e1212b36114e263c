package merkletree

import "github.com/OpenZeppelin/merkle-tree/pkg/merkle"

// Option configures tree construction and loading.
type Option func(*options)

type options struct {
	sortLeaves bool
	nodeHash   merkle.NodeHash
}

func buildOptions(opts []Option) options {
	o := options{sortLeaves: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithSortLeaves controls whether leaves are sorted by digest before
// placement. Sorting (the default) lets any verifier rebuilding a
// multiproof match the library-produced order; disable it only when
// mirroring a tree that an on-chain contract built iteratively.
func WithSortLeaves(sortLeaves bool) Option {
	return func(o *options) {
		o.sortLeaves = sortLeaves
	}
}

// WithNodeHash replaces the sorted-pair keccak used to combine child
// digests. Only simple trees support this; proofs produced under a custom
// hash no longer verify against the stock on-chain verifier.
func WithNodeHash(fn merkle.NodeHash) Option {
	return func(o *options) {
		o.nodeHash = fn
	}
}
