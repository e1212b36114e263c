package merkletree

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/OpenZeppelin/merkle-tree/pkg/abiencode"
	"github.com/OpenZeppelin/merkle-tree/pkg/merkle"
)

// StandardMerkleTree hashes each leaf as
// keccak256(keccak256(abi.encode(leafEncoding, value))). The double hash
// prevents a 64-byte leaf preimage from colliding with the concatenation of
// two internal child digests.
type StandardMerkleTree struct {
	*MerkleTree[[]any]
	leafEncoding []string
}

// StandardLeafHash computes the standard leaf digest of one value tuple.
func StandardLeafHash(leafEncoding []string, value []any) (common.Hash, error) {
	encoded, err := abiencode.Encode(leafEncoding, value)
	if err != nil {
		return common.Hash{}, errors.Wrapf(merkle.ErrInvalidArgument, "cannot hash leaf: %v", err)
	}
	return crypto.Keccak256Hash(crypto.Keccak256(encoded)), nil
}

func standardLeafHasher(leafEncoding []string) LeafHasher[[]any] {
	return func(value []any) (common.Hash, error) {
		return StandardLeafHash(leafEncoding, value)
	}
}

// NewStandardTree builds a standard tree from value tuples. Every tuple
// must match leafEncoding. Leaves are sorted by digest unless
// WithSortLeaves(false) is given; custom node hashes are not supported
// because the result would no longer match the on-chain verifier.
func NewStandardTree(values [][]any, leafEncoding []string, opts ...Option) (*StandardMerkleTree, error) {
	if len(leafEncoding) == 0 {
		return nil, errors.Wrap(merkle.ErrInvalidArgument, "expected non-empty leaf encoding")
	}
	o := buildOptions(opts)
	if o.nodeHash != nil {
		return nil, errors.Wrap(merkle.ErrInvalidArgument, "standard merkle trees do not support custom node hashing")
	}

	mt, err := newMerkleTree(values, standardLeafHasher(leafEncoding), nil, o.sortLeaves)
	if err != nil {
		return nil, err
	}
	return &StandardMerkleTree{MerkleTree: mt, leafEncoding: append([]string(nil), leafEncoding...)}, nil
}

// LeafEncoding returns the ABI type strings the tree hashes leaves with.
func (t *StandardMerkleTree) LeafEncoding() []string {
	return append([]string(nil), t.leafEncoding...)
}

// Dump serializes the tree in the standard-v1 format.
func (t *StandardMerkleTree) Dump() (*Dump, error) {
	values := make([]DumpValue, len(t.values))
	for i, iv := range t.values {
		raw, err := abiencode.ToJSON(t.leafEncoding, iv.Value)
		if err != nil {
			return nil, errors.Wrapf(merkle.ErrInvariant, "cannot dump value %d: %v", i, err)
		}
		values[i] = DumpValue{Value: raw, TreeIndex: iv.TreeIndex}
	}
	return &Dump{
		Format:       StandardFormat,
		LeafEncoding: t.LeafEncoding(),
		Tree:         append([]common.Hash(nil), t.tree...),
		Values:       values,
	}, nil
}

// LoadStandard reconstructs a standard tree from a dump, validating it
// before returning.
func LoadStandard(d *Dump) (*StandardMerkleTree, error) {
	if d == nil {
		return nil, errors.Wrap(merkle.ErrInvalidArgument, "expected a dump to load")
	}
	if d.Format != StandardFormat {
		return nil, errors.Wrapf(merkle.ErrInvalidArgument, "unknown format %q", d.Format)
	}
	if len(d.LeafEncoding) == 0 {
		return nil, errors.Wrap(merkle.ErrInvalidArgument, "expected leaf encoding in dump")
	}
	if d.Hash != "" {
		return nil, errors.Wrapf(merkle.ErrInvalidArgument, "unknown hash %q", d.Hash)
	}

	values := make([]IndexedValue[[]any], len(d.Values))
	for i, dv := range d.Values {
		v, err := abiencode.FromJSON(d.LeafEncoding, dv.Value)
		if err != nil {
			return nil, errors.Wrapf(merkle.ErrInvalidArgument, "cannot load value %d: %v", i, err)
		}
		values[i] = IndexedValue[[]any]{Value: v, TreeIndex: dv.TreeIndex}
	}

	mt, err := loadMerkleTree(append([]common.Hash(nil), d.Tree...), values, standardLeafHasher(d.LeafEncoding), nil)
	if err != nil {
		return nil, err
	}
	t := &StandardMerkleTree{MerkleTree: mt, leafEncoding: append([]string(nil), d.LeafEncoding...)}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// VerifyStandard checks a single-leaf proof against a root without a tree
// instance. Malformed inputs yield false, never an error.
func VerifyStandard(root common.Hash, leafEncoding []string, value []any, proof []common.Hash) bool {
	leaf, err := StandardLeafHash(leafEncoding, value)
	if err != nil {
		return false
	}
	return merkle.ProcessProof(leaf, proof, nil) == root
}

// VerifyStandardMultiProof checks a multiproof against a root without a
// tree instance. Shape violations surface as ErrInvalidArgument and
// structural inconsistencies as ErrInvariant.
func VerifyStandardMultiProof(root common.Hash, leafEncoding []string, mp *MultiProof[[]any]) (bool, error) {
	leaves := make([]common.Hash, len(mp.Leaves))
	for i, value := range mp.Leaves {
		h, err := StandardLeafHash(leafEncoding, value)
		if err != nil {
			return false, err
		}
		leaves[i] = h
	}
	implied, err := merkle.ProcessMultiProof(&merkle.MultiProof{
		Leaves:     leaves,
		Proof:      mp.Proof,
		ProofFlags: mp.ProofFlags,
	}, nil)
	if err != nil {
		return false, err
	}
	return implied == root, nil
}
