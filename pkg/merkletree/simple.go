package merkletree

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/OpenZeppelin/merkle-tree/pkg/merkle"
)

// SimpleMerkleTree takes caller-supplied 32-byte leaves as-is. The 32-byte
// width is enforced by the common.Hash type; hex inputs are validated when
// a dump is parsed.
type SimpleMerkleTree struct {
	*MerkleTree[common.Hash]
}

func simpleLeafHasher(leaf common.Hash) (common.Hash, error) {
	return leaf, nil
}

// NewSimpleTree builds a simple tree from leaf digests. WithNodeHash swaps
// the pair hash; the resulting proofs then only verify under the same hash.
func NewSimpleTree(leaves []common.Hash, opts ...Option) (*SimpleMerkleTree, error) {
	o := buildOptions(opts)
	mt, err := newMerkleTree(leaves, simpleLeafHasher, o.nodeHash, o.sortLeaves)
	if err != nil {
		return nil, err
	}
	return &SimpleMerkleTree{MerkleTree: mt}, nil
}

// Dump serializes the tree in the simple-v1 format. Trees built with a
// custom node hash are tagged so loads cannot silently drop the hash.
func (t *SimpleMerkleTree) Dump() (*Dump, error) {
	values := make([]DumpValue, len(t.values))
	for i, iv := range t.values {
		raw, err := json.Marshal(iv.Value)
		if err != nil {
			return nil, errors.Wrapf(merkle.ErrInvariant, "cannot dump value %d: %v", i, err)
		}
		values[i] = DumpValue{Value: raw, TreeIndex: iv.TreeIndex}
	}
	d := &Dump{
		Format: SimpleFormat,
		Tree:   append([]common.Hash(nil), t.tree...),
		Values: values,
	}
	if t.nodeHash != nil {
		d.Hash = CustomHashTag
	}
	return d, nil
}

// LoadSimple reconstructs a simple tree from a dump, validating it before
// returning. A dump tagged with a custom hash requires WithNodeHash, and a
// WithNodeHash option requires the tag; any other pairing is rejected.
func LoadSimple(d *Dump, opts ...Option) (*SimpleMerkleTree, error) {
	if d == nil {
		return nil, errors.Wrap(merkle.ErrInvalidArgument, "expected a dump to load")
	}
	if d.Format != SimpleFormat {
		return nil, errors.Wrapf(merkle.ErrInvalidArgument, "unknown format %q", d.Format)
	}
	o := buildOptions(opts)
	switch d.Hash {
	case "":
		if o.nodeHash != nil {
			return nil, errors.Wrap(merkle.ErrInvalidArgument, "format does not expect a custom node hashing function")
		}
	case CustomHashTag:
		if o.nodeHash == nil {
			return nil, errors.Wrap(merkle.ErrInvalidArgument, "format expects a custom node hashing function")
		}
	default:
		return nil, errors.Wrapf(merkle.ErrInvalidArgument, "unknown hash %q", d.Hash)
	}

	values := make([]IndexedValue[common.Hash], len(d.Values))
	for i, dv := range d.Values {
		var leaf common.Hash
		if err := json.Unmarshal(dv.Value, &leaf); err != nil {
			return nil, errors.Wrapf(merkle.ErrInvalidArgument, "cannot load value %d: %v", i, err)
		}
		values[i] = IndexedValue[common.Hash]{Value: leaf, TreeIndex: dv.TreeIndex}
	}

	mt, err := loadMerkleTree(append([]common.Hash(nil), d.Tree...), values, simpleLeafHasher, o.nodeHash)
	if err != nil {
		return nil, err
	}
	t := &SimpleMerkleTree{MerkleTree: mt}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// VerifySimple checks a single-leaf proof against a root without a tree
// instance. Malformed inputs yield false, never an error.
func VerifySimple(root, leaf common.Hash, proof []common.Hash, opts ...Option) bool {
	o := buildOptions(opts)
	return merkle.ProcessProof(leaf, proof, o.nodeHash) == root
}

// VerifySimpleMultiProof checks a multiproof against a root without a tree
// instance.
func VerifySimpleMultiProof(root common.Hash, mp *MultiProof[common.Hash], opts ...Option) (bool, error) {
	o := buildOptions(opts)
	implied, err := merkle.ProcessMultiProof(&merkle.MultiProof{
		Leaves:     mp.Leaves,
		Proof:      mp.Proof,
		ProofFlags: mp.ProofFlags,
	}, o.nodeHash)
	if err != nil {
		return false, err
	}
	return implied == root, nil
}
