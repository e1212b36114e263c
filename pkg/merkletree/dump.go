package merkletree

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// Dump formats. Loaders reject any format they did not produce.
const (
	StandardFormat = "standard-v1"
	SimpleFormat   = "simple-v1"
)

// CustomHashTag marks a simple dump built with a non-default node hash.
// Loading such a dump requires supplying the same hash via WithNodeHash.
const CustomHashTag = "custom"

// Dump is the serializable form of a tree. Tree holds the flat node array
// as 0x-prefixed digests; Values holds the original inputs in input order,
// each with the tree index of its leaf digest.
type Dump struct {
	Format       string        `json:"format"`
	LeafEncoding []string      `json:"leafEncoding,omitempty"`
	Tree         []common.Hash `json:"tree"`
	Values       []DumpValue   `json:"values"`
	Hash         string        `json:"hash,omitempty"`
}

// DumpValue is one dumped input value. Value stays raw JSON so standard
// tuples and simple hex leaves share the same container.
type DumpValue struct {
	Value     json.RawMessage `json:"value"`
	TreeIndex int             `json:"treeIndex"`
}
