package merkletree

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/OpenZeppelin/merkle-tree/pkg/merkle"
)

var stringEncoding = []string{"string"}

// charValues builds one single-string tuple per character
func charValues(chars string) [][]any {
	values := make([][]any, 0, len(chars))
	for _, c := range chars {
		values = append(values, []any{string(c)})
	}
	return values
}

// TestStandardTreeKnownRoot pins the tree for ["a"], ["b"], ["c"] with
// encoding ["string"] to the root the on-chain verifier expects
func TestStandardTreeKnownRoot(t *testing.T) {
	tree, err := NewStandardTree(charValues("abc"), stringEncoding)
	require.NoError(t, err)
	require.Equal(t,
		common.HexToHash("0xf2129b5a697531ef818f644564a6552b35c549722385bc52aa7fe46c0b5f46b1"),
		tree.Root())

	dump, err := tree.Dump()
	require.NoError(t, err)
	require.Len(t, dump.Tree, 5)
	for i, prefix := range []string{"0xf2129b", "0xfa914d", "0x9cf5a6", "0x9c15a6"} {
		require.True(t, strings.HasPrefix(dump.Tree[i].Hex(), prefix),
			"node %d is %s", i, dump.Tree[i].Hex())
	}
}

// TestStandardTreeProofs tests the proof round trip for every entry, by
// index and by value, including the static verifier
func TestStandardTreeProofs(t *testing.T) {
	tree, err := NewStandardTree(charValues("abcdef"), stringEncoding)
	require.NoError(t, err)

	for _, entry := range tree.Entries() {
		proof, err := tree.GetProof(entry.Index)
		require.NoError(t, err)

		ok, err := tree.Verify(entry.Index, proof)
		require.NoError(t, err)
		require.True(t, ok, "proof for entry %d should verify", entry.Index)

		byValue, err := tree.GetProofForValue(entry.Value)
		require.NoError(t, err)
		require.Equal(t, proof, byValue)

		require.True(t, VerifyStandard(tree.Root(), stringEncoding, entry.Value, proof))
	}
}

// TestStandardTreeProofRejection tests that bad proofs and foreign roots
// are rejected
func TestStandardTreeProofRejection(t *testing.T) {
	tree, err := NewStandardTree(charValues("abcdef"), stringEncoding)
	require.NoError(t, err)

	proof, err := tree.GetProof(0)
	require.NoError(t, err)

	t.Run("Tampered proof", func(t *testing.T) {
		tampered := append([]common.Hash(nil), proof...)
		tampered[0][0] ^= 0xff
		ok, err := tree.Verify(0, tampered)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("Wrong root", func(t *testing.T) {
		require.False(t, VerifyStandard(common.Hash{}, stringEncoding, []any{"a"}, proof))
	})

	t.Run("Cross-tree proof", func(t *testing.T) {
		other, err := NewStandardTree(charValues("abd"), stringEncoding)
		require.NoError(t, err)
		otherProof, err := other.GetProofForValue([]any{"a"})
		require.NoError(t, err)
		require.False(t, VerifyStandard(tree.Root(), stringEncoding, []any{"a"}, otherProof))
	})

	t.Run("Index out of bounds", func(t *testing.T) {
		_, err := tree.GetProof(tree.Len())
		require.ErrorIs(t, err, merkle.ErrInvalidArgument)
	})
}

// TestStandardTreeLeafLookup tests value resolution
func TestStandardTreeLeafLookup(t *testing.T) {
	tree, err := NewStandardTree(charValues("abc"), stringEncoding)
	require.NoError(t, err)

	i, err := tree.LeafLookup([]any{"b"})
	require.NoError(t, err)
	value, ok := tree.At(i)
	require.True(t, ok)
	require.Equal(t, []any{"b"}, value)

	_, err = tree.LeafLookup([]any{"z"})
	require.ErrorIs(t, err, merkle.ErrInvalidArgument)
	require.Contains(t, err.Error(), "leaf is not in tree")
}

// TestStandardTreeMultiProof tests multiproofs over assorted subsets
func TestStandardTreeMultiProof(t *testing.T) {
	tree, err := NewStandardTree(charValues("abcdef"), stringEncoding)
	require.NoError(t, err)

	subsets := [][]int{
		{},
		{0},
		{5},
		{0, 5},
		{1, 3, 4},
		{0, 1, 2, 3, 4, 5},
	}
	for _, indices := range subsets {
		t.Run(fmt.Sprintf("Subset_%v", indices), func(t *testing.T) {
			mp, err := tree.GetMultiProof(indices)
			require.NoError(t, err)
			require.Len(t, mp.Leaves, len(indices))

			ok, err := tree.VerifyMultiProof(mp)
			require.NoError(t, err)
			require.True(t, ok)

			ok, err = VerifyStandardMultiProof(tree.Root(), stringEncoding, mp)
			require.NoError(t, err)
			require.True(t, ok)
		})
	}
}

// TestStandardTreeMultiProofByValues tests value-keyed multiproofs and
// duplicate rejection
func TestStandardTreeMultiProofByValues(t *testing.T) {
	tree, err := NewStandardTree(charValues("abcdef"), stringEncoding)
	require.NoError(t, err)

	mp, err := tree.GetMultiProofForValues([][]any{{"b"}, {"e"}})
	require.NoError(t, err)
	ok, err := tree.VerifyMultiProof(mp)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = tree.GetMultiProof([]int{2, 2})
	require.ErrorIs(t, err, merkle.ErrInvalidArgument)
}

// TestStandardTreeDumpLoad tests the dump/load round trip
func TestStandardTreeDumpLoad(t *testing.T) {
	tree, err := NewStandardTree(charValues("abcde"), stringEncoding)
	require.NoError(t, err)

	dump, err := tree.Dump()
	require.NoError(t, err)
	require.Equal(t, StandardFormat, dump.Format)
	require.Equal(t, stringEncoding, dump.LeafEncoding)
	require.Empty(t, dump.Hash)

	loaded, err := LoadStandard(dump)
	require.NoError(t, err)
	require.Equal(t, tree.Root(), loaded.Root())
	require.NoError(t, loaded.Validate())

	// Dumping the loaded tree reproduces JSON equivalent to the original dump
	first, err := json.Marshal(dump)
	require.NoError(t, err)
	redump, err := loaded.Dump()
	require.NoError(t, err)
	second, err := json.Marshal(redump)
	require.NoError(t, err)
	require.JSONEq(t, string(first), string(second))

	// Proofs from the loaded tree verify against the original root
	proof, err := loaded.GetProofForValue([]any{"c"})
	require.NoError(t, err)
	require.True(t, VerifyStandard(tree.Root(), stringEncoding, []any{"c"}, proof))
}

// TestStandardTreeLoadErrors tests dump rejection at the boundary
func TestStandardTreeLoadErrors(t *testing.T) {
	tree, err := NewStandardTree(charValues("abc"), stringEncoding)
	require.NoError(t, err)
	dump, err := tree.Dump()
	require.NoError(t, err)

	t.Run("Nil dump", func(t *testing.T) {
		_, err := LoadStandard(nil)
		require.ErrorIs(t, err, merkle.ErrInvalidArgument)
	})

	t.Run("Unknown format", func(t *testing.T) {
		bad := *dump
		bad.Format = SimpleFormat
		_, err := LoadStandard(&bad)
		require.ErrorIs(t, err, merkle.ErrInvalidArgument)
		require.Contains(t, err.Error(), "unknown format")
	})

	t.Run("Missing leaf encoding", func(t *testing.T) {
		bad := *dump
		bad.LeafEncoding = nil
		_, err := LoadStandard(&bad)
		require.ErrorIs(t, err, merkle.ErrInvalidArgument)
	})

	t.Run("Unexpected hash tag", func(t *testing.T) {
		bad := *dump
		bad.Hash = CustomHashTag
		_, err := LoadStandard(&bad)
		require.ErrorIs(t, err, merkle.ErrInvalidArgument)
	})

	t.Run("Tampered tree node", func(t *testing.T) {
		bad := *dump
		bad.Tree = append([]common.Hash(nil), dump.Tree...)
		bad.Tree[1][0] ^= 0xff
		_, err := LoadStandard(&bad)
		require.ErrorIs(t, err, merkle.ErrInvariant)
	})

	t.Run("Tampered value", func(t *testing.T) {
		bad := *dump
		bad.Values = append([]DumpValue(nil), dump.Values...)
		bad.Values[0].Value = json.RawMessage(`["tampered"]`)
		_, err := LoadStandard(&bad)
		require.ErrorIs(t, err, merkle.ErrInvariant)
	})
}

// TestStandardTreeConstructionErrors tests rejection of malformed inputs
func TestStandardTreeConstructionErrors(t *testing.T) {
	t.Run("Empty values", func(t *testing.T) {
		_, err := NewStandardTree(nil, stringEncoding)
		require.ErrorIs(t, err, merkle.ErrInvalidArgument)
	})

	t.Run("Empty encoding", func(t *testing.T) {
		_, err := NewStandardTree(charValues("ab"), nil)
		require.ErrorIs(t, err, merkle.ErrInvalidArgument)
	})

	t.Run("Arity mismatch", func(t *testing.T) {
		_, err := NewStandardTree([][]any{{"a", "b"}}, stringEncoding)
		require.ErrorIs(t, err, merkle.ErrInvalidArgument)
	})

	t.Run("Custom node hash refused", func(t *testing.T) {
		_, err := NewStandardTree(charValues("ab"), stringEncoding,
			WithNodeHash(merkle.StandardNodeHash))
		require.ErrorIs(t, err, merkle.ErrInvalidArgument)
	})
}

// TestStandardTreeUnsorted tests construction with leaf sorting disabled
func TestStandardTreeUnsorted(t *testing.T) {
	tree, err := NewStandardTree(charValues("abcd"), stringEncoding, WithSortLeaves(false))
	require.NoError(t, err)
	require.NoError(t, tree.Validate())

	// Input order is preserved: value k lands at tree index size-1-k
	dump, err := tree.Dump()
	require.NoError(t, err)
	for k, dv := range dump.Values {
		require.Equal(t, len(dump.Tree)-1-k, dv.TreeIndex)
	}

	for _, entry := range tree.Entries() {
		proof, err := tree.GetProof(entry.Index)
		require.NoError(t, err)
		require.True(t, VerifyStandard(tree.Root(), stringEncoding, entry.Value, proof))
	}
}

// TestStandardTreeDuplicatedValues tests that identical tuples coexist
func TestStandardTreeDuplicatedValues(t *testing.T) {
	tree, err := NewStandardTree([][]any{{"a"}, {"a"}, {"b"}}, stringEncoding)
	require.NoError(t, err)
	require.NoError(t, tree.Validate())

	for _, entry := range tree.Entries() {
		proof, err := tree.GetProof(entry.Index)
		require.NoError(t, err)
		ok, err := tree.Verify(entry.Index, proof)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

// TestStandardTreeTypedTuples tests a multi-field encoding with mixed
// value representations
func TestStandardTreeTypedTuples(t *testing.T) {
	encoding := []string{"address", "uint256"}
	values := [][]any{
		{"0x1111111111111111111111111111111111111111", big.NewInt(100)},
		{"0x2222222222222222222222222222222222222222", "200"},
		{common.HexToAddress("0x3333333333333333333333333333333333333333"), json.Number("300")},
	}

	tree, err := NewStandardTree(values, encoding)
	require.NoError(t, err)
	require.NoError(t, tree.Validate())

	dump, err := tree.Dump()
	require.NoError(t, err)
	loaded, err := LoadStandard(dump)
	require.NoError(t, err)
	require.Equal(t, tree.Root(), loaded.Root())

	// Equivalent representations hash to the same leaf
	h1, err := tree.LeafHash([]any{"0x2222222222222222222222222222222222222222", big.NewInt(200)})
	require.NoError(t, err)
	h2, err := tree.LeafHash(values[1])
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

// TestStandardTreeAccessors tests Len, At, and Entries
func TestStandardTreeAccessors(t *testing.T) {
	values := charValues("abc")
	tree, err := NewStandardTree(values, stringEncoding)
	require.NoError(t, err)

	require.Equal(t, 3, tree.Len())

	for i, expected := range values {
		got, ok := tree.At(i)
		require.True(t, ok)
		require.Equal(t, expected, got)
	}
	_, ok := tree.At(-1)
	require.False(t, ok)
	_, ok = tree.At(3)
	require.False(t, ok)

	entries := tree.Entries()
	require.Len(t, entries, 3)
	for i, entry := range entries {
		require.Equal(t, i, entry.Index)
		require.Equal(t, values[i], entry.Value)
	}
}
