package merkle

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Render draws the tree as an ASCII diagram, one node per line in the form
// "<indent><branch>N) 0x...", where N is the flat-array index. Traversal is
// pre-order, left child first, so output is stable for a given tree.
func Render(tree []common.Hash) (string, error) {
	if len(tree) == 0 {
		return "", errors.Wrap(ErrInvalidArgument, "expected non-zero number of nodes")
	}

	// Each path entry records whether the node is its parent's last child
	// (0) or has a sibling rendered below it (1). The last entry selects
	// the branch glyph; earlier entries select the vertical continuation.
	type frame struct {
		index int
		path  []byte
	}
	stack := []frame{{index: 0}}
	lines := make([]string, 0, len(tree))

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var sb strings.Builder
		for k, p := range top.path {
			switch {
			case k == len(top.path)-1 && p == 0:
				sb.WriteString("└─ ")
			case k == len(top.path)-1:
				sb.WriteString("├─ ")
			case p == 0:
				sb.WriteString("   ")
			default:
				sb.WriteString("│  ")
			}
		}
		sb.WriteString(strconv.Itoa(top.index))
		sb.WriteString(") ")
		sb.WriteString(tree[top.index].Hex())
		lines = append(lines, sb.String())

		if rightChildIndex(top.index) < len(tree) {
			right := append(append([]byte(nil), top.path...), 0)
			left := append(append([]byte(nil), top.path...), 1)
			stack = append(stack, frame{rightChildIndex(top.index), right})
			stack = append(stack, frame{leftChildIndex(top.index), left})
		}
	}
	return strings.Join(lines, "\n"), nil
}
