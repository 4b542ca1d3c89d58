package tree

import (
	"errors"
	"fmt"
	"strings"

	"feedwin/internal/model"
)

var ErrMaxDepth = errors.New("max depth must be >= 0")

// Flatten walks roots depth-first, pre-order. A node's children follow it iff the node is
// in expanded and sits above maxDepth; nodes at maxDepth are emitted but never opened.
//
// Each id is emitted at most once, so shared or cyclic children can't loop the walk.
func Flatten(roots []*model.Node, expanded map[string]bool, maxDepth int) ([]model.Row, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("flatten: %w (got %d)", ErrMaxDepth, maxDepth)
	}
	var out []model.Row
	seen := map[string]bool{}
	var walk func(n *model.Node, depth int, parentID string)
	walk = func(n *model.Node, depth int, parentID string) {
		if n == nil {
			return
		}
		id := strings.TrimSpace(n.ID)
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		open := expanded[id] && depth < maxDepth
		out = append(out, model.Row{
			Index:       len(out),
			ID:          id,
			ParentID:    parentID,
			Depth:       depth,
			HasChildren: len(n.Children) > 0,
			Expanded:    open,
			Payload:     n.Payload,
		})
		if !open {
			return
		}
		for _, ch := range n.Children {
			walk(ch, depth+1, id)
		}
	}
	for _, r := range roots {
		walk(r, 0, "")
	}
	return out, nil
}
