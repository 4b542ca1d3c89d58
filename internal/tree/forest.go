package tree

import (
	"sort"
	"strings"

	"feedwin/internal/model"
)

// BuildForest turns flat records with parent ids into a node forest (payload = the item).
//
// Siblings are ordered oldest-first, keeping input order for equal timestamps. Records whose
// parent is missing become roots so a deleted parent doesn't orphan its replies. Records
// without an id are dropped; duplicate ids keep the first occurrence.
func BuildForest(items []model.Item) []*model.Node {
	nodes := make(map[string]*model.Node, len(items))
	order := make([]model.Item, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ID)
		if id == "" || nodes[id] != nil {
			continue
		}
		it.ID = id
		it.ParentID = strings.TrimSpace(it.ParentID)
		nodes[id] = &model.Node{ID: id, Payload: it}
		order = append(order, it)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].CreatedAt.Before(order[j].CreatedAt)
	})

	var roots []*model.Node
	for _, it := range order {
		n := nodes[it.ID]
		parent := nodes[it.ParentID]
		if it.ParentID == "" || parent == nil || it.ParentID == it.ID {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	// Parent cycles leave nodes unreachable from any root; surface them at the top level.
	reached := map[string]bool{}
	var mark func(ns []*model.Node)
	mark = func(ns []*model.Node) {
		for _, n := range ns {
			if reached[n.ID] {
				continue
			}
			reached[n.ID] = true
			mark(n.Children)
		}
	}
	mark(roots)
	for _, it := range order {
		if reached[it.ID] {
			continue
		}
		n := nodes[it.ID]
		roots = append(roots, n)
		mark([]*model.Node{n})
	}
	return roots
}

// CountNodes returns the number of distinct nodes reachable from roots.
func CountNodes(roots []*model.Node) int {
	seen := map[string]bool{}
	var walk func(ns []*model.Node)
	walk = func(ns []*model.Node) {
		for _, n := range ns {
			if n == nil || seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			walk(n.Children)
		}
	}
	walk(roots)
	return len(seen)
}
