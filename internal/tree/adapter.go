package tree

import (
	"strings"

	"feedwin/internal/model"
)

// Invalidator is the slice of the height cache the adapter needs.
type Invalidator interface {
	SetCount(n int)
	ResetFrom(i int)
	ResetAll()
}

type Options struct {
	MaxDepth int

	// Expanded seeds the expanded-id set. The adapter copies it.
	Expanded map[string]bool

	Heights Invalidator

	// OnToggleExpand fires after a toggle opened or closed a row.
	OnToggleExpand func(id string, expanded bool)
}

// Adapter flattens a forest into the window.Sequence the list renders, and keeps the
// height cache consistent across expand/collapse.
type Adapter struct {
	roots    []*model.Node
	expanded map[string]bool
	maxDepth int
	rows     []model.Row
	index    map[string]int

	heights  Invalidator
	onToggle func(string, bool)
}

func New(roots []*model.Node, opts Options) (*Adapter, error) {
	a := &Adapter{
		roots:    roots,
		expanded: map[string]bool{},
		maxDepth: opts.MaxDepth,
		heights:  opts.Heights,
		onToggle: opts.OnToggleExpand,
	}
	for id, v := range opts.Expanded {
		if v {
			a.expanded[id] = true
		}
	}
	if err := a.reflatten(); err != nil {
		return nil, err
	}
	if a.heights != nil {
		a.heights.SetCount(len(a.rows))
	}
	return a, nil
}

func (a *Adapter) reflatten() error {
	rows, err := Flatten(a.roots, a.expanded, a.maxDepth)
	if err != nil {
		return err
	}
	a.rows = rows
	a.index = make(map[string]int, len(rows))
	for i, r := range rows {
		a.index[r.ID] = i
	}
	return nil
}

func (a *Adapter) Len() int {
	return len(a.rows)
}

func (a *Adapter) Row(i int) model.Row {
	return a.rows[i]
}

// Rows returns the current flat sequence. Callers must not modify it.
func (a *Adapter) Rows() []model.Row {
	return a.rows
}

// Depth returns the depth of row i, or 0 when i is out of range. It backs depth-scaled
// height estimates.
func (a *Adapter) Depth(i int) int {
	if i < 0 || i >= len(a.rows) {
		return 0
	}
	return a.rows[i].Depth
}

// IndexOf returns the position of id in the current flat sequence, or -1.
func (a *Adapter) IndexOf(id string) int {
	if i, ok := a.index[strings.TrimSpace(id)]; ok {
		return i
	}
	return -1
}

// ExpandedIDs returns a copy of the expanded set.
func (a *Adapter) ExpandedIDs() map[string]bool {
	out := make(map[string]bool, len(a.expanded))
	for id := range a.expanded {
		out[id] = true
	}
	return out
}

// ToggleExpand flips id's expansion and re-flattens. Everything above the toggled row is
// unaffected, so the height cache is reset from that row onward only. Ids not present in
// the current sequence (e.g. a toggle that raced a refresh) are ignored, and so are rows
// that cannot open: leaves and rows sitting at maxDepth.
func (a *Adapter) ToggleExpand(id string) bool {
	id = strings.TrimSpace(id)
	at := a.IndexOf(id)
	if at < 0 {
		return false
	}
	row := a.rows[at]
	if row.Expanded {
		delete(a.expanded, id)
	} else {
		if !a.CanExpand(row) {
			return false
		}
		a.expanded[id] = true
	}
	_ = a.reflatten()
	if a.heights != nil {
		a.heights.SetCount(len(a.rows))
		a.heights.ResetFrom(at)
	}
	if a.onToggle != nil {
		a.onToggle(id, a.expanded[id])
	}
	return true
}

// CanExpand reports whether row has children that expanding would show.
func (a *Adapter) CanExpand(row model.Row) bool {
	return row.HasChildren && row.Depth < a.maxDepth
}

// Expand opens id if it is visible and closed.
func (a *Adapter) Expand(id string) bool {
	at := a.IndexOf(id)
	if at < 0 || a.rows[at].Expanded {
		return false
	}
	return a.ToggleExpand(id)
}

// Collapse closes id if it is visible and open.
func (a *Adapter) Collapse(id string) bool {
	at := a.IndexOf(id)
	if at < 0 || !a.rows[at].Expanded {
		return false
	}
	return a.ToggleExpand(id)
}

// ExpandAll opens every node that has children, down to maxDepth.
func (a *Adapter) ExpandAll() {
	var walk func(ns []*model.Node, depth int)
	seen := map[string]bool{}
	walk = func(ns []*model.Node, depth int) {
		for _, n := range ns {
			if n == nil || seen[n.ID] || depth >= a.maxDepth {
				continue
			}
			seen[n.ID] = true
			if len(n.Children) > 0 {
				a.expanded[strings.TrimSpace(n.ID)] = true
				walk(n.Children, depth+1)
			}
		}
	}
	walk(a.roots, 0)
	a.resetStructure(0)
}

// CollapseAll closes every node.
func (a *Adapter) CollapseAll() {
	a.expanded = map[string]bool{}
	a.resetStructure(0)
}

// SetRoots swaps the forest. Expansion state is kept for ids that survive; measurements
// are dropped because the collection itself changed.
func (a *Adapter) SetRoots(roots []*model.Node) {
	a.roots = roots
	_ = a.reflatten()
	if a.heights != nil {
		a.heights.SetCount(len(a.rows))
		a.heights.ResetAll()
	}
}

func (a *Adapter) resetStructure(from int) {
	_ = a.reflatten()
	if a.heights != nil {
		a.heights.SetCount(len(a.rows))
		a.heights.ResetFrom(from)
	}
}
