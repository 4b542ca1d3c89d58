package model

import (
	"strconv"
	"time"
)

// Row is one entry of the flat sequence handed to the window core.
//
// Index is positional and is reassigned whenever the sequence changes; ID is stable
// across re-flattens and is what observers and scroll anchors key on.
type Row struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	ParentID    string `json:"parentId,omitempty"`
	Depth       int    `json:"depth"`
	HasChildren bool   `json:"hasChildren,omitempty"`
	Expanded    bool   `json:"expanded,omitempty"`

	// Payload is caller-owned and never inspected by the engine.
	Payload any `json:"-"`
}

// Range is an inclusive index range. The empty range is {0, -1}.
type Range struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

func EmptyRange() Range {
	return Range{First: 0, Last: -1}
}

func (r Range) Empty() bool {
	return r.Last < r.First
}

func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.Last - r.First + 1
}

func (r Range) Contains(i int) bool {
	return !r.Empty() && i >= r.First && i <= r.Last
}

// Node is one element of a caller-supplied forest. Expansion state is not stored here:
// the tree adapter owns the expanded-id set.
type Node struct {
	ID       string
	Payload  any
	Children []*Node
}

// Item is the record format of feed and thread files.
type Item struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parentId,omitempty"`
	Author    string    `json:"author,omitempty"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Identity returns the item's id, falling back to its position when the id is empty.
// The fallback loses move detection but keeps rows addressable.
func (it Item) Identity(index int) string {
	if it.ID != "" {
		return it.ID
	}
	return "#" + strconv.Itoa(index)
}
