package feed

import (
	"feedwin/internal/model"
)

// DefaultLoadThreshold is how close (in rows) the visible range may get to the end of the
// feed before more rows are requested.
const DefaultLoadThreshold = 5

type State int

const (
	Idle State = iota
	Loading
)

func (s State) String() string {
	if s == Loading {
		return "loading"
	}
	return "idle"
}

// Invalidator is the slice of the height cache the adapter needs.
type Invalidator interface {
	ResetAll()
}

type Options struct {
	LoadThreshold int
	HasMore       bool

	// OnLoadMore is invoked once per Idle -> Loading transition.
	OnLoadMore func()

	Heights Invalidator
}

// Adapter exposes a flat item collection as a window.Sequence and gates load-more requests.
type Adapter struct {
	items     []model.Item
	threshold int
	hasMore   bool
	state     State

	onLoadMore func()
	heights    Invalidator
}

func New(items []model.Item, opts Options) *Adapter {
	th := opts.LoadThreshold
	if th <= 0 {
		th = DefaultLoadThreshold
	}
	return &Adapter{
		items:      items,
		threshold:  th,
		hasMore:    opts.HasMore,
		onLoadMore: opts.OnLoadMore,
		heights:    opts.Heights,
	}
}

func (a *Adapter) Len() int {
	return len(a.items)
}

func (a *Adapter) Row(i int) model.Row {
	it := a.items[i]
	return model.Row{Index: i, ID: it.Identity(i), Payload: it}
}

func (a *Adapter) State() State {
	return a.state
}

func (a *Adapter) HasMore() bool {
	return a.hasMore
}

// Observe must be called with every recomputed visible range. It emits at most one
// load-more request until the caller acknowledges it.
func (a *Adapter) Observe(r model.Range) bool {
	if a.state != Idle || !a.hasMore {
		return false
	}
	if !r.Empty() && r.Last < len(a.items)-a.threshold {
		return false
	}
	a.state = Loading
	if a.onLoadMore != nil {
		a.onLoadMore()
	}
	return true
}

// Append adds a page of rows and acknowledges the pending request. Existing measurements
// stay valid: appended rows only extend the index space.
func (a *Adapter) Append(hasMore bool, items ...model.Item) {
	a.items = append(a.items, items...)
	a.hasMore = hasMore
	a.state = Idle
}

// Done acknowledges a request that produced no rows (e.g. the source failed or ran dry).
func (a *Adapter) Done(hasMore bool) {
	a.hasMore = hasMore
	a.state = Idle
}

// Replace swaps the whole collection. Indices now refer to different items, so every
// measurement is discarded.
func (a *Adapter) Replace(items []model.Item, hasMore bool) {
	a.items = items
	a.hasMore = hasMore
	a.state = Idle
	if a.heights != nil {
		a.heights.ResetAll()
	}
}

// IndexOf returns the position of the item with the given identity, or -1.
func (a *Adapter) IndexOf(id string) int {
	for i, it := range a.items {
		if it.Identity(i) == id {
			return i
		}
	}
	return -1
}
