package window

import (
	"feedwin/internal/heights"
	"feedwin/internal/logging"
	"feedwin/internal/model"
)

// Sequence is the ordered row source the list windows over. The flat feed adapter and
// the tree adapter both implement it; the list never knows which one it has.
type Sequence interface {
	Len() int
	Row(i int) model.Row
}

// Style places a rendered row on the scroll track.
type Style struct {
	Top    int
	Height int
}

type Options struct {
	Overscan int

	// Strict returns contract violations to the caller. Non-strict lists clamp the bad input,
	// log it and carry on, so one bad row can't take down the whole view.
	Strict bool

	Logger logging.Logger

	OnVisibleRangeChanged func(model.Range)
}

// List is the stateful windowing core: a Sequence, its height cache and a lazily rebuilt
// offset index.
type List struct {
	seq   Sequence
	cache *heights.Cache
	off   offsets

	overscan int
	strict   bool
	log      logging.Logger
	onRange  func(model.Range)

	lastRange model.Range
	emitted   bool

	observers map[int]*Observer
}

func New(seq Sequence, cache *heights.Cache, opts Options) (*List, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	if cache == nil {
		cache = heights.New(0, heights.Options{})
	}
	l := &List{
		seq:       seq,
		cache:     cache,
		overscan:  opts.Overscan,
		strict:    opts.Strict,
		log:       log,
		onRange:   opts.OnVisibleRangeChanged,
		lastRange: model.EmptyRange(),
		observers: map[int]*Observer{},
	}
	if l.overscan < 0 {
		err := contractErr("overscan %d < 0", l.overscan)
		if l.strict {
			return nil, err
		}
		l.log.Warn("clamped overscan", logging.F("err", err))
		l.overscan = 0
	}
	return l, nil
}

func (l *List) Cache() *heights.Cache {
	return l.cache
}

func (l *List) Sequence() Sequence {
	return l.seq
}

func (l *List) Overscan() int {
	return l.overscan
}

// Len is the current row count.
func (l *List) Len() int {
	if l.seq == nil {
		return 0
	}
	return l.seq.Len()
}

// SetSequence swaps the row source. When sameCollection is false every measurement is
// discarded: indices of the new source mean something else entirely.
func (l *List) SetSequence(seq Sequence, sameCollection bool) {
	l.seq = seq
	if !sameCollection {
		l.cache.ResetAll()
		l.detachAll()
	}
	_ = l.sync()
}

func (l *List) syncCount() {
	if n := l.Len(); l.cache.Len() != n {
		l.cache.SetCount(n)
	}
}

// sync brings the offset index up to date. A negative estimate is a contract violation:
// strict lists report it and keep the row stale so every later query reports it again;
// other lists read it as 0 and log it.
func (l *List) sync() error {
	l.syncCount()
	l.off.sync(l.cache)
	i, size, ok := l.cache.TakeNegativeEstimate()
	if !ok {
		return nil
	}
	err := contractErr("row %d estimated size %d < 0", i, size)
	if l.strict {
		if i < l.off.valid {
			l.off.valid = i
		}
		return err
	}
	l.log.Warn("clamped negative estimate", logging.F("err", err))
	return nil
}

// OffsetOf returns the top edge of row i. Indices past the end return TotalSize.
// Contract violations surface through VisibleRange; the accessors read negative estimates as 0.
func (l *List) OffsetOf(i int) int {
	_ = l.sync()
	return l.off.top(i)
}

// TotalSize is the sum of all effective sizes: the height of the scroll track.
func (l *List) TotalSize() int {
	_ = l.sync()
	return l.off.total()
}

// IndexAt returns the row under scroll offset y, clamped to the sequence.
func (l *List) IndexAt(y int) int {
	_ = l.sync()
	if y < 0 {
		y = 0
	}
	return l.off.indexAt(y)
}

// SizeOf is the effective size of row i.
func (l *List) SizeOf(i int) int {
	return l.cache.Get(i)
}

func (l *List) clamp(scrollOffset, viewportSize int) (int, int, error) {
	if err := validate(scrollOffset, viewportSize, l.overscan); err != nil {
		if l.strict {
			return 0, 0, err
		}
		l.log.Warn("clamped window input", logging.F("err", err))
		if scrollOffset < 0 {
			scrollOffset = 0
		}
		if viewportSize <= 0 {
			viewportSize = 1
		}
	}
	return scrollOffset, viewportSize, nil
}

// VisibleRange returns the rows to render for the given scroll offset and viewport,
// including overscan. OnVisibleRangeChanged fires when the result differs from the
// previous call's.
func (l *List) VisibleRange(scrollOffset, viewportSize int) (model.Range, error) {
	scrollOffset, viewportSize, err := l.clamp(scrollOffset, viewportSize)
	if err != nil {
		return model.EmptyRange(), err
	}
	if err := l.sync(); err != nil {
		return model.EmptyRange(), err
	}
	r := l.off.visible(scrollOffset, viewportSize, l.overscan)
	if !l.emitted || r != l.lastRange {
		l.lastRange = r
		l.emitted = true
		if l.onRange != nil {
			l.onRange(r)
		}
	}
	return r, nil
}

// Render computes the visible range and calls fn once per row in it, top to bottom.
// Observers of rows that left the range are detached before any row is rendered.
func (l *List) Render(scrollOffset, viewportSize int, fn func(row model.Row, st Style)) (model.Range, error) {
	r, err := l.VisibleRange(scrollOffset, viewportSize)
	if err != nil {
		return r, err
	}
	for i, o := range l.observers {
		if !r.Contains(i) {
			o.Detach()
		}
	}
	if fn == nil {
		return r, nil
	}
	for i := r.First; i <= r.Last; i++ {
		row := l.seq.Row(i)
		row.Index = i
		fn(row, Style{Top: l.off.top(i), Height: l.cache.Get(i)})
	}
	return r, nil
}
