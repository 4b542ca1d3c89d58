package window

import (
	"errors"
	"fmt"
	"sort"

	"feedwin/internal/model"
)

// ErrContract marks caller bugs: negative offsets or sizes, empty viewports, negative overscan.
var ErrContract = errors.New("window contract violation")

func contractErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContract, fmt.Sprintf(format, args...))
}

func validate(scrollOffset, viewportSize, overscan int) error {
	if scrollOffset < 0 {
		return contractErr("scroll offset %d < 0", scrollOffset)
	}
	if viewportSize <= 0 {
		return contractErr("viewport size %d <= 0", viewportSize)
	}
	if overscan < 0 {
		return contractErr("overscan %d < 0", overscan)
	}
	return nil
}

// offsets is the cumulative-size index. ends[i] is the bottom edge of row i, so the top
// edge of row i is ends[i-1] (or 0). Entries at or past valid are stale and get rebuilt on
// the next query.
type offsets struct {
	ends  []int
	valid int
}

type sizer interface {
	Len() int
	Get(i int) int
	TakeStale() (int, bool)
}

func (o *offsets) sync(s sizer) {
	if from, ok := s.TakeStale(); ok && from < o.valid {
		o.valid = from
	}
	n := s.Len()
	if n != len(o.ends) {
		if n <= cap(o.ends) {
			o.ends = o.ends[:n]
		} else {
			next := make([]int, n, n+n/4)
			copy(next, o.ends[:o.valid])
			o.ends = next
		}
		if o.valid > n {
			o.valid = n
		}
	}
	if o.valid < 0 {
		o.valid = 0
	}
	for i := o.valid; i < n; i++ {
		prev := 0
		if i > 0 {
			prev = o.ends[i-1]
		}
		o.ends[i] = prev + s.Get(i)
	}
	o.valid = n
}

func (o *offsets) total() int {
	if len(o.ends) == 0 {
		return 0
	}
	return o.ends[len(o.ends)-1]
}

// top returns the top edge of row i. i == len is the total size.
func (o *offsets) top(i int) int {
	if i <= 0 || len(o.ends) == 0 {
		return 0
	}
	if i > len(o.ends) {
		i = len(o.ends)
	}
	return o.ends[i-1]
}

// indexAt returns the first row whose bottom edge is past offset, clamped to the last row.
func (o *offsets) indexAt(offset int) int {
	n := len(o.ends)
	if n == 0 {
		return 0
	}
	i := sort.Search(n, func(i int) bool { return o.ends[i] > offset })
	if i >= n {
		i = n - 1
	}
	return i
}

func (o *offsets) visible(scrollOffset, viewportSize, overscan int) model.Range {
	n := len(o.ends)
	if n == 0 {
		return model.EmptyRange()
	}
	first := o.indexAt(scrollOffset)
	last := o.indexAt(scrollOffset + viewportSize)
	first -= overscan
	if first < 0 {
		first = 0
	}
	last += overscan
	if last > n-1 {
		last = n - 1
	}
	return model.Range{First: first, Last: last}
}

type funcSizer struct {
	n      int
	sizeOf func(int) int
}

func (f funcSizer) Len() int               { return f.n }
func (f funcSizer) Get(i int) int          { return f.sizeOf(i) }
func (f funcSizer) TakeStale() (int, bool) { return 0, true }

// ComputeVisibleRange returns the rows covering [scrollOffset, scrollOffset+viewportSize],
// widened by overscan rows on each side and clamped to the sequence. sizeOf must return
// each row's effective size. An empty sequence yields the empty range.
func ComputeVisibleRange(scrollOffset, viewportSize, rowCount int, sizeOf func(int) int, overscan int) (model.Range, error) {
	if err := validate(scrollOffset, viewportSize, overscan); err != nil {
		return model.EmptyRange(), err
	}
	if rowCount < 0 {
		return model.EmptyRange(), contractErr("row count %d < 0", rowCount)
	}
	if rowCount == 0 {
		return model.EmptyRange(), nil
	}
	if sizeOf == nil {
		return model.EmptyRange(), contractErr("nil size function")
	}
	for i := 0; i < rowCount; i++ {
		if s := sizeOf(i); s < 0 {
			return model.EmptyRange(), contractErr("row %d size %d < 0", i, s)
		}
	}
	var o offsets
	o.sync(funcSizer{n: rowCount, sizeOf: sizeOf})
	return o.visible(scrollOffset, viewportSize, overscan), nil
}
