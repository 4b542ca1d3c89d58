package heights

import (
	"errors"
	"fmt"
)

// DefaultThreshold is the measurement noise floor, in rows of output. Deltas smaller than
// this are treated as jitter and dropped.
const DefaultThreshold = 5

var ErrNegativeSize = errors.New("negative size")

// EstimateFunc returns the size to assume for a row that has not been measured yet.
type EstimateFunc func(index int) int

// EstimateConst returns an EstimateFunc that always yields n.
func EstimateConst(n int) EstimateFunc {
	return func(int) int { return n }
}

// EstimateByDepth scales the estimate with nesting depth. depthOf is usually backed by the
// current flat sequence, so estimates move when the sequence does; callers must reset the
// cache from the first shifted index when that happens.
func EstimateByDepth(base, perDepth int, depthOf func(index int) int) EstimateFunc {
	return func(i int) int {
		d := 0
		if depthOf != nil {
			d = depthOf(i)
		}
		n := base + perDepth*d
		if n < 0 {
			return 0
		}
		return n
	}
}

type Options struct {
	Estimate EstimateFunc

	// Threshold is the absolute noise floor. Zero means DefaultThreshold; use a negative
	// value to accept every change.
	Threshold int

	// RelativeThreshold, when > 0, raises the noise floor to this fraction of the row's
	// estimate for large rows.
	RelativeThreshold float64
}

// Cache is a sparse index -> measured size map with estimate fallback.
//
// It tracks the lowest index whose effective size changed since the last TakeStale, so
// the window core can rebuild its prefix sums from there on its next query.
type Cache struct {
	estimate  EstimateFunc
	threshold int
	relative  float64

	count    int
	measured map[int]int

	staleFrom int // -1 when clean

	// First row whose estimate came back negative since the last TakeNegativeEstimate.
	negIndex int
	negSize  int
	negSeen  bool
}

func New(count int, opts Options) *Cache {
	if count < 0 {
		count = 0
	}
	est := opts.Estimate
	if est == nil {
		est = EstimateConst(1)
	}
	th := opts.Threshold
	if th == 0 {
		th = DefaultThreshold
	}
	if th < 0 {
		th = 0
	}
	return &Cache{
		estimate:  est,
		threshold: th,
		relative:  opts.RelativeThreshold,
		count:     count,
		measured:  map[int]int{},
		staleFrom: 0,
	}
}

func (c *Cache) Len() int {
	return c.count
}

// SetEstimate swaps the estimate function. Every unmeasured row may change size, so the
// whole cache is marked stale (measurements are kept).
func (c *Cache) SetEstimate(est EstimateFunc) {
	if est == nil {
		est = EstimateConst(1)
	}
	c.estimate = est
	c.markStale(0)
}

// SetCount resizes the index space. Measurements at or past the new count are dropped.
func (c *Cache) SetCount(n int) {
	if n < 0 {
		n = 0
	}
	if n == c.count {
		return
	}
	lo := n
	if c.count < lo {
		lo = c.count
	}
	if n < c.count {
		for i := range c.measured {
			if i >= n {
				delete(c.measured, i)
			}
		}
	}
	c.count = n
	c.markStale(lo)
}

// Get returns the effective size of row i: the measurement if there is one, else the estimate.
func (c *Cache) Get(i int) int {
	if v, ok := c.measured[i]; ok {
		return v
	}
	v := c.estimate(i)
	if v < 0 {
		if !c.negSeen {
			c.negIndex, c.negSize, c.negSeen = i, v, true
		}
		return 0
	}
	return v
}

// TakeNegativeEstimate reports the first row whose estimate was negative (and was read as
// 0) since the previous call, and clears the report.
func (c *Cache) TakeNegativeEstimate() (index, size int, ok bool) {
	if !c.negSeen {
		return 0, 0, false
	}
	c.negSeen = false
	return c.negIndex, c.negSize, true
}

// Measured reports the recorded measurement for row i, if any.
func (c *Cache) Measured(i int) (int, bool) {
	if i < 0 || i >= c.count {
		return 0, false
	}
	v, ok := c.measured[i]
	return v, ok
}

// MeasuredCount returns how many rows currently carry a measurement.
func (c *Cache) MeasuredCount() int {
	return len(c.measured)
}

func (c *Cache) thresholdFor(i int) int {
	th := c.threshold
	if c.relative > 0 {
		if rel := int(c.relative * float64(c.estimate(i))); rel > th {
			th = rel
		}
	}
	return th
}

// Record stores a measurement for row i.
//
// Indices outside the current count are ignored (the row was removed between render and
// measurement). Changes below the noise threshold are ignored. changed reports whether
// the effective size moved.
func (c *Cache) Record(i, size int) (changed bool, err error) {
	if size < 0 {
		return false, fmt.Errorf("record row %d: %w (%d)", i, ErrNegativeSize, size)
	}
	if i < 0 || i >= c.count {
		return false, nil
	}
	prev := c.Get(i)
	delta := size - prev
	if delta < 0 {
		delta = -delta
	}
	if delta == 0 || delta < c.thresholdFor(i) {
		return false, nil
	}
	c.measured[i] = size
	c.markStale(i)
	return true, nil
}

// ResetFrom discards every measurement at or after i.
func (c *Cache) ResetFrom(i int) {
	if i < 0 {
		i = 0
	}
	for k := range c.measured {
		if k >= i {
			delete(c.measured, k)
		}
	}
	c.markStale(i)
}

// ResetAll discards every measurement. Used when the collection itself is swapped.
func (c *Cache) ResetAll() {
	c.measured = map[int]int{}
	c.markStale(0)
}

func (c *Cache) markStale(i int) {
	if c.staleFrom < 0 || i < c.staleFrom {
		c.staleFrom = i
	}
}

// TakeStale returns the lowest index whose effective size may have changed since the
// previous call, and clears the mark.
func (c *Cache) TakeStale() (from int, ok bool) {
	if c.staleFrom < 0 {
		return 0, false
	}
	from = c.staleFrom
	c.staleFrom = -1
	return from, true
}
