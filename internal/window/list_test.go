package window

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"feedwin/internal/heights"
	"feedwin/internal/logging"
	"feedwin/internal/model"
)

type idSeq []string

func (s idSeq) Len() int { return len(s) }
func (s idSeq) Row(i int) model.Row {
	return model.Row{Index: i, ID: s[i]}
}

func makeSeq(n int) idSeq {
	out := make(idSeq, n)
	for i := range out {
		out[i] = fmt.Sprintf("row-%d", i)
	}
	return out
}

func newTestList(t *testing.T, n, estimate, overscan int) *List {
	t.Helper()
	c := heights.New(n, heights.Options{Estimate: heights.EstimateConst(estimate)})
	l, err := New(makeSeq(n), c, Options{Overscan: overscan, Strict: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func TestVisibleRange_LargeFeedAtTop(t *testing.T) {
	l := newTestList(t, 10000, 400, 3)

	r, err := l.VisibleRange(0, 800)
	if err != nil {
		t.Fatalf("VisibleRange: %v", err)
	}
	if r != (model.Range{First: 0, Last: 5}) {
		t.Fatalf("expected range 0-5; got %+v", r)
	}
	if got := l.TotalSize(); got != 4000000 {
		t.Fatalf("expected total 4000000; got %d", got)
	}
}

func TestComputeVisibleRange_MatchesList(t *testing.T) {
	sizes := []int{3, 10, 0, 7, 1, 1, 22, 4, 9}
	sizeOf := func(i int) int { return sizes[i] }
	total := 0
	for _, s := range sizes {
		total += s
	}
	c := heights.New(len(sizes), heights.Options{Estimate: sizeOf})
	l, err := New(makeSeq(len(sizes)), c, Options{Overscan: 1, Strict: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for off := 0; off <= total+5; off++ {
		for _, vp := range []int{1, 4, 13} {
			want, err := ComputeVisibleRange(off, vp, len(sizes), sizeOf, 1)
			if err != nil {
				t.Fatalf("ComputeVisibleRange: %v", err)
			}
			got, err := l.VisibleRange(off, vp)
			if err != nil {
				t.Fatalf("VisibleRange: %v", err)
			}
			if got != want {
				t.Fatalf("offset=%d viewport=%d: expected %+v; got %+v", off, vp, want, got)
			}
		}
	}
}

func TestVisibleRange_CoversViewport(t *testing.T) {
	sizes := []int{5, 1, 12, 3, 3, 0, 8, 40, 2, 6, 6, 1}
	n := len(sizes)
	sizeOf := func(i int) int { return sizes[i] }
	top := func(i int) int {
		sum := 0
		for k := 0; k < i; k++ {
			sum += sizes[k]
		}
		return sum
	}
	firstPast := func(y int) int {
		for i := 0; i < n; i++ {
			if top(i+1) > y {
				return i
			}
		}
		return n - 1
	}
	total := top(n)
	const overscan = 2
	for off := 0; off < total; off++ {
		for vp := 1; vp <= 20; vp++ {
			r, err := ComputeVisibleRange(off, vp, n, sizeOf, overscan)
			if err != nil {
				t.Fatalf("ComputeVisibleRange: %v", err)
			}
			innerFirst, innerLast := firstPast(off), firstPast(off+vp)
			if top(innerFirst) > off {
				t.Fatalf("offset=%d viewport=%d: band starts at %d past offset", off, vp, top(innerFirst))
			}
			if innerLast < n-1 && top(innerLast+1) < off+vp {
				t.Fatalf("offset=%d viewport=%d: band ends at %d before %d", off, vp, top(innerLast+1), off+vp)
			}
			want := model.Range{First: max(0, innerFirst-overscan), Last: min(n-1, innerLast+overscan)}
			if r != want {
				t.Fatalf("offset=%d viewport=%d: expected %+v; got %+v", off, vp, want, r)
			}
		}
	}
}

func TestVisibleRange_EmptySequence(t *testing.T) {
	l := newTestList(t, 0, 10, 3)
	r, err := l.VisibleRange(0, 100)
	if err != nil {
		t.Fatalf("VisibleRange: %v", err)
	}
	if !r.Empty() {
		t.Fatalf("expected empty range; got %+v", r)
	}
	if l.TotalSize() != 0 {
		t.Fatalf("expected zero total; got %d", l.TotalSize())
	}
	calls := 0
	if _, err := l.Render(0, 100, func(model.Row, Style) { calls++ }); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no rows rendered; got %d", calls)
	}
}

func TestVisibleRange_PastEndClampsToLastRow(t *testing.T) {
	l := newTestList(t, 10, 10, 0)
	r, err := l.VisibleRange(5000, 30)
	if err != nil {
		t.Fatalf("VisibleRange: %v", err)
	}
	if r != (model.Range{First: 9, Last: 9}) {
		t.Fatalf("expected last row only; got %+v", r)
	}
}

func TestOffsets_Monotonic(t *testing.T) {
	l := newTestList(t, 50, 7, 0)
	for i := 0; i < 50; i += 3 {
		if _, err := l.Cache().Record(i, (i*13)%29); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	for i := 0; i < 50; i++ {
		if l.OffsetOf(i) > l.OffsetOf(i+1) {
			t.Fatalf("offsets not monotonic at %d: %d > %d", i, l.OffsetOf(i), l.OffsetOf(i+1))
		}
	}
	if l.OffsetOf(50) != l.TotalSize() {
		t.Fatalf("expected OffsetOf(len) == TotalSize; got %d vs %d", l.OffsetOf(50), l.TotalSize())
	}
}

func TestRecord_ShiftsOnlyLaterOffsets(t *testing.T) {
	l := newTestList(t, 20, 400, 3)
	before := make([]int, 21)
	for i := range before {
		before[i] = l.OffsetOf(i)
	}

	changed, err := l.Cache().Record(5, 600)
	if err != nil || !changed {
		t.Fatalf("expected recorded change; got changed=%v err=%v", changed, err)
	}

	if got := l.OffsetOf(6) - before[6]; got != 200 {
		t.Fatalf("expected OffsetOf(6) to grow by 200; got %d", got)
	}
	if l.OffsetOf(4) != before[4] {
		t.Fatalf("expected OffsetOf(4) unchanged; got %d want %d", l.OffsetOf(4), before[4])
	}
	for j := 0; j <= 20; j++ {
		want := before[j]
		if j > 5 {
			want += 200
		}
		if got := l.OffsetOf(j); got != want {
			t.Fatalf("OffsetOf(%d): expected %d; got %d", j, want, got)
		}
	}
}

func TestRecord_BelowThresholdLeavesOffsets(t *testing.T) {
	l := newTestList(t, 10, 400, 0)
	before := l.OffsetOf(9)
	changed, err := l.Cache().Record(3, 403)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if changed {
		t.Fatalf("expected jitter below threshold to be ignored")
	}
	if l.OffsetOf(9) != before {
		t.Fatalf("expected offsets unchanged; got %d want %d", l.OffsetOf(9), before)
	}
}

func TestStrictList_RejectsContractViolations(t *testing.T) {
	l := newTestList(t, 10, 10, 0)
	if _, err := l.VisibleRange(-1, 10); !errors.Is(err, ErrContract) {
		t.Fatalf("expected ErrContract for negative offset; got %v", err)
	}
	if _, err := l.VisibleRange(0, 0); !errors.Is(err, ErrContract) {
		t.Fatalf("expected ErrContract for empty viewport; got %v", err)
	}
	if _, err := New(makeSeq(1), nil, Options{Overscan: -1, Strict: true}); !errors.Is(err, ErrContract) {
		t.Fatalf("expected ErrContract for negative overscan; got %v", err)
	}
	if _, err := ComputeVisibleRange(0, 10, 2, func(int) int { return -1 }, 0); !errors.Is(err, ErrContract) {
		t.Fatalf("expected ErrContract for negative size; got %v", err)
	}
}

func TestLenientList_ClampsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	c := heights.New(10, heights.Options{Estimate: heights.EstimateConst(10)})
	l, err := New(makeSeq(10), c, Options{Overscan: -2, Logger: logging.New(&buf, logging.Warn)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Overscan() != 0 {
		t.Fatalf("expected overscan clamped to 0; got %d", l.Overscan())
	}
	r, err := l.VisibleRange(-50, 25)
	if err != nil {
		t.Fatalf("expected lenient list to clamp; got %v", err)
	}
	if r != (model.Range{First: 0, Last: 2}) {
		t.Fatalf("expected range 0-2; got %+v", r)
	}
	if !strings.Contains(buf.String(), "clamped window input") {
		t.Fatalf("expected a warning to be logged; got %q", buf.String())
	}
}

func TestVisibleRangeChanged_FiresOnlyOnChange(t *testing.T) {
	var got []model.Range
	c := heights.New(100, heights.Options{Estimate: heights.EstimateConst(10)})
	l, err := New(makeSeq(100), c, Options{Strict: true, OnVisibleRangeChanged: func(r model.Range) { got = append(got, r) }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, _ = l.VisibleRange(0, 30)
	_, _ = l.VisibleRange(5, 30)
	_, _ = l.VisibleRange(100, 30)
	if len(got) != 2 {
		t.Fatalf("expected 2 range events; got %d (%+v)", len(got), got)
	}
	if got[1] != (model.Range{First: 10, Last: 13}) {
		t.Fatalf("unexpected second range %+v", got[1])
	}
}

func TestRender_PassesTopAndHeight(t *testing.T) {
	l := newTestList(t, 10, 4, 0)
	if _, err := l.Cache().Record(1, 20); err != nil {
		t.Fatalf("Record: %v", err)
	}
	var tops, ids []string
	r, err := l.Render(0, 25, func(row model.Row, st Style) {
		tops = append(tops, fmt.Sprintf("%d:%d+%d", row.Index, st.Top, st.Height))
		ids = append(ids, row.ID)
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if r != (model.Range{First: 0, Last: 2}) {
		t.Fatalf("unexpected range %+v", r)
	}
	want := "0:0+4 1:4+20 2:24+4"
	if strings.Join(tops, " ") != want {
		t.Fatalf("expected %q; got %q", want, strings.Join(tops, " "))
	}
	if ids[2] != "row-2" {
		t.Fatalf("expected row-2; got %q", ids[2])
	}
}

func TestSetSequence_NewCollectionDropsMeasurements(t *testing.T) {
	l := newTestList(t, 5, 10, 0)
	_, _ = l.Cache().Record(2, 40)
	l.SetSequence(makeSeq(5), true)
	if l.TotalSize() != 80 {
		t.Fatalf("expected measurements kept for same collection; total %d", l.TotalSize())
	}
	l.SetSequence(makeSeq(8), false)
	if l.TotalSize() != 80 {
		t.Fatalf("expected 8 estimated rows (80); got %d", l.TotalSize())
	}
	if l.Cache().MeasuredCount() != 0 {
		t.Fatalf("expected no measurements after swap; got %d", l.Cache().MeasuredCount())
	}
}

func TestVisibleRange_NegativeEstimate(t *testing.T) {
	c := heights.New(10, heights.Options{Estimate: heights.EstimateConst(-5)})
	strict, err := New(makeSeq(10), c, Options{Strict: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for attempt := 0; attempt < 2; attempt++ {
		if _, err := strict.VisibleRange(0, 10); !errors.Is(err, ErrContract) {
			t.Fatalf("attempt %d: expected ErrContract; got %v", attempt, err)
		}
	}

	var buf bytes.Buffer
	lenient, err := New(makeSeq(10), heights.New(10, heights.Options{Estimate: heights.EstimateConst(-5)}), Options{Logger: logging.New(&buf, logging.Warn)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r, err := lenient.VisibleRange(0, 10)
	if err != nil {
		t.Fatalf("expected lenient list to clamp; got %v", err)
	}
	if r.Empty() || lenient.TotalSize() != 0 {
		t.Fatalf("expected clamped zero-size rows; got %+v total=%d", r, lenient.TotalSize())
	}
	if !strings.Contains(buf.String(), "clamped negative estimate") {
		t.Fatalf("expected a warning; got %q", buf.String())
	}
}
