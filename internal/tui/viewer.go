package tui

import (
	"fmt"
	"strings"

	"feedwin/internal/config"
	"feedwin/internal/feed"
	"feedwin/internal/heights"
	"feedwin/internal/logging"
	"feedwin/internal/model"
	"feedwin/internal/store"
	"feedwin/internal/tree"
	"feedwin/internal/window"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Mode int

const (
	ModeFeed Mode = iota
	ModeThread
)

func (m Mode) String() string {
	if m == ModeThread {
		return "thread"
	}
	return "feed"
}

// Options configures one viewer session.
type Options struct {
	Mode  Mode
	Title string

	// Key names the list for scroll persistence, e.g. "feed:/abs/path.jsonl".
	Key   string
	Items []model.Item

	// Reload re-reads the source. Nil disables the reload key.
	Reload func() ([]model.Item, error)

	Engine   config.EngineConfig
	PageSize int
	Markdown bool
	Theme    string
	Glyphs   string

	Scroll store.ScrollStore
	State  store.Store
	Logger logging.Logger
}

// pageMsg carries one page from the pager of generation gen. A reload starts a new
// generation, and pages from older ones are dropped.
type pageMsg struct {
	gen   int
	items []model.Item
	more  bool
}

type reloadMsg struct {
	items []model.Item
	err   error
}

const (
	defaultPageSize = 50
	// header + footer
	chromeLines = 2
	wheelStep   = 3
	// Re-render passes per update while measurements keep changing the layout.
	maxSettlePasses = 3
)

type viewerModel struct {
	opts Options
	log  logging.Logger
	keys keyMap
	spin spinner.Model

	cache *heights.Cache
	list  *window.List
	feed  *feed.Adapter
	pager *feed.Pager
	tree  *tree.Adapter
	view  *store.ViewState

	width  int
	height int
	ready  bool

	offset int
	saved  int
	cursor int
	follow bool
	rng    model.Range
	frame  string

	// Rendered rows keyed by id, width, selection and expansion.
	rendered map[string]string

	gen       int
	loading   bool
	reloading bool
	status    string
	err     error
}

func newViewerModel(opts Options) (viewerModel, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	log = log.With(logging.F("list", opts.Key), logging.F("mode", opts.Mode.String()))

	e := opts.Engine
	cache := heights.New(0, heights.Options{
		Estimate:          heights.EstimateConst(e.Estimate),
		Threshold:         e.Threshold,
		RelativeThreshold: e.RelativeThreshold,
	})
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := viewerModel{
		opts:     opts,
		log:      log,
		keys:     defaultKeyMap(),
		spin:     sp,
		cache:    cache,
		rng:      model.EmptyRange(),
		rendered: map[string]string{},
	}

	var seq window.Sequence
	switch opts.Mode {
	case ModeThread:
		vs, err := opts.State.LoadViewState()
		if err != nil {
			log.Warn("view state unreadable", logging.F("err", err))
		}
		m.view = vs
		a, err := tree.New(tree.BuildForest(opts.Items), tree.Options{
			MaxDepth: e.MaxDepth,
			Expanded: vs.ExpandedSet(opts.Key),
			Heights:  cache,
			OnToggleExpand: func(id string, expanded bool) {
				log.Debug("toggle expand", logging.F("id", id), logging.F("expanded", expanded))
			},
		})
		if err != nil {
			return viewerModel{}, err
		}
		if e.DepthEstimate != 0 {
			cache.SetEstimate(heights.EstimateByDepth(e.Estimate, e.DepthEstimate, a.Depth))
		}
		m.tree = a
		seq = a
	default:
		m.pager = feed.NewPager(opts.Items)
		first, more := m.pager.Next(m.pageSize())
		m.feed = feed.New(first, feed.Options{
			LoadThreshold: e.LoadThreshold,
			HasMore:       more,
			Heights:       cache,
			OnLoadMore:    func() { log.Debug("load more requested") },
		})
		seq = m.feed
	}

	list, err := window.New(seq, cache, window.Options{
		Overscan: e.Overscan,
		Strict:   e.Strict,
		Logger:   log,
		OnVisibleRangeChanged: func(r model.Range) {
			log.Debug("visible range", logging.F("first", r.First), logging.F("last", r.Last))
		},
	})
	if err != nil {
		return viewerModel{}, err
	}
	m.list = list
	m.restoreScroll()
	return m, nil
}

func (m viewerModel) Init() tea.Cmd { return nil }

func (m viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width != m.width {
			// Every measured height depends on the wrap width.
			m.cache.ResetAll()
			clear(m.rendered)
		}
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		return m, m.relayout()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scrollBy(-wheelStep)
		case tea.MouseButtonWheelDown:
			m.scrollBy(wheelStep)
		default:
			return m, nil
		}
		return m, m.relayout()

	case pageMsg:
		if msg.gen != m.gen {
			m.log.Debug("dropped stale page", logging.F("gen", msg.gen), logging.F("items", len(msg.items)))
			return m, nil
		}
		m.loading = false
		if len(msg.items) == 0 {
			m.feed.Done(msg.more)
		} else {
			m.feed.Append(msg.more, msg.items...)
		}
		m.log.Debug("page loaded", logging.F("items", len(msg.items)), logging.F("more", msg.more), logging.F("rows", m.feed.Len()))
		return m, m.relayout()

	case reloadMsg:
		m.reloading = false
		if msg.err != nil {
			m.err = msg.err
			m.log.Error("reload failed", logging.F("err", msg.err))
			return m, nil
		}
		m.err = nil
		m.applyReload(msg.items)
		return m, m.relayout()

	case spinner.TickMsg:
		if !m.loading && !m.reloading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m viewerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	vp := m.viewportHeight()
	m.status = ""
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Down):
		m.moveCursor(1)
	case key.Matches(msg, k.Up):
		m.moveCursor(-1)
	case key.Matches(msg, k.PageDown):
		m.scrollBy(vp)
	case key.Matches(msg, k.PageUp):
		m.scrollBy(-vp)
	case key.Matches(msg, k.Top):
		m.cursor = 0
		m.follow = true
	case key.Matches(msg, k.Bottom):
		m.cursor = max(m.list.Len()-1, 0)
		m.follow = true
	case key.Matches(msg, k.Toggle):
		m.toggleCursor()
	case key.Matches(msg, k.ExpandAll):
		if m.tree == nil {
			return m, nil
		}
		m.tree.ExpandAll()
		m.saveViewState()
	case key.Matches(msg, k.CollapseAll):
		if m.tree == nil {
			return m, nil
		}
		m.tree.CollapseAll()
		m.saveViewState()
	case key.Matches(msg, k.ResetScroll):
		m.resetScroll()
	case key.Matches(msg, k.Reload):
		if m.opts.Reload == nil || m.reloading {
			return m, nil
		}
		m.reloading = true
		return m, tea.Batch(m.reloadCmd(), m.spin.Tick)
	default:
		return m, nil
	}
	return m, m.relayout()
}

func (m *viewerModel) moveCursor(delta int) {
	m.cursor = clampInt(m.cursor+delta, 0, max(m.list.Len()-1, 0))
	m.follow = true
}

func (m *viewerModel) scrollBy(delta int) {
	m.offset = clampInt(m.offset+delta, 0, m.maxOffset(m.viewportHeight()))
	m.follow = false
}

func (m *viewerModel) toggleCursor() {
	if m.tree == nil || m.cursor >= m.tree.Len() {
		return
	}
	if m.tree.ToggleExpand(m.tree.Row(m.cursor).ID) {
		m.saveViewState()
		m.follow = true
	}
}

// applyReload swaps in a freshly read collection. Pages still in flight belong to the old
// pager and are dropped; the cursor stays on the same item when it survived the reload.
func (m *viewerModel) applyReload(items []model.Item) {
	keep := ""
	if m.cursor < m.list.Len() {
		keep = m.list.Sequence().Row(m.cursor).ID
	}
	m.gen++
	m.loading = false
	var at int
	if m.tree != nil {
		m.tree.SetRoots(tree.BuildForest(items))
		m.list.SetSequence(m.tree, false)
		at = m.tree.IndexOf(keep)
	} else {
		m.pager = feed.NewPager(items)
		first, more := m.pager.Next(m.pageSize())
		m.feed.Replace(first, more)
		m.list.SetSequence(m.feed, false)
		at = m.feed.IndexOf(keep)
	}
	if at >= 0 {
		m.cursor = at
		m.follow = true
	}
	clear(m.rendered)
	m.status = fmt.Sprintf("reloaded %d items", len(items))
	m.log.Info("reloaded", logging.F("items", len(items)))
}

// relayout runs the render/measure loop: render the visible rows, report each row's line
// count to its observer, and render again while measurements still move the layout.
// It returns the load-more command when the feed asks for another page.
func (m *viewerModel) relayout() tea.Cmd {
	if !m.ready || m.list == nil {
		return nil
	}
	vp := m.viewportHeight()
	m.cursor = clampInt(m.cursor, 0, max(m.list.Len()-1, 0))

	var placed []placedRow
	r := model.EmptyRange()
	for pass := 0; pass < maxSettlePasses; pass++ {
		if m.follow {
			m.scrollToCursor(vp)
		}
		m.clampOffset(vp)
		if !m.follow {
			m.cursorIntoView(vp)
		}

		placed = placed[:0]
		changed := false
		var err error
		r, err = m.list.Render(m.offset, vp, func(row model.Row, st window.Style) {
			s := m.renderRow(row)
			if o := m.list.Observe(row.Index); o != nil {
				c, rerr := o.Report(lipgloss.Height(s))
				if rerr != nil {
					m.log.Warn("measure row", logging.F("index", row.Index), logging.F("err", rerr))
				}
				changed = changed || c
			}
			placed = append(placed, placedRow{top: st.Top, text: s})
		})
		if err != nil {
			m.err = err
			m.log.Error("render", logging.F("err", err))
			return nil
		}
		if !changed {
			break
		}
	}
	m.follow = false
	m.rng = r
	m.frame = composeFrame(placed, m.offset, m.width, vp)
	m.saveScroll()

	// The pager is about to be replaced while a reload is pending.
	if m.feed != nil && !m.reloading && m.feed.Observe(r) {
		m.loading = true
		return tea.Batch(m.loadPage(), m.spin.Tick)
	}
	return nil
}

// scrollToCursor moves the offset just enough to show the cursor row; rows taller than
// the viewport are shown from their top.
func (m *viewerModel) scrollToCursor(vp int) {
	if m.list.Len() == 0 {
		return
	}
	top := m.list.OffsetOf(m.cursor)
	bottom := top + m.list.SizeOf(m.cursor)
	switch {
	case top < m.offset:
		m.offset = top
	case bottom > m.offset+vp:
		m.offset = min(top, bottom-vp)
	}
}

// cursorIntoView moves the cursor onto the viewport after a scroll left it behind.
func (m *viewerModel) cursorIntoView(vp int) {
	n := m.list.Len()
	if n == 0 {
		return
	}
	top := m.list.OffsetOf(m.cursor)
	bottom := top + m.list.SizeOf(m.cursor)
	if bottom > m.offset && top < m.offset+vp {
		return
	}
	i := m.list.IndexAt(m.offset)
	if m.list.OffsetOf(i) < m.offset && i+1 < n && m.list.OffsetOf(i+1) < m.offset+vp {
		i++
	}
	m.cursor = i
}

// clampOffset keeps the offset on the track. While the feed may still grow, an offset past
// the end is kept: it is usually a restored position waiting for its rows to load.
func (m *viewerModel) clampOffset(vp int) {
	if m.offset < 0 {
		m.offset = 0
	}
	if m.feed != nil && m.feed.HasMore() {
		return
	}
	if mo := m.maxOffset(vp); m.offset > mo {
		m.offset = mo
	}
}

func (m viewerModel) maxOffset(vp int) int {
	return max(m.list.TotalSize()-vp, 0)
}

func (m viewerModel) viewportHeight() int {
	return max(m.height-chromeLines, 1)
}

func (m viewerModel) pageSize() int {
	if m.opts.PageSize <= 0 {
		return defaultPageSize
	}
	return m.opts.PageSize
}

func (m viewerModel) loadPage() tea.Cmd {
	pager, n, gen := m.pager, m.pageSize(), m.gen
	return func() tea.Msg {
		items, more := pager.Next(n)
		return pageMsg{gen: gen, items: items, more: more}
	}
}

func (m viewerModel) reloadCmd() tea.Cmd {
	reload := m.opts.Reload
	return func() tea.Msg {
		items, err := reload()
		return reloadMsg{items: items, err: err}
	}
}

func (m *viewerModel) restoreScroll() {
	if m.opts.Scroll == nil {
		return
	}
	v, ok, err := m.opts.Scroll.Restore(m.opts.Key)
	if err != nil {
		m.log.Warn("restore scroll", logging.F("err", err))
		return
	}
	if ok {
		m.offset, m.saved = v, v
		m.log.Info("restored scroll", logging.F("offset", v))
	}
}

func (m *viewerModel) saveScroll() {
	if m.opts.Scroll == nil || m.offset == m.saved {
		return
	}
	if err := m.opts.Scroll.Save(m.opts.Key, m.offset); err != nil {
		m.log.Warn("save scroll", logging.F("err", err))
		return
	}
	m.saved = m.offset
}

func (m *viewerModel) resetScroll() {
	if m.opts.Scroll == nil {
		return
	}
	if err := m.opts.Scroll.Reset(); err != nil {
		m.err = err
		return
	}
	// The next scroll records a fresh position.
	m.saved = m.offset
	m.status = "scroll positions reset for this session"
}

func (m *viewerModel) saveViewState() {
	if m.view == nil || m.tree == nil {
		return
	}
	var ids []string
	for id := range m.tree.ExpandedIDs() {
		ids = append(ids, id)
	}
	m.view.SetExpanded(m.opts.Key, ids)
	if err := m.opts.State.SaveViewState(m.view); err != nil {
		m.log.Warn("save view state", logging.F("err", err))
	}
}

func (m viewerModel) View() string {
	if !m.ready {
		return ""
	}
	return m.headerView() + "\n" + m.frame + "\n" + m.footerView()
}

func (m viewerModel) headerView() string {
	title := strings.TrimSpace(m.opts.Title)
	if title == "" {
		title = m.opts.Mode.String()
	}
	n := m.list.Len()
	stats := fmt.Sprintf("  %d rows", n)
	if !m.rng.Empty() {
		stats += fmt.Sprintf(" · %d-%d · line %d/%d", m.rng.First+1, m.rng.Last+1, m.offset, m.list.TotalSize())
	}
	if m.feed != nil && m.feed.HasMore() {
		stats += fmt.Sprintf(" · %d more", m.pager.Remaining())
	}
	head := lipgloss.NewStyle().Bold(true).Foreground(colorChromeFg).Render(title) + styleMuted().Render(stats)
	return normalizePane(head, m.width, 1)
}

func (m viewerModel) footerView() string {
	var line string
	switch {
	case m.err != nil:
		line = lipgloss.NewStyle().Foreground(colorError).Render("error: " + m.err.Error())
	case m.reloading:
		line = m.spin.View() + styleMuted().Render(" reloading…")
	case m.loading:
		line = m.spin.View() + styleMuted().Render(" loading…")
	case m.status != "":
		line = styleMuted().Render(m.status)
	default:
		var parts []string
		for _, b := range m.keys.help(m.opts.Mode) {
			h := b.Help()
			parts = append(parts, h.Key+" "+h.Desc)
		}
		line = styleMuted().Render(strings.Join(parts, "  "))
	}
	return normalizePane(line, m.width, 1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
