package tui

import (
	"strconv"
	"strings"

	"feedwin/internal/model"

	"github.com/charmbracelet/lipgloss"
)

const (
	indentPerDepth = 2
	// gutter (1) + space (1)
	gutterWidth = 2
	// Rendered rows kept before the cache is dropped wholesale.
	maxRenderedRows = 4096
)

// renderRow renders one row to its final multi-line string. The line count of the result
// is the row's measured size.
func (m viewerModel) renderRow(row model.Row) string {
	selected := row.Index == m.cursor
	ck := rowCacheKey(row, m.width, selected)
	if s, ok := m.rendered[ck]; ok {
		return s
	}

	it, _ := row.Payload.(model.Item)
	indent := 0
	if m.opts.Mode == ModeThread {
		indent = row.Depth * indentPerDepth
	}
	bodyWidth := max(m.width-gutterWidth-indent-2, 8)

	var lines []string
	lines = append(lines, m.rowHeader(row, it))
	if title := strings.TrimSpace(it.Title); title != "" && m.opts.Mode == ModeFeed {
		lines = append(lines, lipgloss.NewStyle().Bold(true).Render(title))
	}
	if body := m.rowBody(it.Body, bodyWidth); body != "" {
		for _, ln := range strings.Split(body, "\n") {
			lines = append(lines, "  "+ln)
		}
	}
	if m.opts.Mode == ModeFeed {
		lines = append(lines, styleMuted().Render(strings.Repeat(glyphHRule(), max(m.width-gutterWidth, 1))))
	}

	gutter := " "
	if selected {
		gutter = lipgloss.NewStyle().Foreground(colorAccent).Render(glyphGutter())
	}
	pad := strings.Repeat(" ", indent)
	for i, ln := range lines {
		lines[i] = gutter + " " + pad + ln
	}
	out := strings.Join(lines, "\n")
	if len(m.rendered) >= maxRenderedRows {
		clear(m.rendered)
	}
	m.rendered[ck] = out
	return out
}

func (m viewerModel) rowHeader(row model.Row, it model.Item) string {
	var sb strings.Builder
	if m.opts.Mode == ModeThread {
		if row.Expanded || m.tree.CanExpand(row) {
			sb.WriteString(lipgloss.NewStyle().Foreground(colorAccent).Render(glyphTwisty(row.Expanded)))
		} else {
			sb.WriteString(styleMuted().Render(glyphBullet()))
		}
		sb.WriteString(" ")
	}
	author := strings.TrimSpace(it.Author)
	if author == "" {
		author = "anonymous"
	}
	sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Render(author))
	if !it.CreatedAt.IsZero() {
		sb.WriteString(styleMuted().Render("  " + it.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	return sb.String()
}

func (m viewerModel) rowBody(body string, width int) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	if m.opts.Markdown {
		return renderMarkdown(body, width)
	}
	return lipgloss.NewStyle().Width(width).Render(body)
}

func rowCacheKey(row model.Row, width int, selected bool) string {
	var sb strings.Builder
	sb.WriteString(row.ID)
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(width))
	if selected {
		sb.WriteString("|sel")
	}
	if row.Expanded {
		sb.WriteString("|open")
	}
	return sb.String()
}
