package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// placedRow is a rendered row at its absolute position on the scroll track.
type placedRow struct {
	top  int
	text string
}

// composeFrame cuts the viewport [offset, offset+height) out of the placed rows.
func composeFrame(rows []placedRow, offset, width, height int) string {
	if height <= 0 {
		return ""
	}
	lines := make([]string, height)
	for _, r := range rows {
		for k, ln := range strings.Split(r.text, "\n") {
			y := r.top + k - offset
			if y < 0 {
				continue
			}
			if y >= height {
				break
			}
			lines[y] = ln
		}
	}
	return normalizePane(strings.Join(lines, "\n"), width, height)
}

// normalizePane forces s to exactly width columns (ANSI-aware) and height lines.
func normalizePane(s string, width, height int) string {
	width = max(width, 0)
	height = max(height, 0)

	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}

	for i, ln := range lines {
		// Bound the width computation on pathological lines.
		if width > 0 && len(ln) > 8192 {
			ln = truncateLine(ln, width)
		}
		w := xansi.StringWidth(ln)
		if w > width {
			ln = truncateLine(ln, width)
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

func truncateLine(ln string, width int) string {
	switch {
	case width <= 0:
		return ""
	case width == 1:
		return xansi.Cut(ln, 0, 1)
	default:
		return xansi.Cut(ln, 0, width-1) + "…"
	}
}

// trimBlankLines drops leading and trailing lines that are empty once escapes are removed.
// Markdown renderers pad blocks with such lines, and they would inflate measured heights.
func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	blank := func(ln string) bool { return strings.TrimSpace(xansi.Strip(ln)) == "" }
	for len(lines) > 0 && blank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && blank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
