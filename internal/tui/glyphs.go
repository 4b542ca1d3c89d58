package tui

import (
	"os"
	"strings"
	"sync"
)

// Some terminal fonts render the Unicode affordances badly; the ASCII set is the fallback.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

// applyGlyphPreference: FEEDWIN_TUI_GLYPHS wins over the configured value.
func applyGlyphPreference(configured string) {
	v := strings.TrimSpace(os.Getenv("FEEDWIN_TUI_GLYPHS"))
	if v == "" {
		v = configured
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	defer glyphsMu.RUnlock()
	return currentGlyphs
}

func glyphTwisty(expanded bool) string {
	switch {
	case glyphs() == glyphSetASCII && expanded:
		return "v"
	case glyphs() == glyphSetASCII:
		return ">"
	case expanded:
		return "▾"
	default:
		return "▸"
	}
}

func glyphBullet() string {
	if glyphs() == glyphSetASCII {
		return "*"
	}
	return "•"
}

func glyphGutter() string {
	if glyphs() == glyphSetASCII {
		return "|"
	}
	return "▌"
}

func glyphHRule() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "─"
}
