package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Lookups behind SessionID; replaced in tests.
var (
	sessionEnv = os.Getenv
	ttyName    = controllingTTY
	parentPID  = os.Getppid
)

// SessionID names the terminal session scroll positions belong to, so reopening a list from
// the same terminal restores it and another terminal starts clean. In order:
//
//   - FEEDWIN_SESSION
//   - the terminal emulator's session (TERM_SESSION_ID, then WT_SESSION)
//   - the tmux pane (TMUX plus TMUX_PANE)
//   - the controlling tty plus the invoking shell's pid
//
// With none of these it returns a fresh random id.
func SessionID() (string, error) {
	if v := strings.TrimSpace(sessionEnv("FEEDWIN_SESSION")); v != "" {
		return v, nil
	}
	for _, k := range []string{"TERM_SESSION_ID", "WT_SESSION"} {
		if v := strings.TrimSpace(sessionEnv(k)); v != "" {
			return "term:" + v, nil
		}
	}
	if strings.TrimSpace(sessionEnv("TMUX")) != "" {
		if pane := strings.TrimSpace(sessionEnv("TMUX_PANE")); pane != "" {
			return "tmux:" + pane, nil
		}
	}
	if tty := ttyName(); tty != "" {
		return fmt.Sprintf("tty:%s:%d", tty, parentPID()), nil
	}
	return uuid.NewString(), nil
}

// controllingTTY returns the terminal device on stdin, or "" when stdin isn't a terminal
// or the platform has no /proc.
func controllingTTY() string {
	p, err := os.Readlink("/proc/self/fd/0")
	if err != nil {
		return ""
	}
	p = filepath.Clean(p)
	if strings.HasPrefix(p, "/dev/pts/") || strings.HasPrefix(p, "/dev/tty") {
		return p
	}
	return ""
}
