package store

import (
	"testing"
	"time"
)

func stubSession(t *testing.T, env map[string]string, tty string, ppid int) {
	t.Helper()
	prevEnv, prevTTY, prevPID := sessionEnv, ttyName, parentPID
	t.Cleanup(func() { sessionEnv, ttyName, parentPID = prevEnv, prevTTY, prevPID })
	sessionEnv = func(k string) string { return env[k] }
	ttyName = func() string { return tty }
	parentPID = func() int { return ppid }
}

func TestSessionID_Precedence(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		tty  string
		want string
	}{
		{"explicit", map[string]string{"FEEDWIN_SESSION": "tty-42", "TERM_SESSION_ID": "w0t0p0"}, "/dev/pts/3", "tty-42"},
		{"terminal", map[string]string{"TERM_SESSION_ID": "w0t0p0"}, "/dev/pts/3", "term:w0t0p0"},
		{"windows terminal", map[string]string{"WT_SESSION": "abc"}, "", "term:abc"},
		{"tmux", map[string]string{"TMUX": "/tmp/tmux-1000/default,1,0", "TMUX_PANE": "%4"}, "/dev/pts/3", "tmux:%4"},
		{"tty", map[string]string{}, "/dev/pts/3", "tty:/dev/pts/3:812"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stubSession(t, tc.env, tc.tty, 812)
			got, err := SessionID()
			if err != nil || got != tc.want {
				t.Fatalf("expected %q; got %q %v", tc.want, got, err)
			}
		})
	}
}

func TestSessionID_RandomWithoutTerminal(t *testing.T) {
	stubSession(t, map[string]string{}, "", 1)
	a, _ := SessionID()
	b, _ := SessionID()
	if len(a) != 36 || a == b {
		t.Fatalf("expected fresh random uuids; got %q %q", a, b)
	}
}

func TestSessionID_SameTerminalRestoresFileScroll(t *testing.T) {
	stubSession(t, map[string]string{}, "/dev/pts/7", 4242)
	dir := t.TempDir()

	open := func() ScrollStore {
		id, err := SessionID()
		if err != nil {
			t.Fatalf("SessionID: %v", err)
		}
		return openBackend(t, dir, BackendFile, id, time.Now, 0)
	}
	first := open()
	if err := first.Save("feed:/tmp/posts.jsonl", 33); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = first.Close()

	if v, ok, err := open().Restore("feed:/tmp/posts.jsonl"); err != nil || !ok || v != 33 {
		t.Fatalf("expected 33 from the same terminal; got %d %v %v", v, ok, err)
	}

	stubSession(t, map[string]string{}, "/dev/pts/8", 4243)
	if _, ok, _ := open().Restore("feed:/tmp/posts.jsonl"); ok {
		t.Fatalf("expected another terminal to start clean")
	}
}
