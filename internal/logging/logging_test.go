package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogger_WritesLogfmtWithInheritedFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Info, WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }))

	l.With(F("list", "feed")).Warn("clamped offset", F("offset", -3), F("err", errors.New("bad input")))

	got := strings.TrimSpace(buf.String())
	want := `ts=2026-01-02T03:04:05Z level=warn msg="clamped offset" list=feed offset=-3 err="bad input"`
	if got != want {
		t.Fatalf("expected %q; got %q", want, got)
	}
}

func TestLogger_DropsBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Warn)
	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output; got %q", buf.String())
	}
	if !l.Enabled(Error) || l.Enabled(Info) {
		t.Fatalf("unexpected Enabled results")
	}
}

func TestNop_IsSilent(t *testing.T) {
	l := Nop()
	if l.Enabled(Error) {
		t.Fatalf("expected nop logger to be disabled")
	}
	l.Error("nothing")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": Debug, " WARN ": Warn, "warning": Warn, "error": Error, "": Info, "bogus": Info}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q): expected %v; got %v", in, want, got)
		}
	}
}

func TestOpenFile_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "feedwin.log")
	clock := WithClock(func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.FixedZone("CEST", 2*60*60)) })
	for _, msg := range []string{"first", "second"} {
		l, c, err := OpenFile(path, Debug, clock)
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		l.Debug(msg, F("ok", true), F("ratio", 0.5))
		if err := c.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "ts=2026-05-01T07:00:00Z level=debug msg=first ok=true ratio=0.5\n" +
		"ts=2026-05-01T07:00:00Z level=debug msg=second ok=true ratio=0.5\n"
	if string(b) != want {
		t.Fatalf("expected %q; got %q", want, string(b))
	}
}

func TestWith_DoesNotLeakFieldsBetweenChildren(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, Info, WithClock(func() time.Time { return time.Unix(0, 0) })).With(F("list", "feed"))
	a := base.With(F("child", "a"))
	b := base.With(F("child", "b"))
	a.Info("x")
	b.Info("y")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[0], "list=feed child=a") || !strings.HasSuffix(lines[1], "list=feed child=b") {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestLevel_String(t *testing.T) {
	if Warn.String() != "warn" || Level(42).String() != "info" {
		t.Fatalf("unexpected level names %q %q", Warn.String(), Level(42).String())
	}
}
