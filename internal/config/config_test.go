package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	t.Setenv("FEEDWIN_CONFIG_DIR", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.Overscan != 3 || cfg.Engine.Estimate != 4 || cfg.Engine.Threshold != 1 {
		t.Fatalf("unexpected engine defaults: %+v", cfg.Engine)
	}
	if ttl, _ := cfg.ScrollTTL(); ttl != 24*time.Hour {
		t.Fatalf("expected 24h ttl; got %s", ttl)
	}
	if !cfg.MarkdownEnabled() || cfg.PageSize() != 50 {
		t.Fatalf("unexpected tui defaults: %+v", cfg.TUI)
	}
}

func TestLoad_FromTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FEEDWIN_CONFIG_DIR", dir)
	content := strings.Join([]string{
		"[engine]",
		"overscan = 1",
		"relative_threshold = 0.05",
		"max_depth = 3",
		"",
		"[scroll]",
		`backend = "sqlite"`,
		`ttl = "2h"`,
		"",
		"[tui]",
		"markdown = false",
		"",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.Overscan != 1 || cfg.Engine.MaxDepth != 3 || cfg.Engine.RelativeThreshold != 0.05 {
		t.Fatalf("unexpected engine config: %+v", cfg.Engine)
	}
	if cfg.Engine.Estimate != 4 {
		t.Fatalf("expected unset keys to keep defaults; got estimate %d", cfg.Engine.Estimate)
	}
	if cfg.Scroll.Backend != "sqlite" {
		t.Fatalf("expected sqlite backend; got %q", cfg.Scroll.Backend)
	}
	if ttl, _ := cfg.ScrollTTL(); ttl != 2*time.Hour {
		t.Fatalf("expected 2h; got %s", ttl)
	}
	if cfg.MarkdownEnabled() {
		t.Fatalf("expected markdown disabled")
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"negative overscan": "[engine]\noverscan = -1\n",
		"negative depth":    "[engine]\nmax_depth = -1\n",
		"bad ttl":           "[scroll]\nttl = \"soon\"\n",
		"bad backend":       "[scroll]\nbackend = \"redis\"\n",
		"bad toml":          "[engine\n",
	}
	for name, content := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestStateDirAndLogFile(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("FEEDWIN_CONFIG_DIR", cfgDir)
	t.Setenv("FEEDWIN_STATE_DIR", "")
	dir, err := StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	if dir != filepath.Join(cfgDir, "state") {
		t.Fatalf("unexpected state dir %q", dir)
	}
	t.Setenv("FEEDWIN_STATE_DIR", "/tmp/elsewhere")
	if dir, _ := StateDir(); dir != "/tmp/elsewhere" {
		t.Fatalf("expected env override; got %q", dir)
	}

	cfg := Default()
	if got := cfg.LogFile("/s"); got != filepath.Join("/s", "feedwin.log") {
		t.Fatalf("unexpected default log file %q", got)
	}
	cfg.Log.File = "logs/x.log"
	if got := cfg.LogFile("/s"); got != filepath.Join("/s", "logs", "x.log") {
		t.Fatalf("unexpected relative log file %q", got)
	}
}
