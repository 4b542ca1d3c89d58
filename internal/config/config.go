package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultOverscan      = 3
	defaultEstimate      = 4
	defaultThreshold     = 1
	defaultLoadThreshold = 5
	defaultMaxDepth      = 6
	defaultPageSize      = 50
	defaultScrollTTL     = 24 * time.Hour
)

type Config struct {
	Engine EngineConfig `toml:"engine"`
	Scroll ScrollConfig `toml:"scroll"`
	TUI    TUIConfig    `toml:"tui"`
	Log    LogConfig    `toml:"log"`
}

type EngineConfig struct {
	Overscan          int     `toml:"overscan"`
	Estimate          int     `toml:"estimate"`
	DepthEstimate     int     `toml:"depth_estimate"`
	// Threshold is in the viewer's size unit (terminal lines); 0 selects the engine default.
	Threshold         int     `toml:"threshold"`
	RelativeThreshold float64 `toml:"relative_threshold"`
	LoadThreshold     int     `toml:"load_threshold"`
	MaxDepth          int     `toml:"max_depth"`
	Strict            bool    `toml:"strict"`
}

type ScrollConfig struct {
	// Backend is one of: memory|file|sqlite
	Backend string `toml:"backend"`
	// TTL is a Go duration ("24h"); sessions idle longer than this are pruned.
	TTL string `toml:"ttl"`
}

type TUIConfig struct {
	// Theme is one of: auto|light|dark
	Theme string `toml:"theme"`
	// Glyphs is one of: unicode|ascii
	Glyphs   string `toml:"glyphs"`
	PageSize int    `toml:"page_size"`
	Markdown *bool  `toml:"markdown"`
}

type LogConfig struct {
	Level string `toml:"level"`
	// File defaults to <state dir>/feedwin.log.
	File string `toml:"file"`
}

func Default() Config {
	return Config{
		Engine: EngineConfig{
			Overscan:      defaultOverscan,
			Estimate:      defaultEstimate,
			Threshold:     defaultThreshold,
			LoadThreshold: defaultLoadThreshold,
			MaxDepth:      defaultMaxDepth,
		},
		Scroll: ScrollConfig{Backend: "file", TTL: defaultScrollTTL.String()},
		TUI:    TUIConfig{Theme: "auto", Glyphs: "unicode", PageSize: defaultPageSize},
		Log:    LogConfig{Level: "info"},
	}
}

// Dir is the config root: FEEDWIN_CONFIG_DIR, else ~/.feedwin.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("FEEDWIN_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".feedwin"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StateDir holds scroll state and logs: FEEDWIN_STATE_DIR, else <config dir>/state.
func StateDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("FEEDWIN_STATE_DIR")); v != "" {
		return v, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state"), nil
}

// Load reads the TOML config at path (or the default path when empty). A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		p, err := Path()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	cfg := Default()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func readTOML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func (c Config) Validate() error {
	e := c.Engine
	switch {
	case e.Overscan < 0:
		return fmt.Errorf("engine.overscan must be >= 0 (got %d)", e.Overscan)
	case e.Estimate <= 0:
		return fmt.Errorf("engine.estimate must be > 0 (got %d)", e.Estimate)
	case e.MaxDepth < 0:
		return fmt.Errorf("engine.max_depth must be >= 0 (got %d)", e.MaxDepth)
	case e.RelativeThreshold < 0 || e.RelativeThreshold >= 1:
		return fmt.Errorf("engine.relative_threshold must be in [0, 1) (got %v)", e.RelativeThreshold)
	}
	if _, err := c.ScrollTTL(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(c.Scroll.Backend)) {
	case "", "memory", "file", "sqlite":
	default:
		return fmt.Errorf("scroll.backend must be memory|file|sqlite (got %q)", c.Scroll.Backend)
	}
	return nil
}

func (c Config) ScrollTTL() (time.Duration, error) {
	raw := strings.TrimSpace(c.Scroll.TTL)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("scroll.ttl: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("scroll.ttl must be >= 0 (got %s)", raw)
	}
	return d, nil
}

func (c Config) PageSize() int {
	if c.TUI.PageSize <= 0 {
		return defaultPageSize
	}
	return c.TUI.PageSize
}

func (c Config) MarkdownEnabled() bool {
	if c.TUI.Markdown == nil {
		return true
	}
	return *c.TUI.Markdown
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Log.Level)
	if level == "" {
		return "info"
	}
	return level
}

// LogFile resolves the log path; relative paths are taken from stateDir.
func (c Config) LogFile(stateDir string) string {
	p := strings.TrimSpace(c.Log.File)
	if p == "" {
		return filepath.Join(stateDir, "feedwin.log")
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(stateDir, p)
}
