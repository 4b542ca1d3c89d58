package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	scrollStateFileName = "scroll_state.json"
	scrollDBFileName    = "scroll.sqlite"
)

// Store is a state directory. Everything feedwin persists between runs lives under Dir.
type Store struct {
	Dir string
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store: empty dir")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) scrollStatePath() string {
	return filepath.Join(s.Dir, scrollStateFileName)
}

func (s Store) scrollDBPath() string {
	return filepath.Join(s.Dir, scrollDBFileName)
}

// writeFileAtomic writes via a temp file + rename so readers never see a torn file.
func writeFileAtomic(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
