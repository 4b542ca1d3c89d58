package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const viewStateFileName = "view_state.json"

// ViewState is small viewer state restored on relaunch: which thread nodes were expanded.
// It is best effort; a missing or corrupt file reads as empty.
type ViewState struct {
	Version int `json:"version"`

	// Expanded maps a list key (e.g. "thread:/path/to/file.jsonl") to expanded node ids.
	Expanded map[string][]string `json:"expanded,omitempty"`
}

func (s Store) viewStatePath() string {
	return filepath.Join(s.Dir, viewStateFileName)
}

func (s Store) LoadViewState() (*ViewState, error) {
	empty := &ViewState{Version: 1, Expanded: map[string][]string{}}
	if strings.TrimSpace(s.Dir) == "" {
		return empty, nil
	}
	b, err := os.ReadFile(s.viewStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return empty, nil
		}
		return nil, err
	}
	var st ViewState
	if err := json.Unmarshal(b, &st); err != nil {
		return empty, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	if st.Expanded == nil {
		st.Expanded = map[string][]string{}
	}
	return &st, nil
}

func (s Store) SaveViewState(st *ViewState) error {
	if st == nil || strings.TrimSpace(s.Dir) == "" {
		return nil
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.viewStatePath(), b)
}

// ExpandedSet returns the expanded ids saved for key as a set.
func (st *ViewState) ExpandedSet(key string) map[string]bool {
	out := map[string]bool{}
	if st == nil {
		return out
	}
	for _, id := range st.Expanded[key] {
		out[id] = true
	}
	return out
}

// SetExpanded replaces the expanded ids for key; an empty list forgets the key.
func (st *ViewState) SetExpanded(key string, ids []string) {
	if st.Expanded == nil {
		st.Expanded = map[string][]string{}
	}
	if len(ids) == 0 {
		delete(st.Expanded, key)
		return
	}
	xs := append([]string(nil), ids...)
	sort.Strings(xs)
	st.Expanded[key] = xs
}
