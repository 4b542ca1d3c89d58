package store

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"time"
)

// scrollState is the on-disk shape of scroll_state.json.
//
// The file is best effort: a missing or corrupt file reads as empty, so losing it only
// costs the user their scroll positions.
type scrollState struct {
	Version  int                      `json:"version"`
	Sessions map[string]*scrollSession `json:"sessions,omitempty"`
}

type scrollSession struct {
	UpdatedAt time.Time      `json:"updatedAt"`
	Offsets   map[string]int `json:"offsets,omitempty"`
}

type FileScrollStore struct {
	mu      sync.Mutex
	path    string
	session string
	now     func() time.Time
}

func openFileScrollStore(s Store, opts ScrollOptions) (*FileScrollStore, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	f := &FileScrollStore{path: s.scrollStatePath(), session: opts.Session, now: opts.now}
	if opts.TTL > 0 {
		if err := f.prune(opts.TTL); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *FileScrollStore) load() (*scrollState, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &scrollState{Version: 1, Sessions: map[string]*scrollSession{}}, nil
		}
		return nil, err
	}
	var st scrollState
	if err := json.Unmarshal(b, &st); err != nil {
		return &scrollState{Version: 1, Sessions: map[string]*scrollSession{}}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	if st.Sessions == nil {
		st.Sessions = map[string]*scrollSession{}
	}
	return &st, nil
}

func (f *FileScrollStore) save(st *scrollState) error {
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(f.path, b)
}

func (f *FileScrollStore) prune(ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return err
	}
	cutoff := f.now().Add(-ttl)
	dirty := false
	for id, sess := range st.Sessions {
		if sess == nil || sess.UpdatedAt.Before(cutoff) {
			delete(st.Sessions, id)
			dirty = true
		}
	}
	if !dirty {
		return nil
	}
	return f.save(st)
}

func (f *FileScrollStore) Save(key string, offset int) error {
	key, err := checkSave(key, offset)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return err
	}
	sess := st.Sessions[f.session]
	if sess == nil {
		sess = &scrollSession{Offsets: map[string]int{}}
		st.Sessions[f.session] = sess
	}
	if sess.Offsets == nil {
		sess.Offsets = map[string]int{}
	}
	sess.Offsets[key] = offset
	sess.UpdatedAt = f.now().UTC()
	return f.save(st)
}

func (f *FileScrollStore) Restore(key string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return 0, false, err
	}
	sess := st.Sessions[f.session]
	if sess == nil {
		return 0, false, nil
	}
	v, ok := sess.Offsets[strings.TrimSpace(key)]
	return v, ok, nil
}

func (f *FileScrollStore) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := st.Sessions[f.session]; !ok {
		return nil
	}
	delete(st.Sessions, f.session)
	return f.save(st)
}

func (f *FileScrollStore) Close() error { return nil }
