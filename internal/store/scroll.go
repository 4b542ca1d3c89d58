package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	ErrEmptyKey       = errors.New("scroll key is empty")
	ErrNegativeOffset = errors.New("scroll offset is negative")
)

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// ScrollStore keeps one scroll offset per list key for the lifetime of a session.
//
// Offsets are opaque: they are never checked against the list's current size. The scroll
// host clamps a stale offset itself.
type ScrollStore interface {
	Save(key string, offset int) error
	// Restore returns ok=false (and no error) when nothing was saved for key.
	Restore(key string) (offset int, ok bool, err error)
	// Reset forgets every offset of the session.
	Reset() error
	Close() error
}

type ScrollOptions struct {
	Backend string
	Session string

	// TTL prunes sessions not written for this long when the store is opened.
	// Zero keeps everything.
	TTL time.Duration

	now func() time.Time
}

// OpenScroll opens the configured backend. An empty session id gets a fresh one via SessionID.
func OpenScroll(s Store, opts ScrollOptions) (ScrollStore, error) {
	if opts.now == nil {
		opts.now = time.Now
	}
	if strings.TrimSpace(opts.Session) == "" {
		id, err := SessionID()
		if err != nil {
			return nil, err
		}
		opts.Session = id
	}
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		return NewMemoryScrollStore(), nil
	case BackendFile:
		return openFileScrollStore(s, opts)
	case BackendSQLite:
		return openSQLiteScrollStore(s, opts)
	default:
		return nil, fmt.Errorf("unknown scroll backend: %s", opts.Backend)
	}
}

func checkSave(key string, offset int) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	if offset < 0 {
		return "", fmt.Errorf("save %q: %w (%d)", key, ErrNegativeOffset, offset)
	}
	return key, nil
}

// MemoryScrollStore keeps offsets in process memory: they survive a list remount but not
// a restart.
type MemoryScrollStore struct {
	mu      sync.Mutex
	offsets map[string]int
}

func NewMemoryScrollStore() *MemoryScrollStore {
	return &MemoryScrollStore{offsets: map[string]int{}}
}

func (m *MemoryScrollStore) Save(key string, offset int) error {
	key, err := checkSave(key, offset)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.offsets[key] = offset
	m.mu.Unlock()
	return nil
}

func (m *MemoryScrollStore) Restore(key string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.offsets[strings.TrimSpace(key)]
	return v, ok, nil
}

func (m *MemoryScrollStore) Reset() error {
	m.mu.Lock()
	m.offsets = map[string]int{}
	m.mu.Unlock()
	return nil
}

func (m *MemoryScrollStore) Close() error { return nil }
