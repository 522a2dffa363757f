package state

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	defaultWindowTurns = 12
	defaultCapacity    = 1024
	defaultMaxIdle     = 30 * time.Minute
)

// Store is the session-state contract used by the orchestrator. It is
// the only shared mutable resource in the engine, so implementations
// must serialize access per (user, track) without a global choke point.
type Store interface {
	Memory(ctx context.Context, userID string, track Track) (string, error)
	Append(ctx context.Context, userID string, track Track, prompt, result string) (time.Time, error)
	Get(ctx context.Context, userID string, track Track) (*Session, error)
	Evict(now time.Time) int
}

// StoreOption customizes MemoryStore.
type StoreOption func(*MemoryStore)

// WithCapacity bounds how many (user, track) sessions are retained
// before least-recently-used entries are evicted.
func WithCapacity(capacity int) StoreOption {
	return func(s *MemoryStore) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithMaxIdle sets how long an untouched session survives an Evict sweep.
func WithMaxIdle(maxIdle time.Duration) StoreOption {
	return func(s *MemoryStore) {
		if maxIdle > 0 {
			s.maxIdle = maxIdle
		}
	}
}

// WithWindow sets the per-session rolling window, in turns.
func WithWindow(turns int) StoreOption {
	return func(s *MemoryStore) {
		if turns > 0 {
			s.window = turns
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

type sessionKey struct {
	userID string
	track  Track
}

type sessionEntry struct {
	mu       sync.Mutex
	session  *Session
	lastUsed time.Time
}

// MemoryStore keeps sessions in process memory. Each entry carries its
// own mutex so concurrent queries for unrelated users never contend;
// same-user same-track appends serialize on the entry lock, which is
// what keeps turn timestamps strictly increasing.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[sessionKey]*sessionEntry

	capacity int
	maxIdle  time.Duration
	window   int
	now      func() time.Time
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[sessionKey]*sessionEntry),
		capacity: defaultCapacity,
		maxIdle:  defaultMaxIdle,
		window:   defaultWindowTurns,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) Memory(ctx context.Context, userID string, track Track) (string, error) {
	entry, err := s.entry(userID, track)
	if err != nil {
		return "", err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session.Memory(), nil
}

func (s *MemoryStore) Append(ctx context.Context, userID string, track Track, prompt, result string) (time.Time, error) {
	entry, err := s.entry(userID, track)
	if err != nil {
		return time.Time{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session.Append(prompt, result, s.now()), nil
}

func (s *MemoryStore) Get(ctx context.Context, userID string, track Track) (*Session, error) {
	key, err := makeKey(userID, track)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	entry, ok := s.sessions[key]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: user=%s track=%s", ErrSessionMissing, userID, track)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.session.Clone(), nil
}

// Evict removes sessions idle longer than the configured maximum and
// returns how many were dropped. Capacity-based LRU eviction happens
// inline on create; this sweep is for the idle bound.
func (s *MemoryStore) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, entry := range s.sessions {
		if now.Sub(entry.lastUsed) > s.maxIdle {
			delete(s.sessions, key)
			evicted++
		}
	}
	return evicted
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// entry returns the live entry for (userID, track), creating the session
// lazily on first use and applying the LRU capacity bound.
func (s *MemoryStore) entry(userID string, track Track) (*sessionEntry, error) {
	key, err := makeKey(userID, track)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if entry, ok := s.sessions[key]; ok {
		entry.lastUsed = now
		return entry, nil
	}

	session, err := NewSession(key.userID, key.track, s.window, now)
	if err != nil {
		return nil, err
	}

	if len(s.sessions) >= s.capacity {
		s.evictOldestLocked()
	}

	entry := &sessionEntry{session: session, lastUsed: now}
	s.sessions[key] = entry
	return entry, nil
}

func (s *MemoryStore) evictOldestLocked() {
	var (
		oldestKey sessionKey
		oldestAt  time.Time
		found     bool
	)
	for key, entry := range s.sessions {
		if !found || entry.lastUsed.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.lastUsed
			found = true
		}
	}
	if found {
		delete(s.sessions, oldestKey)
	}
}

func makeKey(userID string, track Track) (sessionKey, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return sessionKey{}, ErrInvalidUser
	}
	if !track.Valid() {
		return sessionKey{}, fmt.Errorf("%w: %q", ErrInvalidTrack, track)
	}
	return sessionKey{userID: trimmed, track: track}, nil
}
