package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// DefaultStorageKey is the key the admin console has always used for its
// token.
const DefaultStorageKey = "adminToken"

// ErrEmptyToken is returned when saving an empty token.
var ErrEmptyToken = errors.New("empty token")

// ErrBackendUnavailable wraps every failure reported by a Backend.
var ErrBackendUnavailable = errors.New("token backend unavailable")

// Backend is the durable side of a Store. Get reports absence with
// ok=false and a nil error.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store holds the single current access token.
type Store struct {
	backend Backend
	key     string

	// writeMu keeps the backend and the slot in the same order when
	// Save and Clear race. Readers never take it.
	writeMu sync.Mutex
	slot    atomic.Pointer[string]
	primed  atomic.Bool
}

// NewStore returns a Store persisting under key. An empty key selects
// DefaultStorageKey and a nil backend selects a fresh MemoryBackend.
func NewStore(backend Backend, key string) *Store {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultStorageKey
	}
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &Store{backend: backend, key: key}
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.key
}

// Save persists token, replacing any previous one. The token becomes
// visible to Load only after the backend write succeeded.
func (s *Store) Save(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.backend.Set(ctx, s.key, token); err != nil {
		return wrapBackend(err)
	}
	s.slot.Store(&token)
	s.primed.Store(true)
	return nil
}

// Load returns the stored token. ok is false when no token is stored.
func (s *Store) Load(ctx context.Context) (string, bool, error) {
	if s.primed.Load() {
		return deref(s.slot.Load())
	}

	value, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return "", false, wrapBackend(err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	// A concurrent Save or Clear wins over what we just read.
	if s.primed.Load() {
		return deref(s.slot.Load())
	}
	if ok && value != "" {
		s.slot.Store(&value)
	} else {
		s.slot.Store(nil)
	}
	s.primed.Store(true)
	return deref(s.slot.Load())
}

// Token returns the stored token, or "" when none is stored or the backend
// cannot be read. It satisfies pipeline.TokenSource.
func (s *Store) Token(ctx context.Context) (string, bool) {
	token, ok, err := s.Load(ctx)
	if err != nil {
		return "", false
	}
	return token, ok
}

// Clear removes the token. Clearing an absent token is a no-op. The slot is
// emptied even when the backend delete fails, so no further request carries
// the token from this process.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.slot.Store(nil)
	s.primed.Store(true)

	if err := s.backend.Delete(ctx, s.key); err != nil {
		return wrapBackend(err)
	}
	return nil
}

func deref(p *string) (string, bool, error) {
	if p == nil {
		return "", false, nil
	}
	return *p, true, nil
}

func wrapBackend(err error) error {
	if errors.Is(err, ErrBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}
