package store

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// Store is a pluggable persistence layer for the credential pair.
type Store interface {
	// Lookup returns a copy of stored credentials
	Lookup() (*Credentials, bool)
	// Save replaces stored credentials
	Save(credentials *Credentials) error
	// Clear removes stored credentials
	Clear() error
}

// Kinds of store
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSecret = "secret"
)

// New creates a store of the given kind; URL and key are ignored by the memory store
func New(ctx context.Context, kind, URL, key string) (Store, error) {
	switch kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindFile:
		return NewFileStore(ctx, URL)
	case KindSecret:
		return NewSecretStore(ctx, URL, key)
	}
	return nil, errors.Newf("unsupported credential store kind: %q", kind)
}

// AccessToken returns stored access token or empty string
func AccessToken(s Store) string {
	if credentials, ok := s.Lookup(); ok {
		return credentials.Access
	}
	return ""
}

// RefreshToken returns stored refresh token or empty string
func RefreshToken(s Store) string {
	if credentials, ok := s.Lookup(); ok {
		return credentials.Refresh
	}
	return ""
}

// UpdateTokens overwrites access token and, when not empty, the refresh token; role is preserved
func UpdateTokens(s Store, access, refresh string) error {
	credentials, ok := s.Lookup()
	if !ok {
		credentials = &Credentials{}
	}
	credentials.Access = access
	if refresh != "" {
		credentials.Refresh = refresh
	}
	return s.Save(credentials)
}

type memoryStore struct {
	mu          sync.RWMutex
	credentials *Credentials
}

func (m *memoryStore) Lookup() (*Credentials, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.credentials == nil {
		return nil, false
	}
	return m.credentials.Clone(), true
}

func (m *memoryStore) Save(credentials *Credentials) error {
	if credentials == nil {
		return m.Clear()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials = credentials.Clone()
	return nil
}

func (m *memoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials = nil
	return nil
}

// NewMemoryStore creates process-lifetime store, optionally seeded with credentials
func NewMemoryStore(seed ...*Credentials) Store {
	ret := &memoryStore{}
	if len(seed) > 0 && seed[0] != nil {
		ret.credentials = seed[0].Clone()
	}
	return ret
}
