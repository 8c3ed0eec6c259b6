package store

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/viant/afs"
	"github.com/viant/scy"
)

// DefaultSecretKey uses scy blowfish kms with its default key; the blowfish kms package must be imported by the binary
const DefaultSecretKey = "blowfish://default"

// SecretStore persists credentials encrypted at rest with scy.
type SecretStore struct {
	mu          sync.RWMutex
	fs          afs.Service
	secrets     *scy.Service
	resource    *scy.Resource
	credentials *Credentials
}

// NewSecretStore creates an encrypted store at URL using the scy key (e.g. blowfish://default)
func NewSecretStore(ctx context.Context, URL, key string) (*SecretStore, error) {
	if URL == "" {
		return nil, errors.New("secret store URL was empty")
	}
	if key == "" {
		key = DefaultSecretKey
	}
	ret := &SecretStore{
		fs:       afs.New(),
		secrets:  scy.New(),
		resource: scy.NewResource(&Credentials{}, URL, key),
	}
	if err := ret.load(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SecretStore) Lookup() (*Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.credentials == nil {
		return nil, false
	}
	return s.credentials.Clone(), true
}

func (s *SecretStore) Save(credentials *Credentials) error {
	if credentials == nil {
		return s.Clear()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	secret := scy.NewSecret(credentials.Clone(), s.resource)
	if err := s.secrets.Store(context.Background(), secret); err != nil {
		return errors.Wrapf(err, "failed to store encrypted credentials %v", s.resource.URL)
	}
	s.credentials = credentials.Clone()
	return nil
}

func (s *SecretStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = nil
	ctx := context.Background()
	exists, err := s.fs.Exists(ctx, s.resource.URL)
	if err != nil || !exists {
		return err
	}
	return s.fs.Delete(ctx, s.resource.URL)
}

func (s *SecretStore) load(ctx context.Context) error {
	exists, err := s.fs.Exists(ctx, s.resource.URL)
	if err != nil {
		return errors.Wrapf(err, "failed to check credentials %v", s.resource.URL)
	}
	if !exists {
		return nil
	}
	secret, err := s.secrets.Load(ctx, s.resource)
	if err != nil {
		return errors.Wrapf(err, "failed to decrypt credentials %v", s.resource.URL)
	}
	credentials, ok := secret.Target.(*Credentials)
	if !ok {
		return errors.Newf("unexpected secret target %T", secret.Target)
	}
	if !credentials.IsEmpty() {
		s.credentials = credentials
	}
	return nil
}
