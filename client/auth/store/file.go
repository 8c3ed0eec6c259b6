package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/viant/afs"
)

const credentialsFileMode os.FileMode = 0o600

// FileStore persists credentials as JSON at URL (a local path or any afs supported scheme).
// It is a lightweight way to survive process restarts in CLI or single-host usage.
type FileStore struct {
	mu          sync.RWMutex
	URL         string
	fs          afs.Service
	credentials *Credentials
}

// NewFileStore creates a store persisting credentials at URL, loading existing ones
func NewFileStore(ctx context.Context, URL string) (*FileStore, error) {
	if URL == "" {
		return nil, errors.New("file store URL was empty")
	}
	ret := &FileStore{URL: URL, fs: afs.New()}
	if err := ret.load(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

func (f *FileStore) Lookup() (*Credentials, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.credentials == nil {
		return nil, false
	}
	return f.credentials.Clone(), true
}

func (f *FileStore) Save(credentials *Credentials) error {
	if credentials == nil {
		return f.Clear()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.MarshalIndent(credentials, "", "  ")
	if err != nil {
		return err
	}
	if err = f.fs.Upload(context.Background(), f.URL, credentialsFileMode, bytes.NewReader(data)); err != nil {
		return errors.Wrapf(err, "failed to persist credentials to %v", f.URL)
	}
	f.credentials = credentials.Clone()
	return nil
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credentials = nil
	ctx := context.Background()
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil || !exists {
		return err
	}
	if err = f.fs.Delete(ctx, f.URL); err != nil {
		return errors.Wrapf(err, "failed to remove credentials %v", f.URL)
	}
	return nil
}

func (f *FileStore) load(ctx context.Context) error {
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil {
		return errors.Wrapf(err, "failed to check credentials %v", f.URL)
	}
	if !exists {
		return nil
	}
	data, err := f.fs.DownloadWithURL(ctx, f.URL)
	if err != nil {
		return errors.Wrapf(err, "failed to load credentials %v", f.URL)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	credentials := &Credentials{}
	if err = json.Unmarshal(data, credentials); err != nil {
		return errors.Wrapf(err, "invalid credentials file %v", f.URL)
	}
	if !credentials.IsEmpty() {
		f.credentials = credentials
	}
	return nil
}
