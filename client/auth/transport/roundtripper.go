package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/viant/brokerage/client/auth/store"
	"golang.org/x/sync/singleflight"
)

const (
	refreshKey            = "refresh"
	defaultRefreshTimeout = 30 * time.Second
)

// RoundTripper attaches the stored access token to outgoing requests and, on 401,
// refreshes it once per burst of concurrent failures before replaying the request.
type RoundTripper struct {
	store      store.Store
	refreshURL string
	// refreshTimeout bounds a shared refresh, which ignores callers' deadlines
	refreshTimeout time.Duration
	transport      http.RoundTripper
	logger     zerolog.Logger
	metrics    *Metrics
	group      singleflight.Group
	mux        sync.Mutex
}

func New(options ...Option) (*RoundTripper, error) {
	ret := &RoundTripper{
		transport:      http.DefaultTransport,
		store:          store.NewMemoryStore(),
		logger:         zerolog.Nop(),
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.refreshURL == "" {
		return nil, errors.New("token refresh URL was empty")
	}
	if ret.refreshTimeout <= 0 {
		ret.refreshTimeout = defaultRefreshTimeout
	}
	if ret.store == nil {
		return nil, errors.New("credential store was nil")
	}
	return ret, nil
}

func (r *RoundTripper) Store() store.Store {
	return r.store
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if skipAuth(ctx) {
		return r.transport.RoundTrip(req)
	}
	body, err := readBody(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read request body")
	}

	// 1) Send with whatever access token is currently stored.
	access := store.AccessToken(r.store)
	resp, err := r.transport.RoundTrip(authorize(req, body, access))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	r.metrics.unauthorized()
	// An aborted request is neither refreshed nor replayed.
	if ctx.Err() != nil {
		return resp, nil
	}
	// Keep the 401 readable: it is returned as-is when the refresh fails.
	if err = bufferResponse(resp); err != nil {
		return nil, errors.Wrap(err, "failed to read unauthorized response")
	}

	// 2) Obtain a fresh access token, sharing any refresh already in flight.
	token, err := r.refresh(ctx, access)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			_ = resp.Body.Close()
			return nil, ctxErr
		}
		r.logger.Warn().Err(err).Str("url", req.URL.Redacted()).Msg("token refresh failed, returning unauthorized response")
		return resp, nil
	}
	_ = resp.Body.Close()

	// 3) Replay once; a second 401 is the caller's concern.
	r.metrics.retried()
	return r.transport.RoundTrip(authorize(req, body, token))
}

// Refresh forces a coordinated access token refresh and returns the new token
func (r *RoundTripper) Refresh(ctx context.Context) (string, error) {
	return r.refresh(ctx, store.AccessToken(r.store))
}

// refresh returns a new access token. sentWith is the token the failed request carried:
// if the store already holds a different one, a refresh completed after that request was
// sent and its token is reused instead of starting another refresh.
func (r *RoundTripper) refresh(ctx context.Context, sentWith string) (string, error) {
	r.mux.Lock()
	if current := store.AccessToken(r.store); current != "" && current != sentWith {
		r.mux.Unlock()
		r.logger.Debug().Msg("access token already refreshed")
		return current, nil
	}
	// the refresh outlives any single caller: other waiters may still need its result
	detached := context.WithoutCancel(ctx)
	result := r.group.DoChan(refreshKey, func() (interface{}, error) {
		refreshCtx, cancel := context.WithTimeout(detached, r.refreshTimeout)
		defer cancel()
		return r.refreshAccessToken(refreshCtx)
	})
	r.mux.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case outcome := <-result:
		if outcome.Shared {
			r.logger.Debug().Msg("joined in-flight token refresh")
		}
		if outcome.Err != nil {
			return "", outcome.Err
		}
		return outcome.Val.(string), nil
	}
}

func (r *RoundTripper) clearCredentials(reason string) {
	r.logger.Warn().Str("reason", reason).Msg("clearing stored credentials")
	if err := r.store.Clear(); err != nil {
		r.logger.Error().Err(err).Msg("failed to clear credentials")
	}
}
