package transport

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/brokerage/client/auth/store"
)

type Option func(*RoundTripper)

// WithStore sets credential store
func WithStore(store store.Store) Option {
	return func(r *RoundTripper) {
		r.store = store
	}
}

// WithRefreshURL sets token refresh endpoint, e.g. https://api.example.com/api/token/refresh/
func WithRefreshURL(URL string) Option {
	return func(r *RoundTripper) {
		r.refreshURL = URL
	}
}

// WithTransport sets the underlying transport
func WithTransport(transport http.RoundTripper) Option {
	return func(r *RoundTripper) {
		r.transport = transport
	}
}

// WithLogger sets logger
func WithLogger(logger zerolog.Logger) Option {
	return func(r *RoundTripper) {
		r.logger = logger
	}
}

// WithMetrics sets metrics collector
func WithMetrics(metrics *Metrics) Option {
	return func(r *RoundTripper) {
		r.metrics = metrics
	}
}

// WithRefreshTimeout limits how long a shared token refresh may take
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(r *RoundTripper) {
		r.refreshTimeout = timeout
	}
}
