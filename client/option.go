package client

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/brokerage/client/auth/store"
	"github.com/viant/brokerage/client/auth/transport"
)

// Option represents option
type Option func(c *Client)

// WithStore sets credential store, defaults to memory
func WithStore(store store.Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithTransport sets the transport used underneath the authenticated one
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithTimeout sets overall request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetrics sets transport metrics
func WithMetrics(metrics *transport.Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithSearchTTL sets how long hs code search results are cached
func WithSearchTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.searchTTL = ttl
		}
	}
}
