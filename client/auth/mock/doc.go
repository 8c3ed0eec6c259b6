// Package mock provides an in-memory emulation of the brokerage REST API that
// facilitates testing of the client, the authenticated transport and the CLI.
//
// It issues signed JWT access tokens, opaque refresh tokens with optional
// rotation, and exposes knobs to expire tokens, reject or slow down refresh
// calls, so that token refresh behaviour can be exercised without a real backend.
package mock
