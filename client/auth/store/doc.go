// Package store defines the credential store used by the authenticated transport.
//
// A store holds a single credential pair (access and refresh token) together
// with the user role. It is written on login or registration, overwritten on
// token refresh and cleared on logout or when a refresh is rejected.
//
// Three implementations are provided: an in-memory store (default, tests),
// a file store backed by github.com/viant/afs, and an encrypted secret store
// backed by github.com/viant/scy.
package store
