package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/viant/brokerage/client/auth/store"
	"github.com/viant/brokerage/schema"
)

// Auth manages the session: login, registration and logout
type Auth struct {
	client *Client
}

// Login exchanges username and password for a token pair and persists it
func (a *Auth) Login(ctx context.Context, username, password string) (*schema.AuthResponse, error) {
	request := &schema.LoginRequest{Username: strings.TrimSpace(username), Password: password}
	if request.Username == "" || request.Password == "" {
		return nil, schema.NewFieldError("username", "username and password are required")
	}
	return a.authenticate(ctx, "auth/login", request)
}

// Register creates an account and persists the returned token pair
func (a *Auth) Register(ctx context.Context, registration *schema.Registration) (*schema.AuthResponse, error) {
	if err := registration.Validate(); err != nil {
		return nil, err
	}
	return a.authenticate(ctx, "auth/register", registration)
}

func (a *Auth) authenticate(ctx context.Context, target string, payload interface{}) (*schema.AuthResponse, error) {
	var resp schema.AuthResponse
	options := &RequestOptions{Method: http.MethodPost, Body: payload, SkipAuth: true}
	if err := a.client.call(ctx, target, options, &resp); err != nil {
		return nil, err
	}
	if resp.Access == "" || resp.Refresh == "" {
		return nil, errors.Newf("%v response did not include tokens", target)
	}
	credentials := &store.Credentials{Access: resp.Access, Refresh: resp.Refresh, Role: resp.Role}
	if err := a.client.store.Save(credentials); err != nil {
		return nil, errors.Wrap(err, "failed to persist credentials")
	}
	return &resp, nil
}

// Logout forgets stored credentials
func (a *Auth) Logout() error {
	return a.client.store.Clear()
}

// Credentials returns stored credentials
func (a *Auth) Credentials() (*store.Credentials, bool) {
	return a.client.store.Lookup()
}

// IsAuthenticated returns true when an access token is stored
func (a *Auth) IsAuthenticated() bool {
	return store.AccessToken(a.client.store) != ""
}

// Refresh forces an access token refresh
func (a *Auth) Refresh(ctx context.Context) (string, error) {
	return a.client.auth.Refresh(ctx)
}
