package transport

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*RoundTripper)(nil)

// Token returns stored credentials as an oauth2 token, so that the store can back any oauth2 aware client.
// Expiry is taken from the access token "exp" claim when present.
func (r *RoundTripper) Token() (*oauth2.Token, error) {
	credentials, ok := r.store.Lookup()
	if !ok || credentials.Access == "" {
		return nil, errors.Mark(errors.New("no access token stored"), ErrAuthenticationRequired)
	}
	return &oauth2.Token{
		AccessToken:  credentials.Access,
		TokenType:    "Bearer",
		RefreshToken: credentials.Refresh,
		Expiry:       credentials.Expiry(),
	}, nil
}
