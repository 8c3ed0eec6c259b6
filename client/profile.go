package client

import (
	"context"
	"net/http"

	"github.com/viant/brokerage/schema"
)

const mePath = "me/"

// Profile reads and updates the signed in user
type Profile struct {
	client *Client
}

// Me returns the signed in user; a 401 that survives token refresh clears stored credentials
func (p *Profile) Me(ctx context.Context) (*schema.Profile, error) {
	var ret schema.Profile
	if err := p.client.call(ctx, mePath, nil, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Update applies a partial profile update
func (p *Profile) Update(ctx context.Context, update *schema.ProfileUpdate) (*schema.Profile, error) {
	if update == nil || update.IsEmpty() {
		return p.Me(ctx)
	}
	var ret schema.Profile
	if err := p.client.call(ctx, mePath, &RequestOptions{Method: http.MethodPatch, Body: update}, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}
