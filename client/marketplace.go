package client

import (
	"context"

	"github.com/google/uuid"
	"github.com/viant/brokerage/schema"
)

const marketplacePath = "marketplace/orders/"

// Marketplace browses verified orders, no sign in is needed
type Marketplace struct {
	client *Client
}

// List returns verified orders matching filter
func (m *Marketplace) List(ctx context.Context, filter *schema.MarketplaceFilter) ([]schema.Order, error) {
	return list[schema.Order](ctx, m.client, marketplacePath, &RequestOptions{Query: filter.Values(), SkipAuth: true})
}

// Get returns a verified order
func (m *Marketplace) Get(ctx context.Context, id uuid.UUID) (*schema.Order, error) {
	var ret schema.Order
	if err := m.client.call(ctx, marketplacePath+id.String()+"/", &RequestOptions{SkipAuth: true}, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}
