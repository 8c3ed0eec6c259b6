package client

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/viant/brokerage/schema"
)

const ordersPath = "registered-orders/"

// Orders manages registered orders of the signed in user, admins see every order
type Orders struct {
	client *Client
}

func orderPath(id uuid.UUID) string {
	return ordersPath + id.String() + "/"
}

// List returns registered orders, newest first
func (o *Orders) List(ctx context.Context) ([]schema.Order, error) {
	return list[schema.Order](ctx, o.client, ordersPath, nil)
}

// Get returns a single order
func (o *Orders) Get(ctx context.Context, id uuid.UUID) (*schema.Order, error) {
	return o.send(ctx, orderPath(id), &RequestOptions{})
}

// Create registers a new order; totals are computed by the server
func (o *Orders) Create(ctx context.Context, input *schema.OrderInput) (*schema.Order, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return o.send(ctx, ordersPath, &RequestOptions{Method: http.MethodPost, Body: input}, http.StatusCreated, http.StatusOK)
}

// Update replaces an order including its goods
func (o *Orders) Update(ctx context.Context, id uuid.UUID, input *schema.OrderInput) (*schema.Order, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return o.send(ctx, orderPath(id), &RequestOptions{Method: http.MethodPut, Body: input})
}

// Patch partially updates an order, fields map to the order json names
func (o *Orders) Patch(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*schema.Order, error) {
	return o.send(ctx, orderPath(id), &RequestOptions{Method: http.MethodPatch, Body: fields})
}

// Delete removes an order
func (o *Orders) Delete(ctx context.Context, id uuid.UUID) error {
	return o.client.call(ctx, orderPath(id), &RequestOptions{Method: http.MethodDelete}, nil, http.StatusNoContent, http.StatusOK)
}

// SetVerified publishes or withdraws an order from the marketplace, admin only
func (o *Orders) SetVerified(ctx context.Context, id uuid.UUID, verified bool) (*schema.Order, error) {
	options := &RequestOptions{Method: http.MethodPatch, Body: &schema.VerifyRequest{Verified: verified}}
	return o.send(ctx, orderPath(id)+"verify/", options)
}

func (o *Orders) send(ctx context.Context, target string, options *RequestOptions, accepted ...int) (*schema.Order, error) {
	var ret schema.Order
	if err := o.client.call(ctx, target, options, &ret, accepted...); err != nil {
		return nil, err
	}
	return &ret, nil
}
