package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/viant/brokerage/schema"
)

const hsCodesPath = "hs-codes/"

// HSCodes looks up tariff codes
type HSCodes struct {
	client *Client
}

// Search returns codes matching query by code or goods name; results are cached per query.
// An empty query returns nothing without calling the API.
func (h *HSCodes) Search(ctx context.Context, query string) ([]schema.HSCodeOption, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []schema.HSCodeOption{}, nil
	}
	// concurrent searches for the same query share one fetch, so it must not depend on the first caller's context
	detached := context.WithoutCancel(ctx)
	value, err, _ := h.client.searches.Memoize(query, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(detached, h.client.timeout)
		defer cancel()
		return list[schema.HSCodeOption](fetchCtx, h.client, hsCodesPath, &RequestOptions{Query: url.Values{"search": {query}}})
	})
	if err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	options, ok := value.([]schema.HSCodeOption)
	if !ok {
		return nil, errors.Newf("unexpected cached value type %T", value)
	}
	return append([]schema.HSCodeOption(nil), options...), nil
}

// Get returns full hs code details
func (h *HSCodes) Get(ctx context.Context, id int) (*schema.HSCode, error) {
	var ret schema.HSCode
	if err := h.client.call(ctx, hsCodesPath+strconv.Itoa(id)+"/", nil, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}
