package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/kofalt/go-memoize"
	"github.com/rs/zerolog"
	"github.com/viant/brokerage/client/auth/store"
	"github.com/viant/brokerage/client/auth/transport"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	refreshPath      = "token/refresh/"
	defaultTimeout   = 30 * time.Second
	defaultSearchTTL = time.Minute
)

// Client is a brokerage API client
type Client struct {
	baseURL    string
	timeout    time.Duration
	searchTTL  time.Duration
	store      store.Store
	transport  http.RoundTripper
	logger     zerolog.Logger
	metrics    *transport.Metrics
	auth       *transport.RoundTripper
	httpClient *http.Client
	searches   *memoize.Memoizer

	Auth        *Auth
	Profile     *Profile
	Orders      *Orders
	Marketplace *Marketplace
	HSCodes     *HSCodes
	Imports     *Imports
}

// RequestOptions describes a single API request
type RequestOptions struct {
	Method string
	// Body is sent as-is when it is an io.Reader, otherwise it is JSON encoded
	Body   interface{}
	Header http.Header
	Query  url.Values
	// SkipAuth sends the request without bearer token and without refresh on 401
	SkipAuth bool
}

// New creates a client for the API rooted at baseURL, e.g. https://broker.example.com/api/
func New(baseURL string, options ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.Wrapf(err, "invalid API base URL: %v", baseURL)
	}
	ret := &Client{
		baseURL:   strings.TrimRight(baseURL, "/") + "/",
		timeout:   defaultTimeout,
		searchTTL: defaultSearchTTL,
		store:     store.NewMemoryStore(),
		transport: http.DefaultTransport,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		opt(ret)
	}
	var err error
	if ret.auth, err = transport.New(
		transport.WithStore(ret.store),
		transport.WithRefreshURL(ret.URL(refreshPath)),
		transport.WithTransport(ret.transport),
		transport.WithLogger(ret.logger),
		transport.WithMetrics(ret.metrics),
		transport.WithRefreshTimeout(ret.timeout),
	); err != nil {
		return nil, err
	}
	ret.httpClient = &http.Client{Transport: ret.auth, Timeout: ret.timeout}
	ret.searches = memoize.NewMemoizer(ret.searchTTL, 2*ret.searchTTL)
	ret.Auth = &Auth{client: ret}
	ret.Profile = &Profile{client: ret}
	ret.Orders = &Orders{client: ret}
	ret.Marketplace = &Marketplace{client: ret}
	ret.HSCodes = &HSCodes{client: ret}
	ret.Imports = &Imports{client: ret}
	return ret, nil
}

// URL resolves target against the API base URL; absolute targets are returned unchanged
func (c *Client) URL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return c.baseURL + strings.TrimLeft(target, "/")
}

// Store returns the credential store
func (c *Client) Store() store.Store {
	return c.store
}

// Transport returns the authenticated round tripper
func (c *Client) Transport() *transport.RoundTripper {
	return c.auth
}

// Request sends an API request and returns the raw response; the caller closes its body.
// On 401 the access token is refreshed once and the request replayed; when the refresh
// fails the original 401 response is returned.
func (c *Client) Request(ctx context.Context, target string, options *RequestOptions) (*http.Response, error) {
	if options == nil {
		options = &RequestOptions{}
	}
	method := options.Method
	if method == "" {
		method = http.MethodGet
	}
	URL := c.URL(target)
	if len(options.Query) > 0 {
		separator := "?"
		if strings.Contains(URL, "?") {
			separator = "&"
		}
		URL += separator + options.Query.Encode()
	}
	body, contentType, err := encodeBody(options.Body)
	if err != nil {
		return nil, err
	}
	if options.SkipAuth {
		ctx = transport.WithoutAuth(ctx)
	}
	req, err := http.NewRequestWithContext(ctx, method, URL, body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %v %v request", method, URL)
	}
	for key, values := range options.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	c.logger.Debug().Str("method", method).Str("url", req.URL.Redacted()).Msg("api request")
	return c.httpClient.Do(req)
}

// encodeBody leaves readers to the caller's content type and JSON encodes anything else
func encodeBody(body interface{}) (io.Reader, string, error) {
	switch actual := body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return actual, "", nil
	case []byte:
		return bytes.NewReader(actual), "application/json", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to encode request body")
	}
	return bytes.NewReader(data), "application/json", nil
}

// call sends a request, checks the status and decodes the response into result when not nil.
// Accepted statuses default to any 2xx.
func (c *Client) call(ctx context.Context, target string, options *RequestOptions, result interface{}, accepted ...int) error {
	if options == nil {
		options = &RequestOptions{}
	}
	resp, err := c.Request(ctx, target, options)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to read response of %v", c.URL(target))
	}
	if !isAccepted(resp.StatusCode, accepted) {
		statusErr := newHTTPStatusError(resp, data)
		if resp.StatusCode == http.StatusUnauthorized && !options.SkipAuth {
			// the session could not be recovered, drop what is left of it
			if clearErr := c.store.Clear(); clearErr != nil {
				c.logger.Error().Err(clearErr).Msg("failed to clear credentials")
			}
			return errors.Mark(statusErr, transport.ErrAuthenticationRequired)
		}
		return statusErr
	}
	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, result); err != nil {
		return errors.Wrapf(err, "failed to decode response of %v", c.URL(target))
	}
	return nil
}

func isAccepted(status int, accepted []int) bool {
	if len(accepted) == 0 {
		return status >= 200 && status <= 299
	}
	for _, candidate := range accepted {
		if candidate == status {
			return true
		}
	}
	return false
}

// listOf decodes either a bare array or a paginated {"results": [...]} envelope
func listOf[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []T{}, nil
	}
	var ret []T
	if trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &ret)
		return ret, err
	}
	envelope := struct {
		Results []T `json:"results"`
	}{}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	if envelope.Results == nil {
		return []T{}, nil
	}
	return envelope.Results, nil
}

// list fetches a collection accepting both array and paginated shapes
func list[T any](ctx context.Context, c *Client, target string, options *RequestOptions) ([]T, error) {
	var raw jsoniter.RawMessage
	if err := c.call(ctx, target, options, &raw); err != nil {
		return nil, err
	}
	ret, err := listOf[T](raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %v list", target)
	}
	return ret, nil
}
