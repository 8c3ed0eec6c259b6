package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/brokerage/client/auth/store"
)

// backend emulates a resource endpoint accepting a set of access tokens and a scripted refresh endpoint
type backend struct {
	mu            sync.Mutex
	valid         map[string]bool
	refreshStatus int
	refreshBody   string
	refreshGate   chan struct{}
	refreshSeen   chan struct{}
	headers       []string
	bodies        []string
	refreshCalls  atomic.Int32
	resourceCalls atomic.Int32
	unauthorized  atomic.Int32
	server        *httptest.Server
}

func newBackend(t *testing.T, validTokens ...string) *backend {
	ret := &backend{valid: map[string]bool{}, refreshStatus: http.StatusOK, refreshSeen: make(chan struct{}, 100)}
	for _, token := range validTokens {
		ret.valid[token] = true
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token/refresh/", ret.handleRefresh)
	mux.HandleFunc("/api/resource/", ret.handleResource)
	ret.server = httptest.NewServer(mux)
	t.Cleanup(ret.server.Close)
	return ret
}

func (b *backend) refreshURL() string {
	return b.server.URL + "/api/token/refresh/"
}

func (b *backend) resourceURL() string {
	return b.server.URL + "/api/resource/"
}

func (b *backend) accept(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.valid[token] = true
}

func (b *backend) respondRefresh(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshStatus, b.refreshBody = status, body
}

func (b *backend) recorded() ([]string, []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.headers...), append([]string{}, b.bodies...)
}

func (b *backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)
	b.refreshSeen <- struct{}{}
	if b.refreshGate != nil {
		select {
		case <-b.refreshGate:
		case <-time.After(5 * time.Second):
		}
	}
	b.mu.Lock()
	status, body := b.refreshStatus, b.refreshBody
	b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (b *backend) handleResource(w http.ResponseWriter, r *http.Request) {
	b.resourceCalls.Add(1)
	data, _ := io.ReadAll(r.Body)
	header := r.Header.Get("Authorization")
	b.mu.Lock()
	b.headers = append(b.headers, header)
	b.bodies = append(b.bodies, string(data))
	ok := b.valid[strings.TrimPrefix(header, "Bearer ")]
	b.mu.Unlock()
	if !ok {
		b.unauthorized.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Given token not valid for any token type"}`)
		return
	}
	_, _ = io.WriteString(w, "ok")
}

func newTestRoundTripper(t *testing.T, b *backend, credentials *store.Credentials, options ...Option) (*RoundTripper, store.Store) {
	var seed []*store.Credentials
	if credentials != nil {
		seed = append(seed, credentials)
	}
	credStore := store.NewMemoryStore(seed...)
	options = append([]Option{WithStore(credStore), WithRefreshURL(b.refreshURL())}, options...)
	rt, err := New(options...)
	require.NoError(t, err)
	return rt, credStore
}

func get(t *testing.T, ctx context.Context, rt http.RoundTripper, URL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, URL, nil)
	require.NoError(t, err)
	return (&http.Client{Transport: rt}).Do(req)
}

func readAll(t *testing.T, resp *http.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestNew(t *testing.T) {
	_, err := New()
	assert.Error(t, err)

	rt, err := New(WithRefreshURL("http://localhost/api/token/refresh/"))
	require.NoError(t, err)
	assert.NotNil(t, rt.Store())
	assert.Equal(t, "", store.AccessToken(rt.Store()))
	assert.Equal(t, defaultRefreshTimeout, rt.refreshTimeout)

	rt, err = New(WithRefreshURL("http://localhost/api/token/refresh/"), WithRefreshTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Second, rt.refreshTimeout)
}

func TestRoundTripper_ValidToken(t *testing.T) {
	b := newBackend(t, "A")
	rt, _ := newTestRoundTripper(t, b, &store.Credentials{Access: "A", Refresh: "R"})

	resp, err := get(t, context.Background(), rt, b.resourceURL())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", readAll(t, resp))
	assert.EqualValues(t, 1, b.resourceCalls.Load())
	assert.EqualValues(t, 0, b.refreshCalls.Load())
	headers, _ := b.recorded()
	assert.Equal(t, []string{"Bearer A"}, headers)
}

func TestRoundTripper_RefreshAndRetry(t *testing.T) {
	var testCases = []struct {
		description     string
		credentials     *store.Credentials
		refreshBody     string
		expectAccess    string
		expectRefresh   string
		expectRefreshed string
	}{
		{
			description:   "access only response keeps refresh token",
			credentials:   &store.Credentials{Access: "A1", Refresh: "R1", Role: "user"},
			refreshBody:   `{"access":"A2"}`,
			expectAccess:  "A2",
			expectRefresh: "R1",
		},
		{
			description:   "rotated refresh token is persisted",
			credentials:   &store.Credentials{Access: "expired", Refresh: "valid-r1", Role: "admin"},
			refreshBody:   `{"access":"new-a","refresh":"new-r2"}`,
			expectAccess:  "new-a",
			expectRefresh: "new-r2",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			b := newBackend(t, testCase.expectAccess)
			b.respondRefresh(http.StatusOK, testCase.refreshBody)
			rt, credStore := newTestRoundTripper(t, b, testCase.credentials)

			resp, err := get(t, context.Background(), rt, b.resourceURL())
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "ok", readAll(t, resp))
			assert.EqualValues(t, 1, b.refreshCalls.Load())
			assert.EqualValues(t, 2, b.resourceCalls.Load())

			headers, _ := b.recorded()
			assert.Equal(t, []string{"Bearer " + testCase.credentials.Access, "Bearer " + testCase.expectAccess}, headers)

			credentials, ok := credStore.Lookup()
			require.True(t, ok)
			assert.Equal(t, testCase.expectAccess, credentials.Access)
			assert.Equal(t, testCase.expectRefresh, credentials.Refresh)
			assert.Equal(t, testCase.credentials.Role, credentials.Role)
		})
	}
}

func TestRoundTripper_ReplaysBody(t *testing.T) {
	b := newBackend(t, "A2")
	b.respondRefresh(http.StatusOK, `{"access":"A2"}`)
	rt, _ := newTestRoundTripper(t, b, &store.Credentials{Access: "A1", Refresh: "R1"})

	req, err := http.NewRequest(http.MethodPost, b.resourceURL(), strings.NewReader(`{"order_number":"42"}`))
	require.NoError(t, err)
	resp, err := (&http.Client{Transport: rt}).Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	_, bodies := b.recorded()
	assert.Equal(t, []string{`{"order_number":"42"}`, `{"order_number":"42"}`}, bodies)
}

func TestRoundTripper_ConcurrentUnauthorizedShareRefresh(t *testing.T) {
	const concurrency = 10
	b := newBackend(t, "A2")
	b.respondRefresh(http.StatusOK, `{"access":"A2","refresh":"R2"}`)
	b.refreshGate = make(chan struct{})
	go func() {
		// hold the refresh until every request has been rejected
		deadline := time.Now().Add(5 * time.Second)
		for b.unauthorized.Load() < concurrency && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		close(b.refreshGate)
	}()
	registry := prometheus.NewRegistry()
	metrics, err := NewMetrics(registry)
	require.NoError(t, err)
	rt, credStore := newTestRoundTripper(t, b, &store.Credentials{Access: "A1", Refresh: "R1"}, WithMetrics(metrics))

	var wg sync.WaitGroup
	statuses := make([]int, concurrency)
	errs := make([]error, concurrency)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := get(t, context.Background(), rt, b.resourceURL())
			if errs[i] = err; err == nil {
				statuses[i] = resp.StatusCode
				_ = resp.Body.Close()
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < concurrency; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, http.StatusOK, statuses[i])
	}
	assert.EqualValues(t, 1, b.refreshCalls.Load())
	assert.EqualValues(t, 2*concurrency, b.resourceCalls.Load())
	assert.Equal(t, "A2", store.AccessToken(credStore))
	assert.Equal(t, "R2", store.RefreshToken(credStore))

	assert.EqualValues(t, concurrency, testutil.ToFloat64(metrics.Unauthorized))
	assert.EqualValues(t, concurrency, testutil.ToFloat64(metrics.Retries))
	assert.EqualValues(t, 1, testutil.ToFloat64(metrics.Refreshes.WithLabelValues(outcomeSuccess)))
}

func TestRoundTripper_MissingRefreshToken(t *testing.T) {
	var testCases = []struct {
		description  string
		credentials  *store.Credentials
		expectHeader string
	}{
		{
			description:  "access without refresh",
			credentials:  &store.Credentials{Access: "expired"},
			expectHeader: "Bearer expired",
		},
		{
			description:  "no credentials at all",
			expectHeader: "",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			b := newBackend(t)
			registry := prometheus.NewRegistry()
			metrics, err := NewMetrics(registry)
			require.NoError(t, err)
			rt, credStore := newTestRoundTripper(t, b, testCase.credentials, WithMetrics(metrics))

			resp, err := get(t, context.Background(), rt, b.resourceURL())
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Contains(t, readAll(t, resp), "Given token not valid")
			assert.EqualValues(t, 0, b.refreshCalls.Load())
			assert.EqualValues(t, 1, b.resourceCalls.Load())
			headers, _ := b.recorded()
			assert.Equal(t, []string{testCase.expectHeader}, headers)

			_, ok := credStore.Lookup()
			assert.False(t, ok)
			assert.EqualValues(t, 1, testutil.ToFloat64(metrics.Refreshes.WithLabelValues(outcomeMissing)))

			_, err = rt.Refresh(context.Background())
			assert.True(t, errors.Is(err, ErrAuthenticationRequired))
			assert.True(t, IsAuthFailure(err))
		})
	}
}

func TestRoundTripper_RefreshRejected(t *testing.T) {
	b := newBackend(t)
	b.respondRefresh(http.StatusUnauthorized, `{"detail":"Token is invalid or expired","code":"token_not_valid"}`)
	rt, credStore := newTestRoundTripper(t, b, &store.Credentials{Access: "expired", Refresh: "revoked", Role: "user"})

	resp, err := get(t, context.Background(), rt, b.resourceURL())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, `{"detail":"Given token not valid for any token type"}`, readAll(t, resp))
	assert.EqualValues(t, 1, b.refreshCalls.Load())
	assert.EqualValues(t, 1, b.resourceCalls.Load())
	_, ok := credStore.Lookup()
	assert.False(t, ok)
}

func TestRoundTripper_Refresh(t *testing.T) {
	var testCases = []struct {
		description   string
		status        int
		body          string
		expectAccess  string
		expectErr     error
		expectMessage string
	}{
		{
			description:  "success",
			status:       http.StatusOK,
			body:         `{"access":"A2"}`,
			expectAccess: "A2",
		},
		{
			description:   "rejected with detail",
			status:        http.StatusUnauthorized,
			body:          `{"detail":"Token is invalid or expired","code":"token_not_valid"}`,
			expectErr:     ErrSessionExpired,
			expectMessage: "Token is invalid or expired",
		},
		{
			description:   "rejected with field error",
			status:        http.StatusBadRequest,
			body:          `{"refresh":["This field is required."]}`,
			expectErr:     ErrSessionExpired,
			expectMessage: "This field is required.",
		},
		{
			description:   "rejected without body",
			status:        http.StatusInternalServerError,
			expectErr:     ErrSessionExpired,
			expectMessage: sessionExpiredMessage,
		},
		{
			description:   "success without access",
			status:        http.StatusOK,
			body:          `{}`,
			expectErr:     ErrSessionExpired,
			expectMessage: "access token missing",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			b := newBackend(t)
			b.respondRefresh(testCase.status, testCase.body)
			rt, credStore := newTestRoundTripper(t, b, &store.Credentials{Access: "A1", Refresh: "R1"})

			access, err := rt.Refresh(context.Background())
			if testCase.expectErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, testCase.expectErr))
				assert.Contains(t, err.Error(), testCase.expectMessage)
				_, ok := credStore.Lookup()
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.expectAccess, access)
			assert.Equal(t, testCase.expectAccess, store.AccessToken(credStore))
		})
	}
}

func TestRoundTripper_SecondUnauthorizedIsReturned(t *testing.T) {
	b := newBackend(t)
	b.respondRefresh(http.StatusOK, `{"access":"A2"}`)
	rt, credStore := newTestRoundTripper(t, b, &store.Credentials{Access: "A1", Refresh: "R1"})

	resp, err := get(t, context.Background(), rt, b.resourceURL())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
	assert.EqualValues(t, 1, b.refreshCalls.Load())
	assert.EqualValues(t, 2, b.resourceCalls.Load())
	assert.Equal(t, "A2", store.AccessToken(credStore))
}

func TestRoundTripper_ReusesTokenRefreshedMeanwhile(t *testing.T) {
	b := newBackend(t)
	rt, _ := newTestRoundTripper(t, b, &store.Credentials{Access: "A2", Refresh: "R2"})

	access, err := rt.refresh(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, "A2", access)
	assert.EqualValues(t, 0, b.refreshCalls.Load())
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func unauthorizedResponse(req *http.Request) *http.Response {
	return &http.Response{
		StatusCode: http.StatusUnauthorized,
		Status:     "401 Unauthorized",
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(`{"detail":"expired"}`)),
		Request:    req,
	}
}

func TestRoundTripper_TransportError(t *testing.T) {
	calls := 0
	failing := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("connection refused")
	})
	rt, err := New(WithRefreshURL("http://localhost/api/token/refresh/"), WithTransport(failing),
		WithStore(store.NewMemoryStore(&store.Credentials{Access: "A1", Refresh: "R1"})))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "http://localhost/api/me/", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "A1", store.AccessToken(rt.Store()))
}

func TestRoundTripper_RefreshNetworkFailureKeepsCredentials(t *testing.T) {
	failing := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/token/refresh/") {
			return nil, errors.New("connection reset")
		}
		return unauthorizedResponse(req), nil
	})
	rt, err := New(WithRefreshURL("http://localhost/api/token/refresh/"), WithTransport(failing),
		WithStore(store.NewMemoryStore(&store.Credentials{Access: "A1", Refresh: "R1"})))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "http://localhost/api/me/", nil)
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "R1", store.RefreshToken(rt.Store()))
}

func TestRoundTripper_HungRefreshDoesNotBlockLaterRefresh(t *testing.T) {
	b := newBackend(t, "A2")
	b.respondRefresh(http.StatusOK, `{"access":"A2"}`)
	gate := make(chan struct{})
	b.refreshGate = gate
	rt, credStore := newTestRoundTripper(t, b, &store.Credentials{Access: "A1", Refresh: "R1"}, WithRefreshTimeout(200*time.Millisecond))

	started := time.Now()
	resp, err := get(t, context.Background(), rt, b.resourceURL())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
	assert.Less(t, time.Since(started), 3*time.Second)
	assert.Equal(t, "R1", store.RefreshToken(credStore))

	close(gate)
	var wg sync.WaitGroup
	statuses := make([]int, 5)
	errs := make([]error, 5)
	for i := range statuses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			resp, err := get(t, ctx, rt, b.resourceURL())
			if errs[i] = err; err == nil {
				statuses[i] = resp.StatusCode
				_ = resp.Body.Close()
			}
		}(i)
	}
	wg.Wait()
	for i := range statuses {
		require.NoError(t, errs[i])
		assert.Equal(t, http.StatusOK, statuses[i])
	}
	assert.EqualValues(t, 2, b.refreshCalls.Load())
	assert.Equal(t, "A2", store.AccessToken(credStore))
}

func TestRoundTripper_CancelledBeforeRefresh(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refreshCalls := 0
	transport := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/token/refresh/") {
			refreshCalls++
			return nil, errors.New("unexpected refresh")
		}
		cancel()
		return unauthorizedResponse(req), nil
	})
	rt, err := New(WithRefreshURL("http://localhost/api/token/refresh/"), WithTransport(transport),
		WithStore(store.NewMemoryStore(&store.Credentials{Access: "A1", Refresh: "R1"})))
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://localhost/api/me/", nil)
	require.NoError(t, err)
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, refreshCalls)
	assert.Equal(t, "A1", store.AccessToken(rt.Store()))
}

func TestRoundTripper_CancelledWaiter(t *testing.T) {
	b := newBackend(t, "A2")
	b.respondRefresh(http.StatusOK, `{"access":"A2"}`)
	b.refreshGate = make(chan struct{})
	rt, credStore := newTestRoundTripper(t, b, &store.Credentials{Access: "A1", Refresh: "R1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		_, err := get(t, ctx, rt, b.resourceURL())
		cancelled <- err
	}()
	patient := make(chan int, 1)
	go func() {
		resp, err := get(t, context.Background(), rt, b.resourceURL())
		if err != nil {
			patient <- 0
			return
		}
		_ = resp.Body.Close()
		patient <- resp.StatusCode
	}()

	select {
	case <-b.refreshSeen:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh was not started")
	}
	require.Eventually(t, func() bool { return b.unauthorized.Load() == 2 }, 5*time.Second, time.Millisecond)
	// let both requests reach the shared refresh before cancelling one of them
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-cancelled:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled request did not return")
	}

	close(b.refreshGate)
	select {
	case status := <-patient:
		assert.Equal(t, http.StatusOK, status)
	case <-time.After(5 * time.Second):
		t.Fatal("waiting request did not return")
	}
	assert.EqualValues(t, 1, b.refreshCalls.Load())
	assert.Equal(t, "A2", store.AccessToken(credStore))
}

func TestRoundTripper_WithoutAuth(t *testing.T) {
	b := newBackend(t)
	rt, credStore := newTestRoundTripper(t, b, &store.Credentials{Access: "A1", Refresh: "R1"})

	resp, err := get(t, WithoutAuth(context.Background()), rt, b.resourceURL())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
	headers, _ := b.recorded()
	assert.Equal(t, []string{""}, headers)
	assert.EqualValues(t, 0, b.refreshCalls.Load())
	assert.Equal(t, "A1", store.AccessToken(credStore))
}

func TestRoundTripper_Token(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":        expiry.Unix(),
		"token_type": "access",
		"user_id":    7,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	rt, err := New(WithRefreshURL("http://localhost/api/token/refresh/"),
		WithStore(store.NewMemoryStore(&store.Credentials{Access: signed, Refresh: "R1"})))
	require.NoError(t, err)
	token, err := rt.Token()
	require.NoError(t, err)
	assert.Equal(t, signed, token.AccessToken)
	assert.Equal(t, "R1", token.RefreshToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.True(t, expiry.Equal(token.Expiry))

	empty, err := New(WithRefreshURL("http://localhost/api/token/refresh/"))
	require.NoError(t, err)
	_, err = empty.Token()
	assert.True(t, errors.Is(err, ErrAuthenticationRequired))
}
