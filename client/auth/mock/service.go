package mock

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/viant/brokerage/internal/collection"
	"github.com/viant/brokerage/schema"
)

// BasePath is the path prefix the API is mounted at
const BasePath = "/api"

// Service emulates the brokerage API
type Service struct {
	Secret    []byte
	AccessTTL time.Duration

	mu            sync.RWMutex
	rotate        bool
	rejectRefresh bool
	omitAccess    bool
	refreshDelay  time.Duration
	generation    int

	refreshCalls   atomic.Int64
	protectedCalls atomic.Int64
	nextUserID     atomic.Int64
	nextOrderID    atomic.Int64
	nextHSCodeID   atomic.Int64

	// writes guards multi-step mutations such as uniqueness checks
	writes        sync.Mutex
	users         *collection.SyncMap[string, *user]
	refreshTokens *collection.SyncMap[string, string]
	orders        *collection.SyncMap[uuid.UUID, *storedOrder]
	hsCodes       *collection.SyncMap[int, *schema.HSCode]
	seasons       *collection.SyncMap[string, string]
	headings      *collection.SyncMap[string, string]
}

type Option func(s *Service)

// WithRotation enables refresh token rotation
func WithRotation(rotate bool) Option {
	return func(s *Service) {
		s.rotate = rotate
	}
}

// WithAccessTTL sets access token lifetime
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.AccessTTL = ttl
	}
}

// New creates a service seeded with a few hs codes and their seasons
func New(options ...Option) *Service {
	ret := &Service{
		Secret:        []byte("mock-signing-secret"),
		AccessTTL:     5 * time.Minute,
		users:         collection.NewSyncMap[string, *user](),
		refreshTokens: collection.NewSyncMap[string, string](),
		orders:        collection.NewSyncMap[uuid.UUID, *storedOrder](),
		hsCodes:       collection.NewSyncMap[int, *schema.HSCode](),
		seasons:       collection.NewSyncMap[string, string](),
		headings:      collection.NewSyncMap[string, string](),
	}
	for _, opt := range options {
		opt(ret)
	}
	for _, season := range []string{"1", "8", "84", "85"} {
		ret.seasons.Put(season, "")
	}
	ret.AddHSCode("01012100", "اسب مولد نژاد خالص", "Pure-bred breeding horses")
	ret.AddHSCode("08051000", "پرتقال", "Oranges")
	ret.AddHSCode("84713000", "ماشین های خودکار داده پردازی قابل حمل", "Portable automatic data processing machines")
	ret.AddHSCode("85171300", "گوشی هوشمند", "Smartphones")
	return ret
}

// SetRotation toggles refresh token rotation
func (s *Service) SetRotation(rotate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotate = rotate
}

// SetRejectRefresh makes the refresh endpoint reject every token
func (s *Service) SetRejectRefresh(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectRefresh = reject
}

// SetOmitAccess makes the refresh endpoint answer 200 without an access token
func (s *Service) SetOmitAccess(omit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitAccess = omit
}

// SetRefreshDelay delays refresh responses
func (s *Service) SetRefreshDelay(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshDelay = delay
}

// ExpireAccessTokens invalidates every access token issued so far
func (s *Service) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// RefreshCalls returns number of refresh endpoint calls
func (s *Service) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// ProtectedCalls returns number of calls that reached authenticated endpoints
func (s *Service) ProtectedCalls() int {
	return int(s.protectedCalls.Load())
}

func (s *Service) settings() (rotate, reject, omit bool, delay time.Duration, generation int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rotate, s.rejectRefresh, s.omitAccess, s.refreshDelay, s.generation
}

// Handler returns the API router mounted at BasePath
func (s *Service) Handler() http.Handler {
	router := chi.NewRouter()
	router.Route(BasePath, func(r chi.Router) {
		r.Post("/auth/login", s.loginHandler)
		r.Post("/auth/register", s.registerHandler)
		r.Post("/token/refresh/", s.refreshHandler)

		r.Get("/marketplace/orders/", s.marketplaceListHandler)
		r.Get("/marketplace/orders/{uuid}/", s.marketplaceGetHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Get("/me/", s.meHandler)
			r.Patch("/me/", s.updateMeHandler)

			r.Get("/registered-orders/", s.listOrdersHandler)
			r.Post("/registered-orders/", s.createOrderHandler)
			r.Get("/registered-orders/{uuid}/", s.getOrderHandler)
			r.Put("/registered-orders/{uuid}/", s.updateOrderHandler(false))
			r.Patch("/registered-orders/{uuid}/", s.updateOrderHandler(true))
			r.Delete("/registered-orders/{uuid}/", s.deleteOrderHandler)
			r.Patch("/registered-orders/{uuid}/verify/", s.verifyOrderHandler)

			r.Get("/hs-codes/", s.listHSCodesHandler)
			r.Get("/hs-codes/{id}/", s.getHSCodeHandler)

			r.Post("/import/{target}/", s.importHandler)
		})
	})
	return router
}

// Server is a running httptest server backed by Service
type Server struct {
	*Service
	HTTP    *httptest.Server
	BaseURL string
}

// NewServer starts a test server
func NewServer(options ...Option) *Server {
	service := New(options...)
	srv := httptest.NewServer(service.Handler())
	return &Server{Service: service, HTTP: srv, BaseURL: srv.URL + BasePath}
}

// Close shuts the server down
func (s *Server) Close() {
	s.HTTP.Close()
}
