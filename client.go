package brokerage

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/viant/brokerage/client"
	"github.com/viant/brokerage/client/auth/store"
	"github.com/viant/brokerage/client/auth/transport"
	"github.com/viant/brokerage/internal/config"
)

// ClientOptions defines options for configuring a brokerage API client.
type ClientOptions struct {
	APIBase   string        `yaml:"api_base" json:"apiBase,omitempty" short:"a" long:"api" description:"API base URL, e.g. https://broker.example.com/api/"`
	Timeout   time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" long:"timeout" description:"request timeout"`
	SearchTTL time.Duration `yaml:"search_ttl,omitempty" json:"searchTTL,omitempty" long:"search-ttl" description:"hs code search cache ttl"`
	Store     ClientStore   `yaml:"store,omitempty" json:"store,omitempty"`

	// Metrics, when set, receives transport counters
	Metrics prometheus.Registerer `yaml:"-" json:"-"`
	Logger  *zerolog.Logger       `yaml:"-" json:"-"`

	// CredentialStore overrides Store settings with an already built store
	CredentialStore store.Store `yaml:"-" json:"-"`
}

// ClientStore defines where credentials are persisted
type ClientStore struct {
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty" long:"store" description:"credential store" choice:"memory" choice:"file" choice:"secret"`
	URL  string `yaml:"url,omitempty" json:"url,omitempty" long:"store-url" description:"credential store location"`
	Key  string `yaml:"key,omitempty" json:"key,omitempty" long:"store-key" description:"credential encryption key, e.g. blowfish://default"`
}

// OptionsFromConfig maps loaded configuration onto client options
func OptionsFromConfig(cfg *config.Config) *ClientOptions {
	return &ClientOptions{
		APIBase:   cfg.APIBase,
		Timeout:   cfg.Timeout,
		SearchTTL: cfg.SearchTTL,
		Store:     ClientStore{Kind: cfg.Store.Kind, URL: cfg.Store.URL, Key: cfg.Store.Key},
	}
}

// NewClient creates a brokerage API client with credential store, logging and metrics configured via ClientOptions.
func NewClient(ctx context.Context, options *ClientOptions) (*client.Client, error) {
	credentials := options.CredentialStore
	if credentials == nil {
		var err error
		if credentials, err = store.New(ctx, options.Store.Kind, options.Store.URL, options.Store.Key); err != nil {
			return nil, err
		}
	}
	clientOptions := []client.Option{client.WithStore(credentials)}
	if options.Timeout > 0 {
		clientOptions = append(clientOptions, client.WithTimeout(options.Timeout))
	}
	if options.SearchTTL > 0 {
		clientOptions = append(clientOptions, client.WithSearchTTL(options.SearchTTL))
	}
	if options.Logger != nil {
		clientOptions = append(clientOptions, client.WithLogger(*options.Logger))
	}
	if options.Metrics != nil {
		metrics, err := transport.NewMetrics(options.Metrics)
		if err != nil {
			return nil, err
		}
		clientOptions = append(clientOptions, client.WithMetrics(metrics))
	}
	return client.New(options.APIBase, clientOptions...)
}
