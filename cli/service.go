package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/brokerage"
	"github.com/viant/brokerage/client"
	"github.com/viant/brokerage/internal/config"
	"github.com/viant/brokerage/internal/logging"
	"github.com/viant/brokerage/schema"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Service executes brokerctl commands
type Service struct {
	options  *Options
	config   *config.Config
	out      io.Writer
	logger   zerolog.Logger
	fs       afs.Service
	registry *prometheus.Registry
	client   *client.Client
}

// New loads configuration and applies flag overrides; the API client is created lazily
func New(ctx context.Context, options *Options, out io.Writer) (*Service, error) {
	cfg, err := config.Load(options.Config)
	if err != nil {
		return nil, err
	}
	if options.API != "" {
		cfg.APIBase = options.API
	}
	if options.Store != "" {
		cfg.Store.Kind = options.Store
	}
	if options.StoreURL != "" {
		cfg.Store.URL = options.StoreURL
	}
	if options.StoreKey != "" {
		cfg.Store.Key = options.StoreKey
	}
	if options.LogLevel != "" {
		cfg.Log.Level = options.LogLevel
	}
	cfg.Init()
	return &Service{
		options: options,
		config:  cfg,
		out:     out,
		logger:  logging.New(cfg.Log.Level, cfg.Log.Pretty),
		fs:      afs.New(),
	}, nil
}

// Run executes command by name
func (s *Service) Run(ctx context.Context, command string) error {
	switch command {
	case "version":
		return s.version()
	case "mock":
		return s.mock(ctx)
	}
	if err := s.init(ctx); err != nil {
		return err
	}
	defer s.logMetrics()
	switch command {
	case "login":
		return s.login(ctx)
	case "register":
		return s.register(ctx)
	case "logout":
		if err := s.client.Auth.Logout(); err != nil {
			return err
		}
		return s.print(map[string]string{"detail": "signed out"})
	case "whoami":
		return s.whoami(ctx)
	case "token":
		return s.token(ctx)
	case "profile":
		return s.printResult(s.client.Profile.Me(ctx))
	case "update-profile":
		return s.updateProfile(ctx)
	case "orders":
		return s.printResult(s.client.Orders.List(ctx))
	case "order":
		return s.withOrderID(s.options.Order.ID, func(id uuid.UUID) (interface{}, error) {
			return s.client.Orders.Get(ctx, id)
		})
	case "create-order":
		return s.createOrder(ctx)
	case "delete-order":
		return s.withOrderID(s.options.DeleteOrder.ID, func(id uuid.UUID) (interface{}, error) {
			return map[string]string{"detail": "deleted", "uuid": id.String()}, s.client.Orders.Delete(ctx, id)
		})
	case "verify-order":
		return s.withOrderID(s.options.VerifyOrder.ID, func(id uuid.UUID) (interface{}, error) {
			return s.client.Orders.SetVerified(ctx, id, !s.options.VerifyOrder.Withdraw)
		})
	case "market":
		return s.printResult(s.client.Marketplace.List(ctx, s.options.Market.filter()))
	case "market-order":
		return s.withOrderID(s.options.MarketOrder.ID, func(id uuid.UUID) (interface{}, error) {
			return s.client.Marketplace.Get(ctx, id)
		})
	case "hscodes":
		return s.hsCodes(ctx)
	case "import":
		return s.importFile(ctx)
	}
	return errors.Newf("unsupported command: %v", command)
}

func (s *Service) init(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	options := brokerage.OptionsFromConfig(s.config)
	options.Logger = &s.logger
	if s.config.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		options.Metrics = s.registry
	}
	var err error
	s.client, err = brokerage.NewClient(ctx, options)
	return err
}

func (s *Service) print(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = s.out.Write(append(data, '\n'))
	return err
}

func (s *Service) printResult(v interface{}, err error) error {
	if err != nil {
		return err
	}
	return s.print(v)
}

func (s *Service) withOrderID(raw string, fn func(id uuid.UUID) (interface{}, error)) error {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return errors.Wrapf(err, "invalid order id %q", raw)
	}
	return s.printResult(fn(id))
}

func (s *Service) login(ctx context.Context) error {
	cmd := s.options.Login
	password := cmd.Password
	if password == "" {
		password = os.Getenv("BROKERAGE_PASSWORD")
	}
	resp, err := s.client.Auth.Login(ctx, cmd.Username, password)
	if err != nil {
		return err
	}
	return s.print(map[string]string{"username": cmd.Username, "role": resp.Role})
}

func (s *Service) register(ctx context.Context) error {
	cmd := s.options.Register
	registration := &schema.Registration{
		Username:  cmd.Username,
		Password:  cmd.Password,
		Password2: cmd.Password2,
		Email:     cmd.Email,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Phone:     cmd.Phone,
	}
	if registration.Password2 == "" {
		registration.Password2 = registration.Password
	}
	resp, err := s.client.Auth.Register(ctx, registration)
	if err != nil {
		return err
	}
	return s.print(map[string]string{"username": cmd.Username, "role": resp.Role, "detail": resp.Detail})
}

func (s *Service) whoami(ctx context.Context) error {
	profile, err := s.client.Profile.Me(ctx)
	if err != nil {
		return err
	}
	return s.print(map[string]interface{}{"id": profile.ID, "username": profile.Username, "role": profile.Role})
}

func (s *Service) token(ctx context.Context) error {
	if s.options.Token.Refresh {
		if _, err := s.client.Auth.Refresh(ctx); err != nil {
			return err
		}
	}
	token, err := s.client.Transport().Token()
	if err != nil {
		return err
	}
	ret := map[string]interface{}{"access_token": token.AccessToken, "token_type": token.TokenType}
	if !token.Expiry.IsZero() {
		ret["expiry"] = token.Expiry
	}
	if credentials, ok := s.client.Auth.Credentials(); ok {
		ret["role"] = credentials.Role
	}
	return s.print(ret)
}

func (s *Service) updateProfile(ctx context.Context) error {
	cmd := s.options.UpdateProfile
	update := &schema.ProfileUpdate{}
	set := func(value string) *string {
		if value == "" {
			return nil
		}
		return &value
	}
	update.FirstName, update.LastName = set(cmd.FirstName), set(cmd.LastName)
	update.Email, update.Phone = set(cmd.Email), set(cmd.Phone)
	if update.IsEmpty() {
		return errors.New("nothing to update, use --first-name, --last-name, --email or --phone")
	}
	return s.printResult(s.client.Profile.Update(ctx, update))
}

func (s *Service) createOrder(ctx context.Context) error {
	data, err := s.fs.DownloadWithURL(ctx, s.options.CreateOrder.File)
	if err != nil {
		return errors.Wrapf(err, "failed to read %v", s.options.CreateOrder.File)
	}
	input := &schema.OrderInput{}
	if err = json.Unmarshal(data, input); err != nil {
		return errors.Wrapf(err, "invalid order file %v", s.options.CreateOrder.File)
	}
	return s.printResult(s.client.Orders.Create(ctx, input))
}

func (s *Service) hsCodes(ctx context.Context) error {
	cmd := s.options.HSCodes
	if cmd.ID > 0 {
		return s.printResult(s.client.HSCodes.Get(ctx, cmd.ID))
	}
	if strings.TrimSpace(cmd.Query) == "" {
		return errors.New("either --query or --id is required")
	}
	return s.printResult(s.client.HSCodes.Search(ctx, cmd.Query))
}

func (s *Service) importFile(ctx context.Context) error {
	cmd := s.options.Import
	data, err := s.fs.DownloadWithURL(ctx, cmd.File)
	if err != nil {
		return errors.Wrapf(err, "failed to read %v", cmd.File)
	}
	name := cmd.File[strings.LastIndex(cmd.File, "/")+1:]
	return s.printResult(s.client.Imports.Upload(ctx, schema.ImportTarget(cmd.Target), name, bytes.NewReader(data), cmd.DryRun))
}

func (m *MarketCommand) filter() *schema.MarketplaceFilter {
	ret := &schema.MarketplaceFilter{
		Query:            m.Query,
		SellerCountry:    m.SellerCountry,
		CurrencyType:     m.CurrencyType,
		TermsOfDelivery:  m.TermsOfDelivery,
		TermsOfPayment:   m.TermsOfPayment,
		MeansOfTransport: m.MeansOfTransport,
		Standard:         m.Standard,
		CountryOfOrigin:  m.CountryOfOrigin,
		HSCodes:          m.HSCodes,
	}
	if m.TotalValueMin > 0 {
		ret.TotalValueMin = &m.TotalValueMin
	}
	if m.TotalValueMax > 0 {
		ret.TotalValueMax = &m.TotalValueMax
	}
	if partial, err := strconv.ParseBool(m.Partial); err == nil {
		ret.PartialShipment = &partial
	}
	return ret
}

// logMetrics reports transport counters when metrics are enabled
func (s *Service) logMetrics() {
	if s.registry == nil {
		return
	}
	families, err := s.registry.Gather()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to gather metrics")
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			event := s.logger.Info().Str("metric", family.GetName()).Float64("value", metric.GetCounter().GetValue())
			for _, label := range metric.GetLabel() {
				event = event.Str(label.GetName(), label.GetValue())
			}
			event.Msg("transport metric")
		}
	}
}
