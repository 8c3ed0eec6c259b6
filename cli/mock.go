package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/common-nighthawk/go-figure"
	"github.com/viant/brokerage/client/auth/mock"
	"github.com/viant/brokerage/schema"
)

// Version is set at build time
var Version = "dev"

const appName = "brokerctl"

func (s *Service) version() error {
	banner := figure.NewFigure(appName, "cybermedium", true)
	if _, err := s.out.Write([]byte(banner.String())); err != nil {
		return err
	}
	return s.print(map[string]string{"name": appName, "version": Version})
}

// newMockService builds mock API seeded with users and a published sample order
func newMockService(cmd *MockCommand) (*mock.Service, error) {
	service := mock.New(mock.WithRotation(cmd.Rotate))
	if err := service.AddUser(cmd.Username, cmd.Password, schema.RoleUser); err != nil {
		return nil, err
	}
	if cmd.Admin != "" && cmd.Admin != cmd.Username {
		if err := service.AddUser(cmd.Admin, cmd.Password, schema.RoleAdmin); err != nil {
			return nil, err
		}
	}
	oranges, ok := service.HSCodeID("08051000")
	if !ok {
		return nil, errors.New("mock hs codes are not seeded")
	}
	_, err := service.AddOrder(cmd.Username, &schema.OrderInput{
		OrderNumber:      "SAMPLE-001",
		FreightPrice:     120,
		CurrencyType:     "USD",
		SellerCountry:    "Spain",
		Date:             "2025-03-01",
		ExpireDate:       "2025-09-01",
		TermsOfDelivery:  "CIF",
		TermsOfPayment:   "TT",
		MeansOfTransport: "sea",
		CountryOfOrigin:  "Spain",
		Standard:         "EN",
		Goods: []schema.GoodInput{
			{Description: "fresh oranges", HSCodeID: oranges, Quantity: 1000, Origin: "Spain", UnitPrice: 1.2, Unit: "kg", NetWeight: 1000, GrossWeight: 1080},
		},
	}, true)
	return service, err
}

func (s *Service) mock(ctx context.Context) error {
	cmd := &s.options.Mock
	service, err := newMockService(cmd)
	if err != nil {
		return err
	}
	listener, err := net.Listen("tcp", cmd.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %v", cmd.Addr)
	}
	server := &http.Server{Handler: service.Handler(), ReadHeaderTimeout: 10 * time.Second}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	s.logger.Warn().
		Str("api", "http://"+listener.Addr().String()+mock.BasePath+"/").
		Str("user", cmd.Username).
		Str("admin", cmd.Admin).
		Bool("rotate", cmd.Rotate).
		Msg("mock API listening")
	if err = server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
