package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/brokerage/client/auth/mock"
	"github.com/viant/brokerage/client/auth/transport"
)

func newTestAPI(t *testing.T) (string, *mock.Service) {
	service, err := newMockService(&MockCommand{Username: "demo", Password: "password123", Admin: "admin"})
	require.NoError(t, err)
	srv := httptest.NewServer(service.Handler())
	t.Cleanup(srv.Close)
	return srv.URL + mock.BasePath + "/", service
}

func run(t *testing.T, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	err := RunWithWriter(context.Background(), args, buf)
	return buf.String(), err
}

func TestRun(t *testing.T) {
	t.Setenv("BROKERAGE_CONFIG", "")
	t.Setenv("BROKERAGE_PASSWORD", "password123")
	api, service := newTestAPI(t)
	storeURL := filepath.Join(t.TempDir(), "credentials.json")
	global := []string{"--api", api, "--store", "file", "--store-url", storeURL}
	with := func(args ...string) []string {
		return append(append([]string{}, global...), args...)
	}

	output, err := run(t, with("login", "-u", "demo")...)
	require.NoError(t, err)
	assert.Contains(t, output, `"role": "user"`)
	_, err = os.Stat(storeURL)
	require.NoError(t, err)

	output, err = run(t, with("whoami")...)
	require.NoError(t, err)
	assert.Contains(t, output, `"username": "demo"`)

	output, err = run(t, with("orders")...)
	require.NoError(t, err)
	assert.Contains(t, output, "SAMPLE-001")

	service.ExpireAccessTokens()
	output, err = run(t, with("profile")...)
	require.NoError(t, err)
	assert.Contains(t, output, `"username": "demo"`)
	assert.Equal(t, 1, service.RefreshCalls())

	output, err = run(t, with("token")...)
	require.NoError(t, err)
	assert.Contains(t, output, `"token_type": "Bearer"`)
	assert.Contains(t, output, `"role": "user"`)

	output, err = run(t, with("market", "--query", "oranges")...)
	require.NoError(t, err)
	assert.Contains(t, output, "SAMPLE-001")

	output, err = run(t, with("hscodes", "-q", "oranges")...)
	require.NoError(t, err)
	assert.Contains(t, output, "08051000")

	_, err = run(t, with("logout")...)
	require.NoError(t, err)
	_, err = run(t, with("whoami")...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, transport.ErrAuthenticationRequired))
}

func TestRun_Errors(t *testing.T) {
	t.Setenv("BROKERAGE_CONFIG", "")
	t.Setenv("BROKERAGE_API_BASE", "")
	api, _ := newTestAPI(t)

	_, err := run(t, "--store", "memory", "whoami")
	assert.Error(t, err, "missing api base")

	_, err = run(t, "--api", api, "--store", "memory", "order", "--id", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid order id")

	_, err = run(t, "--api", api, "--store", "memory", "hscodes")
	assert.Error(t, err)

	_, err = run(t, "--api", api, "--store", "memory", "update-profile")
	assert.Error(t, err)

	_, err = run(t, "unknown-command")
	assert.Error(t, err)
}

func TestRun_Version(t *testing.T) {
	t.Setenv("BROKERAGE_CONFIG", "")
	output, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, output, `"version": "dev"`)
	assert.Contains(t, output, `"name": "brokerctl"`)
}

func TestMarketCommand_Filter(t *testing.T) {
	cmd := &MarketCommand{Query: "laptop", TotalValueMin: 10, Partial: "false", HSCodes: []string{"8471"}}
	filter := cmd.filter()
	require.NotNil(t, filter.TotalValueMin)
	assert.EqualValues(t, 10, *filter.TotalValueMin)
	assert.Nil(t, filter.TotalValueMax)
	require.NotNil(t, filter.PartialShipment)
	assert.False(t, *filter.PartialShipment)
	values := filter.Values()
	assert.Equal(t, "laptop", values.Get("q"))
	assert.Equal(t, "8471", values.Get("hs_code"))

	assert.Nil(t, (&MarketCommand{}).filter().PartialShipment)
}
