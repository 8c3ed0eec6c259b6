package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/viant/brokerage/client/auth/store"
	"github.com/viant/brokerage/schema"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const sessionExpiredMessage = "your session has expired, please sign in again"

// refreshAccessToken exchanges the stored refresh token for a new access token and persists the result.
// Credentials are cleared when there is nothing to refresh with or when the server rejects the exchange.
func (r *RoundTripper) refreshAccessToken(ctx context.Context) (string, error) {
	refresh := store.RefreshToken(r.store)
	if refresh == "" {
		r.clearCredentials("refresh token missing")
		r.metrics.refreshed(outcomeMissing)
		return "", errors.Mark(errors.New("refresh token is missing, please sign in again"), ErrAuthenticationRequired)
	}
	r.logger.Debug().Str("url", r.refreshURL).Msg("refreshing access token")

	payload, err := json.Marshal(&schema.RefreshRequest{Refresh: refresh})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "failed to create refresh request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.transport.RoundTrip(req)
	if err != nil {
		r.metrics.refreshed(outcomeError)
		return "", errors.Wrap(err, "token refresh request failed")
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		r.metrics.refreshed(outcomeError)
		return "", errors.Wrap(err, "failed to read refresh response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.clearCredentials("refresh rejected")
		r.metrics.refreshed(outcomeRejected)
		return "", errors.Mark(errors.Newf("%s (status %d)", schema.FirstErrorMessage(data, sessionExpiredMessage), resp.StatusCode), ErrSessionExpired)
	}

	var tokens schema.RefreshResponse
	if err = json.Unmarshal(data, &tokens); err != nil || tokens.Access == "" {
		r.clearCredentials("invalid refresh response")
		r.metrics.refreshed(outcomeRejected)
		return "", errors.Mark(errors.New("invalid refresh response: access token missing"), ErrSessionExpired)
	}
	if err = store.UpdateTokens(r.store, tokens.Access, tokens.Refresh); err != nil {
		r.metrics.refreshed(outcomeError)
		return "", errors.Wrap(err, "failed to persist refreshed tokens")
	}
	r.metrics.refreshed(outcomeSuccess)
	r.logger.Debug().Bool("rotated", tokens.Refresh != "").Msg("access token refreshed")
	return tokens.Access, nil
}
