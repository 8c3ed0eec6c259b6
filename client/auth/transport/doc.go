// Package transport implements an http.RoundTripper that authenticates requests
// with a bearer access token and recovers from `401 Unauthorized` responses.
//
// On a 401 the RoundTripper exchanges the stored refresh token for a new access
// token and replays the original request once. Concurrent 401s share a single
// refresh call. When the refresh cannot be performed (no refresh token, or the
// server rejects it) stored credentials are cleared and the original 401 response
// is handed back to the caller, who is expected to send the user to sign in again.
package transport
