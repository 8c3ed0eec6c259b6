package client

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/viant/brokerage/schema"
)

// ErrMissingBaseURL is returned when the API base URL is not configured
var ErrMissingBaseURL = errors.New("API base URL is not configured")

// HTTPStatusError is returned when the API responds with an unexpected status
type HTTPStatusError struct {
	URL        string
	Method     string
	Status     string
	StatusCode int
	// Message is the first human readable message found in the error body
	Message string
	Body    []byte
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.URL, e.Status, e.Message)
}

func newHTTPStatusError(resp *http.Response, body []byte) *HTTPStatusError {
	ret := &HTTPStatusError{
		Status:     resp.Status,
		StatusCode: resp.StatusCode,
		Body:       body,
		Message:    schema.FirstErrorMessage(body, http.StatusText(resp.StatusCode)),
	}
	if resp.Request != nil {
		ret.Method = resp.Request.Method
		ret.URL = resp.Request.URL.Redacted()
	}
	return ret
}

// StatusCode returns HTTP status carried by err, or 0
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// IsUnauthorized returns true if err carries status 401
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsForbidden returns true if err carries status 403
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

// IsNotFound returns true if err carries status 404
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
