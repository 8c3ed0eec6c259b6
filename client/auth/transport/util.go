package transport

import (
	"bytes"
	"io"
	"net/http"
)

// readBody drains and closes request body so that it can be replayed
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// authorize clones request with replayable body and, when token is not empty, a bearer header
func authorize(r *http.Request, body []byte, token string) *http.Request {
	cloned := r.Clone(r.Context())
	if body != nil {
		cloned.Body = io.NopCloser(bytes.NewReader(body))
		cloned.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		cloned.ContentLength = int64(len(body))
	}
	if token != "" {
		cloned.Header.Set("Authorization", "Bearer "+token)
	}
	return cloned
}

// bufferResponse reads response body into memory so that it stays readable after the connection is released
func bufferResponse(resp *http.Response) error {
	if resp.Body == nil {
		resp.Body = http.NoBody
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return err
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return nil
}
