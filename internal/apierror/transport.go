package apierror

import (
	"io"
	"net/http"
	"strings"
)

// MaxErrorBody caps how much of an error response body is read.
const MaxErrorBody = 4 << 10

// StatusTransport is an http.RoundTripper that fails every non-2xx response with an
// HTTPStatusError. It lets clients that decode bodies regardless of status, such as
// the Google Maps SDK, still report HTTP failures.
type StatusTransport struct {
	Base http.RoundTripper
}

// RoundTrip executes the request and converts non-2xx responses to errors.
func (t *StatusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBody))
		_ = resp.Body.Close()

		return nil, &HTTPStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return resp, nil
}
