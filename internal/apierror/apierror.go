// Package apierror classifies failures of upstream API calls so callers can either
// treat them as a single "no result" outcome or inspect the precise reason.
package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Reason describes why an upstream call produced no result.
type Reason string

const (
	// ReasonNetwork covers transport failures, timeouts and cancellation.
	ReasonNetwork Reason = "network"
	// ReasonHTTPStatus is returned for any non-2xx HTTP response.
	ReasonHTTPStatus Reason = "http_status"
	// ReasonServiceStatus is returned when the service rejects the request in its payload.
	ReasonServiceStatus Reason = "service_status"
	// ReasonParse covers malformed bodies and missing required fields.
	ReasonParse Reason = "parse"
	// ReasonInvalidInput is returned when a call is rejected before any request is made.
	ReasonInvalidInput Reason = "invalid_input"
)

// HTTPStatusError is returned when an upstream API answers with a non-2xx status.
type HTTPStatusError struct {
	Code int
	Body string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// ProviderError is the failure result of an upstream API call.
type ProviderError struct {
	Provider   string // Provider names the upstream service.
	Reason     Reason // Reason classifies the failure.
	StatusCode int    // StatusCode is set for ReasonHTTPStatus.
	Err        error  // Err is the underlying error.
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Reason, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// New wraps err as a ProviderError with an explicit reason.
func New(provider string, reason Reason, err error) *ProviderError {
	perr := &ProviderError{Provider: provider, Reason: reason, Err: err}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		perr.StatusCode = statusErr.Code
	}

	return perr
}

// Classify wraps err as a ProviderError, deriving the reason from the error chain.
// An error that is already a ProviderError is returned unchanged.
func Classify(provider string, err error) *ProviderError {
	if err == nil {
		return nil
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}

	redactURL(err)

	return New(provider, reasonFor(err), err)
}

// Wrap classifies err with msg as context. The query string of a *url.Error in the
// chain is stripped before the message is built, so API keys never reach the error text.
func Wrap(provider, msg string, err error) *ProviderError {
	if err == nil {
		return nil
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr
	}

	redactURL(err)

	return New(provider, reasonFor(err), fmt.Errorf("%s: %w", msg, err))
}

// redactURL strips the query string, which carries the API key, from a *url.Error.
func redactURL(err error) {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return
	}

	parsed, parseErr := url.Parse(urlErr.URL)
	if parseErr != nil {
		urlErr.URL = ""
		return
	}
	parsed.RawQuery = ""
	urlErr.URL = parsed.String()
}

func reasonFor(err error) Reason {
	var (
		statusErr *HTTPStatusError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		urlErr    *url.Error
		netErr    net.Error
	)

	switch {
	case errors.As(err, &statusErr):
		return ReasonHTTPStatus
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return ReasonParse
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonNetwork
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		return ReasonNetwork
	default:
		return ReasonServiceStatus
	}
}

// ReasonOf returns the reason carried by err, or an empty Reason when err is not a ProviderError.
func ReasonOf(err error) Reason {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Reason
	}

	return ""
}
