// internal/perplexity/errors.go
package perplexity

import (
	"errors"
	"fmt"
)

// Every failure is terminal. The client never retries.
var (
	ErrConfiguration   = errors.New("GENERATION_CONFIGURATION_ERROR")
	ErrInvalidRequest  = errors.New("GENERATION_INVALID_REQUEST")
	ErrTimeout         = errors.New("GENERATION_TIMEOUT")
	ErrTransport       = errors.New("GENERATION_TRANSPORT_FAILED")
	ErrUpstream        = errors.New("GENERATION_UPSTREAM_ERROR")
	ErrInvalidResponse = errors.New("GENERATION_INVALID_RESPONSE")
	ErrEmptyResponse   = errors.New("GENERATION_EMPTY_RESPONSE")
)

// UpstreamError is returned when the completion API answers with a status other than 200.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", ErrUpstream, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

// TransportError wraps network failures other than a deadline.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Outcome returns a short label for err, used for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	default:
		return "unknown"
	}
}
