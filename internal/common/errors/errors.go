// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lead-magnet-workers/internal/perplexity"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeGenerationConfiguration   ErrorCode = "GENERATION_CONFIGURATION_ERROR"
	ErrCodeGenerationTimeout         ErrorCode = "GENERATION_TIMEOUT"
	ErrCodeGenerationTransport       ErrorCode = "GENERATION_TRANSPORT_FAILED"
	ErrCodeGenerationUpstream        ErrorCode = "GENERATION_UPSTREAM_ERROR"
	ErrCodeGenerationInvalidResponse ErrorCode = "GENERATION_INVALID_RESPONSE"
	ErrCodeGenerationEmptyResponse   ErrorCode = "GENERATION_EMPTY_RESPONSE"

	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// HTTPStatus returns the status a web layer should answer with for this error.
func (e *StandardError) HTTPStatus() int {
	return HTTPStatus(e.Code)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newStandardError(code ErrorCode, message string, cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidInputError creates a non-retryable input validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Job input failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(err error) *StandardError {
	return newStandardError(ErrCodeInternalError, "Unexpected error", err)
}

// FromGenerationError classifies an error returned by the content generation
// client. Errors that are already a StandardError are returned as is.
func FromGenerationError(err error) *StandardError {
	if err == nil {
		return nil
	}

	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	switch {
	case stderrors.Is(err, perplexity.ErrConfiguration):
		return newStandardError(ErrCodeGenerationConfiguration, "Content generation is not configured", err)

	case stderrors.Is(err, perplexity.ErrInvalidRequest):
		return newStandardError(ErrCodeInvalidInput, "Generation request is invalid", err)

	case stderrors.Is(err, perplexity.ErrTimeout):
		return newStandardError(ErrCodeGenerationTimeout, "Content generation timed out", err)

	case stderrors.Is(err, perplexity.ErrTransport):
		return newStandardError(ErrCodeGenerationTransport, "Content generation service unreachable", err)

	case stderrors.Is(err, perplexity.ErrUpstream):
		stdErr := newStandardError(ErrCodeGenerationUpstream, "Content generation service rejected the request", err)
		var upstream *perplexity.UpstreamError
		if stderrors.As(err, &upstream) {
			stdErr.Metadata = map[string]interface{}{"upstreamStatus": upstream.StatusCode}
		}
		return stdErr

	case stderrors.Is(err, perplexity.ErrInvalidResponse):
		return newStandardError(ErrCodeGenerationInvalidResponse, "Generated content could not be parsed", err)

	case stderrors.Is(err, perplexity.ErrEmptyResponse):
		return newStandardError(ErrCodeGenerationEmptyResponse, "Generated content was empty", err)

	default:
		return NewInternalError(err)
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (identical).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeGenerationConfiguration:   "GENERATION_CONFIGURATION_ERROR",
	ErrCodeGenerationTimeout:         "GENERATION_TIMEOUT",
	ErrCodeGenerationTransport:       "GENERATION_TRANSPORT_FAILED",
	ErrCodeGenerationUpstream:        "GENERATION_UPSTREAM_ERROR",
	ErrCodeGenerationInvalidResponse: "GENERATION_INVALID_RESPONSE",
	ErrCodeGenerationEmptyResponse:   "GENERATION_EMPTY_RESPONSE",
	ErrCodeInvalidInput:              "INVALID_INPUT",
	ErrCodeInternalError:             "INTERNAL_ERROR",
}

// GetRetryCount returns the retry count for a code. Generation is fail-fast,
// so every known code maps to zero.
func GetRetryCount(code ErrorCode) int {
	return 0
}

// HTTPStatus maps an error code to the status a web layer should return.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeGenerationConfiguration, ErrCodeGenerationUpstream,
		ErrCodeGenerationInvalidResponse, ErrCodeGenerationEmptyResponse:
		return http.StatusBadGateway
	case ErrCodeGenerationTransport:
		return http.StatusServiceUnavailable
	case ErrCodeGenerationTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	code, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		code = string(stdErr.Code)
	}

	vars := map[string]interface{}{
		"httpStatus": HTTPStatus(stdErr.Code),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           code,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        GetRetryCount(stdErr.Code),
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch {
	case code == ErrCodeInvalidInput:
		return "VALIDATION"
	case code == ErrCodeGenerationConfiguration:
		return "CONFIGURATION"
	case code == ErrCodeGenerationTimeout, code == ErrCodeGenerationTransport:
		return "CONNECTIVITY"
	case strings.HasPrefix(string(code), "GENERATION_"):
		return "UPSTREAM"
	default:
		return "INTERNAL"
	}
}
