package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	ErrCanvasNotFound   = fmt.Errorf("canvas not found")
	ErrObjectNotFound   = fmt.Errorf("object not found")
	ErrProviderNotFound = fmt.Errorf("provider not found")
	ErrMissingAPIKey    = fmt.Errorf("provider api key not configured")
	ErrRateLimited      = fmt.Errorf("rate limit exceeded")
	ErrCircuitOpen      = fmt.Errorf("circuit breaker open")
	ErrRequestFailed    = fmt.Errorf("provider request failed")
	ErrInvalidResponse  = fmt.Errorf("invalid provider response format")
	ErrAPIError         = fmt.Errorf("provider api error")
	ErrBatchCreate      = fmt.Errorf("batch create failed")
	ErrUnknownTool      = fmt.Errorf("unknown tool")
	ErrUnknownLayout    = fmt.Errorf("unknown layout type")
	ErrConfigLoad       = fmt.Errorf("failed to load configuration")
)

// APIError carries a vendor's non-2xx status and response body. It unwraps
// to ErrAPIError so callers can match with errors.Is.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: api error %d: %s", e.Provider, e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return ErrAPIError }

// DomainError wraps a sentinel error with operation context.
type DomainError struct {
	Op     string // operation name (e.g. "Orchestrator.Execute")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error. Returns nil if err is nil,
// enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsTerminal reports whether err must not be retried via fallback.
// Configuration errors and missing canvases cannot be fixed by switching
// providers.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrCanvasNotFound) || errors.Is(err, ErrMissingAPIKey)
}

// ErrorCode is a machine-parseable error category for monitoring.
type ErrorCode string

const (
	CodeUnknown          ErrorCode = "UNKNOWN"
	CodeCanvasNotFound   ErrorCode = "CANVAS_NOT_FOUND"
	CodeObjectNotFound   ErrorCode = "OBJECT_NOT_FOUND"
	CodeProviderNotFound ErrorCode = "PROVIDER_NOT_FOUND"
	CodeMissingAPIKey    ErrorCode = "MISSING_API_KEY"
	CodeRateLimited      ErrorCode = "RATE_LIMITED"
	CodeCircuitOpen      ErrorCode = "CIRCUIT_OPEN"
	CodeRequestFailed    ErrorCode = "REQUEST_FAILED"
	CodeInvalidResponse  ErrorCode = "INVALID_RESPONSE_FORMAT"
	CodeAPIError         ErrorCode = "API_ERROR"
	CodeBatchCreate      ErrorCode = "BATCH_CREATE_FAILED"
	CodeUnknownTool      ErrorCode = "UNKNOWN_TOOL"
	CodeUnknownLayout    ErrorCode = "UNKNOWN_LAYOUT"
	CodeConfigLoad       ErrorCode = "CONFIG_LOAD"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
var errorCodeMap = map[error]ErrorCode{
	ErrCanvasNotFound:   CodeCanvasNotFound,
	ErrObjectNotFound:   CodeObjectNotFound,
	ErrProviderNotFound: CodeProviderNotFound,
	ErrMissingAPIKey:    CodeMissingAPIKey,
	ErrRateLimited:      CodeRateLimited,
	ErrCircuitOpen:      CodeCircuitOpen,
	ErrRequestFailed:    CodeRequestFailed,
	ErrInvalidResponse:  CodeInvalidResponse,
	ErrAPIError:         CodeAPIError,
	ErrBatchCreate:      CodeBatchCreate,
	ErrUnknownTool:      CodeUnknownTool,
	ErrUnknownLayout:    CodeUnknownLayout,
	ErrConfigLoad:       CodeConfigLoad,
}

// ErrorCodeOf returns the machine-parseable code for err, walking the error
// chain with errors.Is. Returns CodeUnknown when no sentinel matches.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return CodeUnknown
}
