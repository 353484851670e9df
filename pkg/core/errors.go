package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of a venue error.
type ErrorType int

const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTransport indicates a network or connection failure.
	ErrorTypeTransport
	// ErrorTypeUpstream indicates an HTTP error status or an error reported inside the response body.
	ErrorTypeUpstream
	// ErrorTypeAuthentication indicates a private stream rejected the credentials.
	ErrorTypeAuthentication
	// ErrorTypeInvalidState indicates an operation the current lifecycle state forbids.
	ErrorTypeInvalidState
	// ErrorTypeLivenessTimeout indicates a heartbeat probe went unanswered.
	ErrorTypeLivenessTimeout
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"TRANSPORT",
		"UPSTREAM",
		"AUTHENTICATION",
		"INVALID_STATE",
		"LIVENESS_TIMEOUT",
	}[t]
}

var (
	// ErrMissingCredentials is returned when a signed call has no key pair to sign with.
	ErrMissingCredentials = errors.New("no credentials configured")
	// ErrMissingPassphrase is returned by venues that require a passphrase.
	ErrMissingPassphrase = errors.New("passphrase required")
	// ErrNotConnected is returned when sending on a session without a live connection.
	ErrNotConnected = errors.New("stream not connected")
	// ErrKeyAuthUnsupported is returned for key-only calls on venues without key-only authentication.
	ErrKeyAuthUnsupported = errors.New("venue has no key-only authentication")
	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ExchangeError is the single error type surfaced by REST clients and streaming sessions.
type ExchangeError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code, zero for non-HTTP failures.
	StatusCode int `json:"status_code"`
	// Code is one of the ErrorCode constants.
	Code string `json:"code"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Body is the parsed error payload returned by the venue (JSON value or raw text).
	Body any `json:"body,omitempty"`
	// Venue identifies which venue the error relates to.
	Venue string `json:"venue"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`

	Err error `json:"-"`
}

// Error returns "[venue] TYPE (status/code): message".
func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (%d/%s): %s",
			e.Venue, e.Type, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (%d): %s",
		e.Venue, e.Type, e.StatusCode, e.Message)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// WithCode sets the error code and returns the error for chaining.
func (e *ExchangeError) WithCode(code ErrorCode) *ExchangeError {
	e.Code = string(code)
	return e
}

// NewExchangeError creates an ExchangeError stamped with the current time.
func NewExchangeError(venue string, errorType ErrorType, statusCode int, message string) *ExchangeError {
	return &ExchangeError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Venue:      venue,
		Timestamp:  time.Now(),
	}
}

// NewTransportError wraps a network failure.
func NewTransportError(venue string, err error) *ExchangeError {
	e := NewExchangeError(venue, ErrorTypeTransport, 0, err.Error()).WithCode(ErrCodeNetwork)
	e.Err = err
	return e
}

// NewUpstreamError reports an HTTP error status or in-body failure; body is
// the parsed payload.
func NewUpstreamError(venue string, statusCode int, body any) *ExchangeError {
	code := ErrCodeHTTPStatus
	if statusCode < 400 {
		code = ErrCodeInBody
	}
	e := NewExchangeError(venue, ErrorTypeUpstream, statusCode, describeBody(body)).WithCode(code)
	e.Body = body
	return e
}

// NewAuthenticationError reports a rejected stream login. body is the rejecting message.
func NewAuthenticationError(venue string, body any) *ExchangeError {
	e := NewExchangeError(venue, ErrorTypeAuthentication, 0, "authentication rejected: "+describeBody(body)).
		WithCode(ErrCodeAuthRejected)
	e.Body = body
	return e
}

func NewInvalidStateError(venue, message string) *ExchangeError {
	return NewExchangeError(venue, ErrorTypeInvalidState, 0, message).WithCode(ErrCodeInvalidState)
}

func NewLivenessTimeoutError(venue string, timeout time.Duration) *ExchangeError {
	return NewExchangeError(venue, ErrorTypeLivenessTimeout, 0,
		fmt.Sprintf("no heartbeat acknowledgement within %s", timeout)).WithCode(ErrCodeHeartbeatTimeout)
}

func describeBody(body any) string {
	switch v := body.(type) {
	case nil:
		return "empty response"
	case string:
		if len(v) > 256 {
			return v[:256] + "..."
		}
		return v
	case []byte:
		return describeBody(string(v))
	default:
		s := fmt.Sprintf("%v", v)
		if len(s) > 256 {
			return s[:256] + "..."
		}
		return s
	}
}

func errorType(err error) (ErrorType, bool) {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type, true
	}
	return ErrorTypeUnknown, false
}

func isType(err error, want ErrorType) bool {
	t, ok := errorType(err)
	return ok && t == want
}

// IsTransportError returns true if the error is a network or connection failure.
func IsTransportError(err error) bool {
	return isType(err, ErrorTypeTransport)
}

// IsUpstreamError returns true if the venue answered with an error.
func IsUpstreamError(err error) bool {
	return isType(err, ErrorTypeUpstream)
}

// IsAuthenticationError returns true if a stream login was rejected.
// Authentication errors are fatal and should not be retried with the same credentials.
func IsAuthenticationError(err error) bool {
	return isType(err, ErrorTypeAuthentication)
}

func IsInvalidState(err error) bool {
	return isType(err, ErrorTypeInvalidState)
}

// IsLivenessTimeout returns true if a connection was closed because a heartbeat went unanswered.
func IsLivenessTimeout(err error) bool {
	return isType(err, ErrorTypeLivenessTimeout)
}
