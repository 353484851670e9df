package core

import "errors"

// ErrorCode is a stable, machine-readable identifier carried by ExchangeError.Code.
type ErrorCode string

const (
	// ErrCodeNetwork indicates a network connectivity failure.
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"
	// ErrCodeHTTPStatus indicates an HTTP status of 400 or above.
	ErrCodeHTTPStatus ErrorCode = "HTTP_STATUS"
	// ErrCodeInBody indicates a 2xx response whose body reports a failure.
	ErrCodeInBody ErrorCode = "IN_BODY_ERROR"

	ErrCodeCircuitOpen        ErrorCode = "CIRCUIT_OPEN"
	ErrCodeInvalidState       ErrorCode = "INVALID_STATE"
	ErrCodeMissingCredentials ErrorCode = "MISSING_CREDENTIALS"

	// Stream errors
	ErrCodeAuthRejected     ErrorCode = "AUTH_REJECTED"
	ErrCodeHeartbeatTimeout ErrorCode = "HEARTBEAT_TIMEOUT"
	ErrCodeTokenRenewal     ErrorCode = "TOKEN_RENEWAL"
	ErrCodeDecode           ErrorCode = "DECODE_FAILED"
)

// IsErrorCode checks if the error chain holds an ExchangeError with the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return ErrorCode(exErr.Code) == code
	}
	return false
}
