package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Transport/Availability errors (retryable)
const (
	// ErrCodeConnectionFailed indicates a failed connection to the backend.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeServiceUnavailable indicates the backend is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeRateLimited indicates the client is rate limited.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeServerError indicates a 5xx-class failure on the backend.
	ErrCodeServerError ErrorCode = "SERVER_ERROR"
	// ErrCodeOffline indicates the device had no connectivity when the
	// operation was attempted.
	ErrCodeOffline ErrorCode = "OFFLINE"
)

// Authentication/Authorization errors
const (
	// ErrCodeUnauthorized indicates the caller is not authenticated.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeForbidden indicates the caller lacks permission.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
	// ErrCodeTokenExpired indicates the session has expired.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Resource/Sync errors
const (
	// ErrCodeNotFound indicates the requested record was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeConflict indicates divergent concurrent writes to a record.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeReplayFailed indicates a queued offline action failed replay.
	ErrCodeReplayFailed ErrorCode = "REPLAY_FAILED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeServiceUnavailable: true,
	ErrCodeRateLimited:        true,
	ErrCodeServerError:        true,
	ErrCodeOffline:            true,
	ErrCodeReplayFailed:       true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
