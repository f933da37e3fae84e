package api

import "fmt"

// Error taxonomy for remote calls. Each type reports whether the retry
// engine may attempt the operation again via Retryable:
//
//	NetworkError        transport failure            retryable
//	TimeoutError        deadline exceeded            retryable
//	ServerError         5xx and other server faults  retryable
//	AuthenticationError 401/403                      never retried
//	ValidationError     400 or bad local input       never retried
//
// Callers pattern-match with errors.As; the retry engine never wraps
// these, so the kind survives retry exhaustion.

// NetworkError indicates a transport-level failure (connection refused,
// DNS, reset).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network connection failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable reports that network failures may be retried.
func (e *NetworkError) Retryable() bool { return true }

// TimeoutError indicates the configured wall-clock timeout fired before
// the backend responded.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Retryable reports that timeouts may be retried.
func (e *TimeoutError) Retryable() bool { return true }

// ServerError indicates the backend answered with a server-side failure.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Retryable reports that server faults may be retried.
func (e *ServerError) Retryable() bool { return true }

// AuthenticationError indicates rejected credentials or denied access.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "Authentication failed. Please log in again."
	}
	return e.Message
}

// Retryable reports that authentication failures are never retried.
func (e *AuthenticationError) Retryable() bool { return false }

// ValidationError indicates a malformed request or invalid local input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return "Invalid request data"
	}
	return e.Message
}

// Retryable reports that validation failures are never retried.
func (e *ValidationError) Retryable() bool { return false }
