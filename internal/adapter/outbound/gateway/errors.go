package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNetwork is returned when no response was received: DNS failure, refused
	// connection, timeout or cancellation.
	ErrNetwork = errors.New("network error")

	// ErrRequest is returned when the server answered with a non-success status.
	ErrRequest = errors.New("request failed")

	// ErrQuotaExceeded matches request errors that signal a plan limit, so callers
	// can offer an upgrade instead of a generic failure.
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// NetworkErrorMessage is the user-safe text of every NetworkError.
const NetworkErrorMessage = "Unable to reach the server. Please check your connection and try again."

// InvalidResponseMessage is the message of a RequestError for an unreadable
// success body.
const InvalidResponseMessage = "Invalid response from server"

// NetworkError is returned when the request never produced a response.
type NetworkError struct {
	// Cause is the underlying transport or context error.
	Cause error
}

// Error returns the user-safe message. The cause is available through Unwrap.
func (e *NetworkError) Error() string {
	return NetworkErrorMessage
}

// Unwrap returns the underlying error cause.
func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrNetwork).
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// RequestError is returned when the server responded with a non-success status,
// or with a success status and a body that could not be parsed.
type RequestError struct {
	// Status is the HTTP status code, preserved untouched.
	Status int
	// Message is the server-provided reason, or a generic fallback.
	Message string
	// Body is the raw response body.
	Body []byte
}

// Error returns the server message.
func (e *RequestError) Error() string {
	return e.Message
}

// QuotaExceeded reports whether the server signalled a plan limit: status 402 or
// 429, or a 403 whose message talks about a limit, quota or upgrade.
func (e *RequestError) QuotaExceeded() bool {
	switch e.Status {
	case 402, 429:
		return true
	case 403:
		msg := strings.ToLower(e.Message)
		for _, word := range []string{"limit", "quota", "upgrade"} {
			if strings.Contains(msg, word) {
				return true
			}
		}
	}
	return false
}

// Is reports whether this error matches the target error.
// It supports errors.Is(err, ErrRequest) and errors.Is(err, ErrQuotaExceeded).
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrRequest:
		return true
	case ErrQuotaExceeded:
		return e.QuotaExceeded()
	}
	return false
}

// fallbackMessage is used when the error body carries no readable reason.
func fallbackMessage(status int) string {
	return fmt.Sprintf("Request failed with status %d", status)
}
