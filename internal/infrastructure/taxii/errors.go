package taxii

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError is a failed TAXII request. Transient errors (timeouts, 429,
// 5xx) are worth retrying; everything else is permanent for this poll.
type RequestError struct {
	StatusCode int
	Message    string
	Transient  bool
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("taxii request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("taxii request failed: %s", e.Message)
}

// newStatusError classifies an unexpected HTTP status.
func newStatusError(statusCode int, message string) *RequestError {
	return &RequestError{
		StatusCode: statusCode,
		Message:    message,
		Transient:  statusCode == http.StatusTooManyRequests || statusCode >= 500,
	}
}

// newTransportError wraps a network-level failure, always transient.
func newTransportError(err error) *RequestError {
	return &RequestError{Message: err.Error(), Transient: true}
}

// newDecodeError wraps a malformed response body, never retryable.
func newDecodeError(err error) *RequestError {
	return &RequestError{Message: fmt.Sprintf("malformed response: %v", err), Transient: false}
}

// IsTransient reports whether err is a retryable TAXII request failure.
func IsTransient(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Transient
	}
	return false
}
