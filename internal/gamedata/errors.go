package gamedata

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError represents a non-200 response from the data service.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("data service returned %d for %s", e.StatusCode, e.URL)
}

// IsRetryable reports whether the request may succeed on retry.
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// NetworkError wraps transport-level failures.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("data service request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsRetryable always returns true; transport failures are transient.
func (e *NetworkError) IsRetryable() bool { return true }

// DataUnavailableError means no source could supply the requested set.
type DataUnavailableError struct {
	Namespace string
	Reason    string
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("set data %q unavailable: %s", e.Namespace, e.Reason)
}

// IsRetryableError reports whether err carries a retryable marker.
func IsRetryableError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsRetryable()
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.IsRetryable()
	}
	return false
}
