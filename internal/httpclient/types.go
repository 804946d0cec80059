package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError represents an HTTP error response
type HTTPError struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// URL is the request URL
	URL string

	// Status is the HTTP status line
	Status string
}

// NewHTTPError creates a new HTTPError
func NewHTTPError(statusCode int, url, status string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Status:     status,
	}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s from %s", e.Status, e.URL)
}

// StatusCodeOf extracts the status code from err's chain, or 0 when err does
// not carry an HTTPError.
func StatusCodeOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsTransient reports whether err's chain carries an HTTPError that is worth
// retrying. Errors without an HTTPError are permanent.
func IsTransient(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.IsTransient()
	}
	return false
}

// IsTransient reports whether the error is worth retrying: server-side
// failures, timeouts, and rate limiting. Client errors are permanent.
func (e *HTTPError) IsTransient() bool {
	switch {
	case e.StatusCode >= http.StatusInternalServerError:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode == http.StatusRequestTimeout:
		return true
	default:
		return false
	}
}
