package retry

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// statusCoder is implemented by transport errors carrying an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// IsTransient reports whether an error is worth retrying:
//   - rate limits (HTTP 429)
//   - server errors (HTTP 5xx)
//   - network timeouts
//   - connection resets and refusals
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return isTransientStatusCode(sc.StatusCode())
	}

	return isTransientNetworkError(err)
}

func isTransientStatusCode(code int) bool {
	if code == 429 {
		return true
	}
	return code >= 500 && code < 600
}

func isTransientNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	// Wrapped errors from the HTTP stack don't always expose the
	// syscall; fall back to message patterns.
	msg := err.Error()
	for _, pattern := range []string{
		"connection reset",
		"connection refused",
		"broken pipe",
		"unexpected EOF",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}
