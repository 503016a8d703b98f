// Package netutil classifies network failures for retry decisions.
package netutil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
)

// ShouldRetry reports whether a network error is worth retrying:
// timeouts and failed dials are, cancellations and protocol errors are not.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() || opErr.Op == "dial" {
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && urlErr.Err != err {
			return ShouldRetry(urlErr.Err)
		}
	}

	return false
}

// RetryableStatus reports whether an HTTP status signals a transient server condition.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
