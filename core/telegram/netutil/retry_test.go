package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	dial := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"canceled", context.Canceled, false},
		{"dial", dial, true},
		{"timeout", timeoutErr{}, true},
		{"url wrapping dial", &url.Error{Op: "Get", URL: "http://x", Err: dial}, true},
		{"url wrapping plain", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("bad")}, false},
	}
	for _, c := range cases {
		if got := ShouldRetry(c.err); got != c.want {
			t.Fatalf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 502, 503, 504} {
		if !RetryableStatus(code) {
			t.Fatalf("%d should be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 404, 500} {
		if RetryableStatus(code) {
			t.Fatalf("%d should not be retryable", code)
		}
	}
}
