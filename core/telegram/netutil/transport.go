package netutil

import (
	"errors"
	"io"
	"net/http"
	"time"
)

var errBodyNotReplayable = errors.New("netutil: request body cannot be replayed")

// RetryTransport retries failed round trips with linear backoff. Transport
// errors are retried when ShouldRetry allows it; retryable statuses are
// retried only for GET and HEAD requests.
type RetryTransport struct {
	Base       http.RoundTripper
	MaxRetries int
	Backoff    time.Duration
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := max(t.MaxRetries, 0) + 1

	var (
		resp    *http.Response
		lastErr error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		curr := req
		if attempt > 1 {
			curr = req.Clone(req.Context())
			if req.Body != nil && req.Body != http.NoBody {
				if req.GetBody == nil {
					return nil, errBodyNotReplayable
				}
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				curr.Body = body
			}
		}

		resp, lastErr = base.RoundTrip(curr)
		last := attempt == attempts
		switch {
		case lastErr != nil:
			if last || !ShouldRetry(lastErr) {
				return nil, lastErr
			}
		case idempotent(req.Method) && RetryableStatus(resp.StatusCode) && !last:
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		default:
			return resp, nil
		}

		if err := t.wait(req, attempt); err != nil {
			return nil, err
		}
	}
	return resp, lastErr
}

func (t *RetryTransport) wait(req *http.Request, attempt int) error {
	delay := t.Backoff * time.Duration(attempt)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}

func idempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}
