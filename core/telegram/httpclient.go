package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/avatarbot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 5 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
)

// HTTPClientOptions tunes BuildHTTPClient. Zero values select defaults.
type HTTPClientOptions struct {
	Timeout         time.Duration
	ResponseTimeout time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
}

// BuildHTTPClient returns an HTTP client with bounded timeouts and retries
// on transient network failures. For long polling both timeouts must exceed
// the poll timeout.
func BuildHTTPClient(opts HTTPClientOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultClientTimeout
	}
	if opts.ResponseTimeout <= 0 {
		opts.ResponseTimeout = defaultResponseTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultRetryAttempts
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: opts.ResponseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &netutil.RetryTransport{
			Base:       transport,
			MaxRetries: opts.MaxRetries,
			Backoff:    opts.RetryBackoff,
		},
	}
}
