// Package render resolves avatar render requests against the DiceBear HTTP API.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/avatarbot/core/logger"
	"github.com/m3rciful/avatarbot/internal/catalog"
	"github.com/m3rciful/avatarbot/internal/conversation"
)

const (
	// DefaultBaseURL is the public DiceBear API root.
	DefaultBaseURL = "https://api.dicebear.com/9.x"
	// DefaultFormat is an image format Telegram accepts as a photo.
	DefaultFormat = "png"
	// DefaultTimeout bounds a single fetch including retries.
	DefaultTimeout = 10 * time.Second

	maxImageBytes = 5 << 20
)

var (
	// ErrUnknownStyle is returned for styles missing from the catalog.
	ErrUnknownStyle = errors.New("render: unknown style")
	// ErrInvalidSize is returned for non-positive sizes.
	ErrInvalidSize = errors.New("render: size must be positive")
	// ErrNotImage is returned when the service answers with something other than an image.
	ErrNotImage = errors.New("render: response is not an image")
	// ErrTooLarge is returned when the image exceeds the accepted payload size.
	ErrTooLarge = errors.New("render: image too large")

	formats = map[string]struct{}{"png": {}, "jpg": {}, "webp": {}}
)

// StatusError reports a non-200 answer from the render service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "render: unexpected status " + strconv.Itoa(e.Code)
}

// Options configure a Renderer. Zero values select defaults.
type Options struct {
	BaseURL string
	Format  string
	Timeout time.Duration
}

// Image is a fetched avatar.
type Image struct {
	Data        []byte
	ContentType string
	URL         string
}

// Renderer builds DiceBear URLs and downloads the resulting images.
type Renderer struct {
	base    *url.URL
	format  string
	timeout time.Duration
	client  *http.Client
}

// New validates opts and returns a Renderer that fetches through client.
func New(opts Options, client *http.Client) (*Renderer, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("render: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" || base.Host == "" {
		return nil, fmt.Errorf("render: base url %q must be absolute http(s)", opts.BaseURL)
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if _, ok := formats[format]; !ok {
		return nil, fmt.Errorf("render: unsupported format %q; allowed: png, jpg, webp", opts.Format)
	}

	return &Renderer{base: base, format: format, timeout: opts.Timeout, client: client}, nil
}

// URL returns the DiceBear address for req: {base}/{style}/{format}?seed=&size=.
func (r *Renderer) URL(req conversation.RenderRequest) (string, error) {
	if !catalog.Contains(req.Style) {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, req.Style)
	}
	if req.Size <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidSize, req.Size)
	}

	u := *r.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + req.Style + "/" + r.format
	u.RawPath = ""
	u.RawQuery = url.Values{
		"size": {strconv.Itoa(req.Size)},
		"seed": {req.Seed},
	}.Encode()
	return u.String(), nil
}

// Fetch downloads the image for req within the configured timeout.
func (r *Renderer) Fetch(ctx context.Context, req conversation.RenderRequest) (Image, error) {
	target, err := r.URL(req)
	if err != nil {
		return Image{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	img, err := r.get(ctx, target)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("style", req.Style),
		slog.Int("size", req.Size),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	}
	if err != nil {
		logger.Warn(ctx, "render", "render.fetch",
			append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))...,
		)
		return Image{}, err
	}
	logger.Debug(ctx, "render", "render.fetch", append(attrs, slog.Int("bytes", len(img.Data)))...)
	return img, nil
}

func (r *Renderer) get(ctx context.Context, target string) (Image, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Image{}, fmt.Errorf("render: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "image/*")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return Image{}, fmt.Errorf("render: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return Image{}, &StatusError{Code: resp.StatusCode}
	}
	contentType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err != nil || !strings.HasPrefix(mt, "image/") {
		return Image{}, fmt.Errorf("%w: %q", ErrNotImage, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("render: read body: %w", err)
	}
	if len(data) > maxImageBytes {
		return Image{}, ErrTooLarge
	}
	return Image{Data: data, ContentType: contentType, URL: target}, nil
}
