package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m3rciful/avatarbot/internal/conversation"
)

func TestURL(t *testing.T) {
	r, err := New(Options{BaseURL: "https://api.dicebear.com/9.x/"}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	got, err := r.URL(conversation.RenderRequest{Style: "pixel-art", Size: 128, Seed: "John Doe"})
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	want := "https://api.dicebear.com/9.x/pixel-art/png?seed=John+Doe&size=128"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}

	if _, err := r.URL(conversation.RenderRequest{Style: "nope", Size: 1, Seed: "x"}); !errors.Is(err, ErrUnknownStyle) {
		t.Fatalf("expected ErrUnknownStyle, got %v", err)
	}
	if _, err := r.URL(conversation.RenderRequest{Style: "shapes", Size: 0, Seed: "x"}); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{BaseURL: "ftp://example.org"}, nil); err == nil {
		t.Fatal("expected error for non-http base url")
	}
	if _, err := New(Options{Format: "svg"}, nil); err == nil {
		t.Fatal("expected error for svg format")
	}
}

func TestFetch(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG"))
	}))
	defer srv.Close()

	r, err := New(Options{BaseURL: srv.URL + "/9.x", Timeout: time.Second}, srv.Client())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	img, err := r.Fetch(context.Background(), conversation.RenderRequest{Style: "shapes", Size: 64, Seed: "random"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/9.x/shapes/png" || gotQuery != "seed=random&size=64" {
		t.Fatalf("unexpected request %s?%s", gotPath, gotQuery)
	}
	if string(img.Data) != "\x89PNG" || img.ContentType != "image/png" {
		t.Fatalf("unexpected image %+v", img)
	}
}

func TestFetchFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		check   func(error) bool
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			check: func(err error) bool {
				var se *StatusError
				return errors.As(err, &se) && se.Code == http.StatusBadRequest
			},
		},
		{
			name: "not image",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{}`))
			},
			check: func(err error) bool { return errors.Is(err, ErrNotImage) },
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				<-r.Context().Done()
			},
			check: func(err error) bool { return errors.Is(err, context.DeadlineExceeded) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			r, err := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, srv.Client())
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			_, err = r.Fetch(context.Background(), conversation.RenderRequest{Style: "shapes", Size: 64, Seed: "x"})
			if !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}
