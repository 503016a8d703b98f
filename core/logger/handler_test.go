package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, *asyncWriter, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	return slog.New(handler), aw, buf
}

func closeAndRead(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, aw, buf := newTestLogger(t, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", "conv"), slog.LevelInfo, "conv.transition",
		slog.String("status", "OK"),
		slog.String("state", "awaiting_size"),
	)
	line := closeAndRead(t, aw, buf)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=conv", "event=conv.transition", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "state=awaiting_size"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	log, aw, buf := newTestLogger(t, formatJSON)
	ctx := WithRID(context.Background(), "12:34:56")

	LogEvent(ctx, log.With("component", "tg.sender"), slog.LevelError, "send.fail",
		slog.String("status", "fail"),
		slog.Any("err", errors.New("boom")),
		slog.Duration("elapsed", 1500*time.Microsecond),
	)
	line := closeAndRead(t, aw, buf)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"tg.sender"`, `"event":"send.fail"`, `"status":"fail"`, `"rid":"` + CompactRID("12:34:56") + `"`, `"rid_full":"12:34:56"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
	if !strings.Contains(line, `"err":"boom"`) || !strings.Contains(line, `"elapsed_ms":2`) {
		t.Fatalf("attribute normalization failed: %s", line)
	}
}

func TestStructuredHandlerDropsUnknownOutcomeAndEmpty(t *testing.T) {
	log, aw, buf := newTestLogger(t, formatKV)
	LogEvent(context.Background(), log, slog.LevelInfo, "handler.handled",
		slog.String("outcome", "weird"),
		slog.String("style", ""),
		slog.String("payload", "two words"),
	)
	line := closeAndRead(t, aw, buf)
	if strings.Contains(line, "outcome=") || strings.Contains(line, "style=") {
		t.Fatalf("expected pruned fields, got %s", line)
	}
	if !strings.Contains(line, `payload="two words"`) || !strings.Contains(line, "component=app") {
		t.Fatalf("unexpected line %s", line)
	}
}

func TestStructuredHandlerLevelFilter(t *testing.T) {
	log, aw, buf := newTestLogger(t, formatKV)
	LogEvent(context.Background(), log, slog.LevelDebug, "hidden")
	if line := closeAndRead(t, aw, buf); line != "" {
		t.Fatalf("debug record should be filtered, got %s", line)
	}
}

func TestCompactRID(t *testing.T) {
	if got := CompactRID("36:72:0"); got != "10.20.0" {
		t.Fatalf("unexpected compact rid %q", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("malformed rid must pass through, got %q", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	allowed := 0
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("expected 3 allowed, got %d", allowed)
	}
	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}
	if n, d := parseRatioSpec("2/5"); n != 2 || d != 5 {
		t.Fatalf("parse 2/5 -> %d/%d", n, d)
	}
	if n, d := parseRatioSpec("10"); n != 1 || d != 10 {
		t.Fatalf("parse 10 -> %d/%d", n, d)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc\nd", 10); got != "abc\nd" {
		t.Fatalf("unexpected sanitize output %q", got)
	}
	if got := SanitizeLimit("héllo", 2); got != "hé" {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestHelpersTolerateUninitializedLogger(t *testing.T) {
	Info(context.Background(), "conv", "noop")
	LogEvent(context.Background(), nil, slog.LevelInfo, "noop")
}

func TestSummarizeStrings(t *testing.T) {
	got, cut := SummarizeStrings([]string{"a", "b", "c"}, 2)
	if got != "a,b" || !cut {
		t.Fatalf("got %q cut=%v", got, cut)
	}
	got, cut = SummarizeStrings([]string{"a"}, 2)
	if got != "a" || cut {
		t.Fatalf("got %q cut=%v", got, cut)
	}
	if got, _ := SummarizeStrings(nil, 2); got != "" {
		t.Fatalf("got %q", got)
	}
}
