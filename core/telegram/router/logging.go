package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/avatarbot/core/logger"
	tghelpers "github.com/m3rciful/avatarbot/core/telegram/helpers"
	"github.com/m3rciful/avatarbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Summary describes how an update was handled. Empty Outcome derives from the error.
type Summary struct {
	Handler string
	Outcome string
	Extras  []slog.Attr
}

// Handler processes one update and reports a summary for the handler log line.
type Handler func(c tele.Context) (Summary, error)

func handleWithSummary(c tele.Context, h Handler, extras ...slog.Attr) error {
	start := time.Now()
	sum, err := h(c)
	sum.Extras = append(extras, sum.Extras...)
	logHandlerSummary(c, sum, start, err)
	return err
}

func logHandlerSummary(c tele.Context, sum Summary, start time.Time, err error) {
	name := normalizeHandlerName(sum.Handler)
	ctx := tghelpers.WithHandler(c, name)
	msgs, kb := middleware.GetCounters(c)

	outcome := sum.Outcome
	if outcome == "" {
		outcome = logger.Status(err)
	}
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("handler", name),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	attrs = append(attrs, sum.Extras...)

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
	}
	logger.Event(ctx, "tg", level, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}
