package middleware

import (
	"log/slog"
	"time"

	"github.com/m3rciful/avatarbot/core/logger"
	"github.com/m3rciful/avatarbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/avatarbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware assigns the request id, stores the logging context and
// emits a sampled receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		user := c.Sender()
		chat := c.Chat()

		var chatID, userID int64
		if chat != nil {
			chatID = chat.ID
		}
		if user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())
		ctx := tghelpers.BuildContext(c)

		if !logger.ShouldSampleDebug() {
			return next(c)
		}

		attrs := []slog.Attr{slog.String("status", "ok")}
		if chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if user != nil {
			if user.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
			}
			if user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
		}
		switch {
		case upd.Callback != nil:
			key, payload := callbacks.Parse(upd.Callback)
			if key != "" {
				attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
			}
			if payload != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
			}
		case upd.Message != nil:
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
		}
		logger.Debug(ctx, "tg", "update.received", attrs...)

		return next(c)
	}
}
