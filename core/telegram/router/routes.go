package router

import (
	"log/slog"

	tg "github.com/m3rciful/avatarbot/core/telegram"
	"github.com/m3rciful/avatarbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// TextRoute binds h to every text message, commands included, so command
// matching stays with the application.
func TextRoute(h Handler) tg.Route {
	return tg.Route{
		Endpoint: tele.OnText,
		Handler: func(c tele.Context) error {
			if c.Message() == nil {
				return nil
			}
			return handleWithSummary(c, h)
		},
	}
}

// CallbackRoute binds h to inline keyboard callbacks. The callback is
// always answered so the client stops its progress indicator.
func CallbackRoute(h Handler) tg.Route {
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler: func(c tele.Context) error {
			cb := c.Callback()
			if cb == nil {
				return nil
			}
			defer func() { _ = c.Respond() }()

			key, _ := callbacks.Parse(cb)
			return handleWithSummary(c, h, slog.String("cb_key", key))
		},
	}
}
