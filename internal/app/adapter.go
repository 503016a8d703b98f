package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/avatarbot/core/logger"
	"github.com/m3rciful/avatarbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/avatarbot/core/telegram/helpers"
	"github.com/m3rciful/avatarbot/core/telegram/keyboard"
	"github.com/m3rciful/avatarbot/core/telegram/router"
	"github.com/m3rciful/avatarbot/internal/conversation"
	"github.com/m3rciful/avatarbot/internal/journal"

	tele "gopkg.in/telebot.v4"
)

const (
	styleKey = "style"

	renderFailedText = "Sorry, I could not render the avatar right now. Please try /generate again"
	rateLimitedText  = "Too many requests, please slow down"
)

// outbox delivers replies to the chat of an update.
type outbox interface {
	Text(c tele.Context, text string) error
	MarkdownV2(c tele.Context, text string) error
	Menu(c tele.Context, text string, markup *tele.ReplyMarkup) error
	Photo(c tele.Context, data []byte) error
}

type telegramOutbox struct{}

func (telegramOutbox) Text(c tele.Context, text string) error { return tghelpers.SendText(c, text) }

func (telegramOutbox) MarkdownV2(c tele.Context, text string) error {
	return tghelpers.SendMDV2(c, text)
}

func (telegramOutbox) Menu(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return tghelpers.SendMarkup(c, text, markup)
}

func (telegramOutbox) Photo(c tele.Context, data []byte) error {
	return tghelpers.SendPhoto(c, data, "")
}

func (a *App) handleText(c tele.Context) (router.Summary, error) {
	user := c.Sender()
	if user == nil {
		return router.Summary{Handler: "no_sender", Outcome: "rejected"}, nil
	}
	return a.dispatch(c, conversation.TextMessage{
		UserID:      user.ID,
		ChatID:      chatID(c, user),
		DisplayName: displayName(user),
		Text:        c.Text(),
	})
}

func (a *App) handleCallback(c tele.Context) (router.Summary, error) {
	user := c.Sender()
	if user == nil {
		return router.Summary{Handler: "no_sender", Outcome: "rejected"}, nil
	}
	return a.dispatch(c, conversation.Callback{
		UserID: user.ID,
		ChatID: chatID(c, user),
		Token:  callbacks.Token(c.Callback(), styleKey),
	})
}

func (a *App) dispatch(c tele.Context, ev conversation.Event) (router.Summary, error) {
	ctx := tghelpers.BuildContext(c)
	res := a.dispatcher.Dispatch(ctx, ev)

	sum := router.Summary{Handler: res.Handler, Outcome: res.Outcome()}
	if res.Err != nil {
		sum.Extras = append(sum.Extras, slog.String("reason", logger.SanitizeLimit(res.Err.Error(), 256)))
	}
	if res.Reply == nil {
		return sum, nil
	}
	if err := a.deliver(ctx, c, ev, res.Reply); err != nil {
		sum.Outcome = "fail"
		return sum, err
	}
	return sum, nil
}

func (a *App) deliver(ctx context.Context, c tele.Context, ev conversation.Event, reply conversation.Reply) error {
	switch r := reply.(type) {
	case conversation.TextReply:
		if r.Format == conversation.FormatMarkdownV2 {
			return a.out.MarkdownV2(c, r.Text)
		}
		return a.out.Text(c, r.Text)
	case conversation.MenuReply:
		return a.out.Menu(c, r.Text, menuMarkup(r))
	case conversation.ImageReply:
		return a.deliverImage(ctx, c, ev, r.Request)
	}
	return fmt.Errorf("app: unsupported reply %T", reply)
}

func (a *App) deliverImage(ctx context.Context, c tele.Context, ev conversation.Event, req conversation.RenderRequest) error {
	img, err := a.renderer.Fetch(ctx, req)
	if err != nil {
		return a.out.Text(c, renderFailedText)
	}
	if err := a.out.Photo(c, img.Data); err != nil {
		return err
	}

	// The journal is an audit trail; a failed insert must not fail the reply.
	_ = a.journal.Record(ctx, journal.Generation{
		UserID: ev.Sender(),
		ChatID: ev.Chat(),
		Style:  req.Style,
		Size:   req.Size,
		Seed:   req.Seed,
	})
	return nil
}

func (a *App) onLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: rateLimitedText})
	}
	return nil
}

func menuMarkup(m conversation.MenuReply) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(m.Rows))
	for _, row := range m.Rows {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, choice := range row {
			btns = append(btns, keyboard.InlineBtn{Text: choice.Label, Unique: styleKey, Data: choice.Token})
		}
		rows = append(rows, btns)
	}
	return keyboard.InlineButtonsRows(rows...)
}

func chatID(c tele.Context, user *tele.User) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return user.ID
}

func displayName(u *tele.User) string {
	if name := strings.TrimSpace(u.Username); name != "" {
		return name
	}
	return strings.TrimSpace(u.FirstName)
}
