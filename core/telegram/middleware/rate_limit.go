package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/avatarbot/core/logger"
	tghelpers "github.com/m3rciful/avatarbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds that bypass limiting: "callback", "message".
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Now is used in tests; defaults to time.Now.
	Now func() time.Time
}

// RateLimitMiddleware drops updates that arrive from the same user faster
// than the configured interval.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
	)

	// allow records the hit and prunes entries older than the interval.
	allow := func(userID int64, at time.Time) bool {
		mu.Lock()
		defer mu.Unlock()
		if last, ok := lastSeen[userID]; ok && at.Sub(last) < opts.Interval {
			return false
		}
		lastSeen[userID] = at
		if len(lastSeen) > 1024 {
			for id, ts := range lastSeen {
				if at.Sub(ts) >= opts.Interval {
					delete(lastSeen, id)
				}
			}
		}
		return true
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if allow(user.ID, now()) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("outcome", "rejected"),
				slog.Duration("interval", opts.Interval),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	}
	return "other"
}
