package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "reply_counters"

type counters struct {
	messages atomic.Int32
	kb       atomic.Bool
}

// metricsContext counts messages delivered on behalf of the current update.
type metricsContext struct {
	tele.Context
	c *counters
}

func (m metricsContext) track(err error, opts []interface{}) error {
	if err != nil {
		return err
	}
	m.c.messages.Add(1)
	if hasKeyboard(opts) {
		m.c.kb.Store(true)
	}
	return nil
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send proxies tele.Context.Send while updating message counters.
func (m metricsContext) Send(what interface{}, opts ...interface{}) error {
	return m.track(m.Context.Send(what, opts...), opts)
}

// Reply proxies tele.Context.Reply while updating message counters.
func (m metricsContext) Reply(what interface{}, opts ...interface{}) error {
	return m.track(m.Context.Reply(what, opts...), opts)
}

// Edit proxies tele.Context.Edit while updating message counters.
func (m metricsContext) Edit(what interface{}, opts ...interface{}) error {
	return m.track(m.Context.Edit(what, opts...), opts)
}

// MessageMetricsMiddleware instruments the context so handler summaries can
// report how many messages an update produced and whether any carried a keyboard.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		cs := &counters{}
		c.Set(countersKey, cs)
		return next(metricsContext{Context: c, c: cs})
	}
}

// GetCounters reads message count and keyboard presence for the update.
// Sends still queued in the outbound dispatcher are not counted yet.
func GetCounters(c tele.Context) (int, bool) {
	cs, ok := c.Get(countersKey).(*counters)
	if !ok || cs == nil {
		return 0, false
	}
	return int(cs.messages.Load()), cs.kb.Load()
}
