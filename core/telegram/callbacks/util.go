package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData parses Telebot's \f<unique>|<payload> encoding.
// Data without the \f marker is returned whole as the key.
func ParseCallbackData(data string) (string, string) {
	raw := strings.TrimPrefix(data, "\f")
	parts := strings.SplitN(raw, "|", 2)
	unique := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return unique, payload
}

// Parse returns the callback key and payload. Telebot fills Unique only when a
// handler is bound to the button itself; generic OnCallback sees raw Data.
func Parse(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return ParseCallbackData(cb.Data)
}

// Token returns the payload for buttons created under key, or the bare key
// for buttons that carry their token directly.
func Token(cb *tele.Callback, key string) string {
	k, payload := Parse(cb)
	if k == key && payload != "" {
		return payload
	}
	return k
}
