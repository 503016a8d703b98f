package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

var allowedStatus = map[string]struct{}{
	"ok":           {},
	"fail":         {},
	"skip":         {},
	"retry":        {},
	"rate_limited": {},
	"cancelled":    {},
}

var allowedOutcome = map[string]struct{}{
	"ok":           {},
	"fail":         {},
	"rejected":     {},
	"cancelled":    {},
	"rate_limited": {},
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// normalizeEnum lowercases value and reports whether it belongs to allowed.
func normalizeEnum(value string, allowed map[string]struct{}) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", false
	}
	_, ok := allowed[value]
	return value, ok
}

// defaultKeyOrder puts correlation fields first, then conversation and transport details.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"op",
	"state",
	"outcome",
	"reason",
	"duration_ms",
	"messages",
	"kb",
	"style",
	"size",
	"cb_key",
	"payload",
	"username",
	"action",
	"endpoint",
	"attempt",
	"attempts",
	"elapsed_ms",
	"http_code",
	"mode",
	"listen",
	"public_url",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"error",
	"error_kind",
}
