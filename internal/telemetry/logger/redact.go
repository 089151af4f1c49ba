package logger

import (
	"log/slog"
	"strings"
)

// sessionCookiePrefix marks a session cookie pair in header values.
const sessionCookiePrefix = "sessionId="

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"cookie",
	"session",
	"credential",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()

		// Session cookies are masked wherever they appear, whatever the key.
		if strings.Contains(strVal, sessionCookiePrefix) {
			return slog.String(a.Key, RedactCookie(strVal))
		}

		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	// Handle nested groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// RedactCookie masks the value of every sessionId pair in a Cookie or
// Set-Cookie header value, keeping the first and last three characters.
func RedactCookie(value string) string {
	var b strings.Builder
	rest := value
	for {
		i := strings.Index(rest, sessionCookiePrefix)
		if i < 0 {
			b.WriteString(rest)
			return b.String()
		}
		i += len(sessionCookiePrefix)
		b.WriteString(rest[:i])
		rest = rest[i:]

		end := strings.IndexAny(rest, "; ")
		if end < 0 {
			end = len(rest)
		}
		b.WriteString(maskValue(rest[:end]))
		rest = rest[end:]
	}
}

// maskValue keeps the first and last three characters of long values.
func maskValue(value string) string {
	if len(value) <= 6 {
		return "***"
	}
	return value[:3] + "..." + value[len(value)-3:]
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
