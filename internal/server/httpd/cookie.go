package httpd

import (
	"strconv"
	"strings"
	"time"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "sessionId"

// sessionToken extracts the sessionId value from a Cookie header. Segments
// are separated by ';' and must split into exactly two parts on '='.
// Surrounding double quotes are stripped. The last match wins.
func sessionToken(header string) (string, bool) {
	var (
		token string
		found bool
	)
	for _, segment := range strings.Split(header, ";") {
		parts := strings.Split(strings.TrimSpace(segment), "=")
		if len(parts) != 2 {
			continue
		}
		if strings.TrimSpace(parts[0]) != SessionCookieName {
			continue
		}
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}
		token, found = value, true
	}
	if token == "" {
		return "", false
	}
	return token, found
}

// sessionCookie renders the Set-Cookie value for a new session.
func sessionCookie(token string, ttl time.Duration) string {
	return SessionCookieName + "=" + token + "; Path=/; Max-Age=" + strconv.FormatInt(int64(ttl/time.Second), 10)
}
