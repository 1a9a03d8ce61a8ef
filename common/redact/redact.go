// Package redact strips credentials from strings before they reach logs or
// chat rooms.
//
// Curio holds three secrets: the report-service bearer token, the Matrix
// access token and the assistant API key. Upstream error bodies sometimes
// echo request headers back, so every error that crosses a service boundary
// is passed through String before logging.
package redact

import (
	"net/url"
	"strings"
)

const placeholder = "[REDACTED]"

// String replaces each sensitive value in s with [REDACTED]. Values shorter
// than 4 characters are ignored.
func String(s string, sensitiveValues ...string) string {
	for _, v := range sensitiveValues {
		if len(v) < 4 {
			continue
		}
		s = strings.ReplaceAll(s, v, placeholder)
	}
	return s
}

// URL hides userinfo passwords and token-like query parameters in raw.
// Unparsable input is returned unchanged.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	q := u.Query()
	changed := false
	for k := range q {
		if sensitiveKey(k) {
			q.Set(k, "xxxxx")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return strings.ReplaceAll(u.String(), "xxxxx", placeholder)
}

func sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, word := range []string{"token", "secret", "key", "password", "auth"} {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
