package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// OriginPolicy is an allowlist of scheme://host origins. "*" allows any origin.
type OriginPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{allowed: make(map[string]struct{})}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			p.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			logrus.WithFields(logrus.Fields{
				"function": "NewOriginPolicy",
				"origin":   origin,
			}).Warn("Ignoring invalid origin in configuration")
			continue
		}
		p.allowed[normalized] = struct{}{}
	}
	return p
}

// Allowed reports whether origin may connect.
func (p *OriginPolicy) Allowed(origin string) bool {
	if p == nil {
		return false
	}
	if p.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, exists := p.allowed[normalized]
	return exists
}

// CheckRequest is a websocket.Upgrader CheckOrigin function. Requests without an
// Origin header come from non-browser clients such as streamers and are allowed.
func (p *OriginPolicy) CheckRequest(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || p.Allowed(origin) {
		return true
	}
	logrus.WithFields(logrus.Fields{
		"function": "CheckRequest",
		"origin":   origin,
	}).Warn("Blocked WebSocket connection from disallowed origin")
	return false
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
