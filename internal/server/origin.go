// Package server normalizes and validates HTTP origins for WebSocket requests
// to enforce configured access control.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const wildcardOrigin = "*"

var errInvalidOrigin = errors.New("origin must be scheme://host")

// originPolicy is the allow-list consulted during the WebSocket upgrade.
// Origins are compared as lower-cased scheme://host.
type originPolicy struct {
	allowed  map[string]struct{}
	allowAll bool
	logger   *slog.Logger
}

func newOriginPolicy(origins []string, logger *slog.Logger) *originPolicy {
	p := &originPolicy{
		allowed: make(map[string]struct{}, len(origins)),
		logger:  logger,
	}

	for _, raw := range origins {
		entry := strings.TrimSpace(raw)
		switch entry {
		case "":
			continue
		case wildcardOrigin:
			p.allowAll = true
			continue
		}

		origin, err := canonicalOrigin(entry)
		if err != nil {
			logger.Warn("ignoring invalid origin in configuration", "origin", raw, "error", err)
			continue
		}
		p.allowed[origin] = struct{}{}
	}

	return p
}

// canonicalOrigin reduces an origin or URL to its lower-cased scheme://host.
func canonicalOrigin(origin string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errInvalidOrigin
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}

// allows reports whether the request's Origin header is on the list. A
// request without an Origin is refused even when every origin is allowed.
func (p *originPolicy) allows(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if header == "" {
		return false
	}

	origin, err := canonicalOrigin(header)
	if err != nil {
		return false
	}
	if p.allowAll {
		return true
	}

	_, ok := p.allowed[origin]
	return ok
}

// checkOrigin is installed as the upgrader's CheckOrigin.
func (p *originPolicy) checkOrigin(r *http.Request) bool {
	if p.allows(r) {
		return true
	}

	p.logger.Warn("blocked websocket connection from disallowed origin", "origin", r.Header.Get("Origin"))
	return false
}
