// Package auth resolves connection credentials into an immutable models.Identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

// ErrAuthFailed is wrapped by every verification failure.
var ErrAuthFailed = errors.New("authentication failed")

// Verifier checks a credential and returns the identity it names.
type Verifier interface {
	Verify(ctx context.Context, token string) (models.Identity, error)
}

// Chain tries each verifier in order and returns the first identity that verifies.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, fmt.Errorf("%w: missing token", ErrAuthFailed)
	}
	var lastErr error
	for _, v := range c {
		id, err := v.Verify(ctx, token)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no verifier configured", ErrAuthFailed)
	}
	return models.Identity{}, lastErr
}

// TokenFromRequest returns the bearer token from the Authorization header, or
// the queryParam query parameter when the header is absent. Browsers cannot set
// headers on a WebSocket handshake, hence the query fallback.
func TokenFromRequest(r *http.Request, queryParam string) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if queryParam == "" {
		queryParam = "token"
	}
	return r.URL.Query().Get(queryParam)
}
