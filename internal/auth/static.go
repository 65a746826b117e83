package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

// StreamerRole labels identities resolved from static stream keys.
const StreamerRole = "streamer"

type staticKey struct {
	username string
	hash     []byte
}

// StaticKeyVerifier accepts long-lived stream keys for headless streamers. A key
// is presented as "<userId>:<secret>" and checked against a bcrypt hash.
type StaticKeyVerifier struct {
	keys map[string]staticKey
}

// NewStaticKeyVerifier parses entries of the form "userId:username:bcryptHash".
func NewStaticKeyVerifier(entries []string) (*StaticKeyVerifier, error) {
	v := &StaticKeyVerifier{keys: make(map[string]staticKey, len(entries))}
	for _, e := range entries {
		parts := strings.SplitN(strings.TrimSpace(e), ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid static key entry %q", e)
		}
		if _, err := bcrypt.Cost([]byte(parts[2])); err != nil {
			return nil, fmt.Errorf("static key for %s is not a bcrypt hash: %w", parts[0], err)
		}
		v.keys[parts[0]] = staticKey{username: parts[1], hash: []byte(parts[2])}
	}
	return v, nil
}

func (v *StaticKeyVerifier) Verify(ctx context.Context, token string) (models.Identity, error) {
	userID, secret, ok := strings.Cut(token, ":")
	if !ok || userID == "" || secret == "" {
		return models.Identity{}, fmt.Errorf("%w: malformed stream key", ErrAuthFailed)
	}
	key, ok := v.keys[userID]
	if !ok {
		return models.Identity{}, fmt.Errorf("%w: unknown stream key", ErrAuthFailed)
	}
	if err := bcrypt.CompareHashAndPassword(key.hash, []byte(secret)); err != nil {
		return models.Identity{}, fmt.Errorf("%w: stream key mismatch", ErrAuthFailed)
	}
	return models.Identity{UserID: userID, Username: key.username, Role: StreamerRole}, nil
}

// HashKey returns the bcrypt hash to store for a stream key secret.
func HashKey(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
