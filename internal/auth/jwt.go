package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Vasu1712/scenyx-live/internal/models"
	"github.com/Vasu1712/scenyx-live/internal/storage"
)

// Claims are the JWT claims issued by the account service. UserID falls back to
// the standard subject claim.
type Claims struct {
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// RevocationChecker reports whether a key exists. storage.Cache satisfies it.
type RevocationChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// JWTVerifier validates HMAC-signed tokens and consults a revocation list keyed by jti.
type JWTVerifier struct {
	secret           []byte
	revocations      RevocationChecker
	revocationPrefix string
}

func NewJWTVerifier(secret string, revocations RevocationChecker, revocationPrefix string) *JWTVerifier {
	return &JWTVerifier{
		secret:           []byte(secret),
		revocations:      revocations,
		revocationPrefix: revocationPrefix,
	}
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (models.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return models.Identity{}, fmt.Errorf("%w: invalid token", ErrAuthFailed)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return models.Identity{}, fmt.Errorf("%w: token carries no user id", ErrAuthFailed)
	}

	if v.revoked(ctx, claims.ID) {
		return models.Identity{}, fmt.Errorf("%w: token has been revoked", ErrAuthFailed)
	}

	return models.Identity{
		UserID:   userID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// revoked fails open: a cache outage must not lock every user out.
func (v *JWTVerifier) revoked(ctx context.Context, jti string) bool {
	if v.revocations == nil || jti == "" {
		return false
	}
	exists, err := v.revocations.Exists(ctx, storage.RevocationKey(v.revocationPrefix, jti))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "revoked",
			"jti":      jti,
			"error":    err.Error(),
		}).Error("Failed to check token revocation status")
		return false
	}
	return exists
}

// IssueToken signs an HS256 token for id that expires after ttl.
func IssueToken(secret string, id models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   id.UserID,
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
