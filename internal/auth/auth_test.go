package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vasu1712/scenyx-live/internal/models"
)

const testSecret = "test-secret"

type fakeRevocations struct {
	keys map[string]bool
	err  error
}

func (f *fakeRevocations) Exists(ctx context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.keys[key], nil
}

func sign(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTVerifier(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))
	revocations := &fakeRevocations{keys: map[string]bool{"revoked:bad-jti": true}}
	v := NewJWTVerifier(testSecret, revocations, "revoked")

	tests := []struct {
		name    string
		token   string
		want    models.Identity
		wantErr bool
	}{
		{
			name: "userId claim",
			token: sign(t, testSecret, Claims{UserID: "u1", Username: "alice", Role: "artist",
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}),
			want: models.Identity{UserID: "u1", Username: "alice", Role: "artist"},
		},
		{
			name:  "subject fallback",
			token: sign(t, testSecret, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u2", ExpiresAt: future}}),
			want:  models.Identity{UserID: "u2"},
		},
		{
			name:    "expired",
			token:   sign(t, testSecret, Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: past}}),
			wantErr: true,
		},
		{
			name:    "wrong secret",
			token:   sign(t, "other", Claims{UserID: "u1"}),
			wantErr: true,
		},
		{
			name:    "no user id",
			token:   sign(t, testSecret, Claims{Username: "ghost"}),
			wantErr: true,
		},
		{
			name:    "revoked",
			token:   sign(t, testSecret, Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ID: "bad-jti"}}),
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not-a-jwt",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Verify(context.Background(), tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAuthFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJWTVerifierRejectsNoneAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWTVerifier(testSecret, nil, "").Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestJWTVerifierFailsOpenOnCacheError(t *testing.T) {
	v := NewJWTVerifier(testSecret, &fakeRevocations{err: errors.New("down")}, "revoked")
	token := sign(t, testSecret, Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{ID: "any"}})

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
}

func TestIssueToken(t *testing.T) {
	token, err := IssueToken(testSecret, models.Identity{UserID: "u9", Username: "nine"}, time.Minute)
	require.NoError(t, err)

	id, err := NewJWTVerifier(testSecret, nil, "").Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: "u9", Username: "nine"}, id)
}

func TestStaticKeyVerifier(t *testing.T) {
	hash, err := HashKey("s3cret")
	require.NoError(t, err)

	v, err := NewStaticKeyVerifier([]string{"booth1:Booth One:" + hash})
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), "booth1:s3cret")
	require.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: "booth1", Username: "Booth One", Role: StreamerRole}, id)

	for _, bad := range []string{"booth1:wrong", "booth2:s3cret", "booth1", ":s3cret"} {
		_, err := v.Verify(context.Background(), bad)
		assert.ErrorIs(t, err, ErrAuthFailed, bad)
	}

	_, err = NewStaticKeyVerifier([]string{"booth1:name:plaintext"})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	hash, err := HashKey("key")
	require.NoError(t, err)
	static, err := NewStaticKeyVerifier([]string{"s1:Streamer:" + hash})
	require.NoError(t, err)

	chain := Chain{NewJWTVerifier(testSecret, nil, ""), static}

	id, err := chain.Verify(context.Background(), "s1:key")
	require.NoError(t, err)
	assert.Equal(t, "s1", id.UserID)

	token := sign(t, testSecret, Claims{UserID: "u1"})
	id, err = chain.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)

	_, err = chain.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrAuthFailed)

	_, err = Chain{}.Verify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=from-query", nil)
	assert.Equal(t, "from-query", TokenFromRequest(r, "token"))

	r.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", TokenFromRequest(r, "token"))

	r = httptest.NewRequest("GET", "/ws?key=abc", nil)
	assert.Equal(t, "abc", TokenFromRequest(r, "key"))
	assert.Equal(t, "", TokenFromRequest(r, ""))
}
