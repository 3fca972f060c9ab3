package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")
	exp := time.Now().Add(15 * time.Minute)

	tok, err := NewAccessToken(secret, 42, "alice", "USER", exp)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "USER", claims.Role)
	assert.Equal(t, "alice", claims.Username)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
}

func TestAccessClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")
	expired, err := NewAccessToken(secret, 1, "bob", "USER", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		key   []byte
	}{
		{name: "garbage", token: "not-a-jwt", key: secret},
		{name: "expired", token: expired, key: secret},
		{name: "wrong secret", token: expired, key: []byte("other")},
		{name: "alg none", token: none, key: secret},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := AccessClaimsFromToken(tt.token, tt.key)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
