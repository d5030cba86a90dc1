package gateway

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTAuth_RoundTrip(t *testing.T) {
	j := NewJWTAuth("test-secret", time.Hour)
	userID := uuid.New()

	token, err := j.GenerateJWT(userID, "owner@warung.id")
	require.NoError(t, err)

	claims, err := j.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "owner@warung.id", claims.Email)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, defaultIssuer, claims.Issuer)
}

func TestJWTAuth_Expired(t *testing.T) {
	j := NewJWTAuth("test-secret", time.Minute)
	j.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := j.GenerateJWT(uuid.New(), "owner@warung.id")
	require.NoError(t, err)

	_, err = j.VerifyJWT(token)
	require.Error(t, err)
	assert.True(t, isExpired(err))
}

func TestJWTAuth_Rejects(t *testing.T) {
	j := NewJWTAuth("test-secret", time.Hour)
	other := NewJWTAuth("other-secret", time.Hour)
	foreign, err := other.GenerateJWT(uuid.New(), "x@warung.id")
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, TokenClaims{UserID: uuid.New()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong key", foreign},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := j.VerifyJWT(tt.token)
			assert.Error(t, err)
			assert.False(t, isExpired(err))
		})
	}
}

func TestJWTAuth_InitGeneratesKey(t *testing.T) {
	j := &JWTAuth{}
	j.Init()
	assert.Len(t, j.Key, 32)
	assert.Equal(t, 24*time.Hour, j.TTL)

	_, err := (&JWTAuth{}).GenerateJWT(uuid.New(), "")
	assert.ErrorIs(t, err, errEmptyKey)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("rahasia123")
	require.NoError(t, err)
	assert.NotEqual(t, "rahasia123", hash)
	assert.True(t, CheckPassword(hash, "rahasia123"))
	assert.False(t, CheckPassword(hash, "salah"))
}
