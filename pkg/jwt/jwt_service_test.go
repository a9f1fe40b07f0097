package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomorewaste/domain"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTServiceWithSecret("s3cret")

	token, err := svc.GenerateToken("u1", "ana@example.com", time.Hour)
	require.NoError(t, err)

	id, email, err := svc.GetUserIDByToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
	assert.Equal(t, "ana@example.com", email)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTServiceWithSecret("s3cret")

	other, err := NewJWTServiceWithSecret("different").GenerateToken("u1", "a@example.com", time.Hour)
	require.NoError(t, err)
	_, _, err = svc.GetUserIDByToken(other)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, _, err = svc.GetUserIDByToken("not.a.token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtMemberClaim{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, _, err = svc.GetUserIDByToken(signed)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwtMemberClaim{UserID: "u1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, _, err = svc.GetUserIDByToken(unsigned)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
