package jwt_test

import (
	"testing"
	"time"

	"github.com/cosap/voicechat/jwt"
	gojwt "github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims gojwt.MapClaims) string {
	t.Helper()
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestExpiresAt(t *testing.T) {
	t.Parallel()
	exp := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tok := sign(t, gojwt.MapClaims{"exp": exp.Unix(), "username": "ana"})

	got, err := jwt.ExpiresAt(tok)
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))
}

func TestExpiresAt_NoExpiry(t *testing.T) {
	t.Parallel()
	_, err := jwt.ExpiresAt(sign(t, gojwt.MapClaims{"username": "ana"}))
	assert.ErrorIs(t, err, jwt.ErrNoExpiry)
}

func TestExpired(t *testing.T) {
	t.Parallel()
	exp := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tok := sign(t, gojwt.MapClaims{"exp": exp.Unix()})

	assert.False(t, jwt.Expired(tok, exp.Add(-time.Minute), 0))
	assert.True(t, jwt.Expired(tok, exp.Add(time.Minute), 0))
	assert.False(t, jwt.Expired(tok, exp.Add(time.Minute), 5*time.Minute))
	assert.False(t, jwt.Expired("opaque-token", exp.Add(time.Hour), 0))
}
