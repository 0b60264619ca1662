package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessToken(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "u1", "traveler", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tok.Token, claims, func(*jwt.Token) (any, error) { return []byte("s3cret"), nil })
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	sub, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)
	assert.Equal(t, "TRAVELER", claims["role"])
}

func TestNewAccessToken_RejectsBadInput(t *testing.T) {
	_, err := NewAccessToken("", "u1", "traveler", time.Hour)
	assert.Error(t, err)
	_, err = NewAccessToken("s", " ", "traveler", time.Hour)
	assert.Error(t, err)
	_, err = NewAccessToken("s", "u1", "traveler", 0)
	assert.Error(t, err)
}
