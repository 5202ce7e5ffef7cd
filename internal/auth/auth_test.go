package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService(nil, "test-secret", time.Hour)

	token, err := svc.IssueToken(42, "shopper@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewService(nil, "secret-a", time.Hour)
	verifier := NewService(nil, "secret-b", time.Hour)

	token, err := issuer.IssueToken(42, "shopper@example.com")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	svc := NewService(nil, "test-secret", -time.Minute)

	token, err := svc.IssueToken(42, "shopper@example.com")
	require.NoError(t, err)

	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc := NewService(nil, "test-secret", time.Hour)

	_, err := svc.VerifyToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
