package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "nextford", time.Hour)

	tok, err := issuer.Issue("user-1")
	require.NoError(t, err)

	userID, err := issuer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", "nextford", time.Hour)
	tok, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = NewTokenIssuer("other", "nextford", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenIssuer("secret", "someone-else", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	later := NewTokenIssuer("secret", "nextford", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
