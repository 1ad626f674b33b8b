package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	h, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", h)
	require.True(t, CheckPasswordHash("s3cret", h))
	require.False(t, CheckPasswordHash("wrong", h))
}

func TestTokenIssuer_IssueVerify(t *testing.T) {
	i := NewTokenIssuer("test-secret", 15*time.Minute)

	tok, err := i.Issue(42, "a@b.c", "ADMIN")
	require.NoError(t, err)

	claims, err := i.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, uint64(42), claims.UserID)
	require.Equal(t, "a@b.c", claims.Email)
	require.Equal(t, "ADMIN", claims.Role)
}

func TestTokenIssuer_Expired(t *testing.T) {
	i := NewTokenIssuer("test-secret", -time.Minute)
	tok, err := i.Issue(1, "a@b.c", "EMPLOYEE")
	require.NoError(t, err)

	_, err = i.Verify(tok)
	require.Error(t, err)
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	tok, err := NewTokenIssuer("one", time.Minute).Issue(1, "a@b.c", "EMPLOYEE")
	require.NoError(t, err)

	_, err = NewTokenIssuer("two", time.Minute).Verify(tok)
	require.Error(t, err)
}

func TestHashRefreshToken_Deterministic(t *testing.T) {
	require.Equal(t, HashRefreshToken("tok"), HashRefreshToken("tok"))
	require.NotEqual(t, HashRefreshToken("tok"), HashRefreshToken("tok2"))
	require.Len(t, HashRefreshToken("tok"), 64)
}
