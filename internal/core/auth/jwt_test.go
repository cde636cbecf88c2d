package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTer(now time.Time) *JWTer {
	return &JWTer{
		Secret: []byte("test-secret"),
		Issuer: "ats-test",
		TTL:    time.Hour,
		Now:    func() time.Time { return now },
	}
}

func TestIssueAndParse(t *testing.T) {
	now := time.Now()
	j := newJWTer(now)

	tok, exp, err := j.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), exp, time.Second)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.UID)
	assert.Equal(t, "user-1", c.Subject)
	assert.NotEmpty(t, c.ID)
}

func TestParse_Expired(t *testing.T) {
	now := time.Now()
	tok, _, err := newJWTer(now.Add(-2*time.Hour)).Issue("user-1")
	require.NoError(t, err)

	_, err = newJWTer(now).Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParse_WrongSecret(t *testing.T) {
	now := time.Now()
	tok, _, err := newJWTer(now).Issue("user-1")
	require.NoError(t, err)

	other := newJWTer(now)
	other.Secret = []byte("another-secret")
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParse_WrongIssuer(t *testing.T) {
	now := time.Now()
	tok, _, err := newJWTer(now).Issue("user-1")
	require.NoError(t, err)

	other := newJWTer(now)
	other.Issuer = "someone-else"
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestParse_Garbage(t *testing.T) {
	_, err := newJWTer(time.Now()).Parse("not.a.token")
	assert.Error(t, err)
}

func TestIssue_UniqueIDs(t *testing.T) {
	j := newJWTer(time.Now())
	a, _, err := j.Issue("user-1")
	require.NoError(t, err)
	b, _, err := j.Issue("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
