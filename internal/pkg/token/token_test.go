package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestIssuer(t *testing.T, now time.Time) *Issuer {
	t.Helper()
	iss, err := NewIssuer(&Config{Secret: testSecret, Issuer: "cresp", TTL: time.Hour})
	require.NoError(t, err)
	iss.now = func() time.Time { return now }
	return iss
}

func TestNewIssuer_RejectsShortSecret(t *testing.T) {
	_, err := NewIssuer(&Config{Secret: "short", Issuer: "cresp", TTL: time.Hour})
	assert.Error(t, err)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer(t, now)

	raw, expiresAt, err := iss.Issue("user-1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)
	assert.Len(t, strings.Split(raw, "."), 3)

	userID, err := iss.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	var claims Claims
	_, _, err = jwt.NewParser().ParseUnverified(raw, &claims)
	require.NoError(t, err)
	jti, err := uuid.Parse(claims.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), jti.Version())
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer(t, now)

	raw, _, err := iss.Issue("user-1")
	require.NoError(t, err)

	iss.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = iss.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, now)
	raw, _, err := iss.Issue("user-1")
	require.NoError(t, err)

	other, err := NewIssuer(&Config{Secret: strings.Repeat("z", 32), Issuer: "cresp", TTL: time.Hour})
	require.NoError(t, err)

	_, err = other.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongIssuer(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, now)
	raw, _, err := iss.Issue("user-1")
	require.NoError(t, err)

	other, err := NewIssuer(&Config{Secret: testSecret, Issuer: "someone-else", TTL: time.Hour})
	require.NoError(t, err)

	_, err = other.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	now := time.Now()
	iss := newTestIssuer(t, now)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "cresp",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = iss.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	iss := newTestIssuer(t, time.Now())
	_, err := iss.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
