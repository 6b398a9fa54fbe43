package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-session-secret")

func TestVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	raw, err := SignHS256(testSecret, "staffdesk-test", "acct_123", "a@example.com", time.Hour)
	require.NoError(t, err)

	v := NewHS256Verifier(testSecret, "staffdesk-test")
	claims, err := v.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "acct_123", claims.Subject)
	require.Equal(t, "a@example.com", claims.Email)
	require.Equal(t, "staffdesk-test", claims.Issuer)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	raw, err := SignHS256(testSecret, "staffdesk-test", "acct_123", "", -time.Minute)
	require.NoError(t, err)

	v := NewHS256Verifier(testSecret, "staffdesk-test")
	_, err = v.Verify(raw)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	raw, err := SignHS256([]byte("other-secret"), "staffdesk-test", "acct_123", "", time.Hour)
	require.NoError(t, err)

	v := NewHS256Verifier(testSecret, "staffdesk-test")
	_, err = v.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	raw, err := SignHS256(testSecret, "somewhere-else", "acct_123", "", time.Hour)
	require.NoError(t, err)

	v := NewHS256Verifier(testSecret, "staffdesk-test")
	_, err = v.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	t.Parallel()

	raw, err := SignHS256(testSecret, "staffdesk-test", "", "", time.Hour)
	require.NoError(t, err)

	v := NewHS256Verifier(testSecret, "staffdesk-test")
	_, err = v.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	v := NewHS256Verifier(testSecret, "")
	_, err := v.Verify("not.a.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}
