package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestGenerateVerify_RoundTrip(t *testing.T) {
	token, err := Generate("report-123", secret)
	require.NoError(t, err)
	require.Contains(t, token, ".")

	id, err := Verify(token, secret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "report-123", id)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := Generate("report-123", secret)
	require.NoError(t, err)

	_, err = Verify(token, []byte("other-secret"), time.Hour)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_TamperedPayload(t *testing.T) {
	token, err := Generate("report-123", secret)
	require.NoError(t, err)

	parts := strings.SplitN(token, ".", 2)
	tampered := parts[0] + "x." + parts[1]
	_, err = Verify(tampered, secret, time.Hour)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_Malformed(t *testing.T) {
	_, err := Verify("not-a-token", secret, time.Hour)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Verify("a.b.c", secret, time.Hour)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Verify("!!!.???", secret, time.Hour)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerify_Expired(t *testing.T) {
	token, err := Generate("report-123", secret)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = Verify(token, secret, time.Nanosecond)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_ZeroTTLDisablesExpiry(t *testing.T) {
	token, err := Generate("report-123", secret)
	require.NoError(t, err)

	id, err := Verify(token, secret, 0)
	require.NoError(t, err)
	assert.Equal(t, "report-123", id)
}
