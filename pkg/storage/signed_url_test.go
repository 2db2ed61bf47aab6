package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerSignAndVerify(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign("exp1", "timetables/7B.pdf")
	require.NoError(t, err)

	ref, err := signer.Verify(token, false)
	require.NoError(t, err)
	assert.Equal(t, "exp1", ref.ExportID)
	assert.Equal(t, "timetables/7B.pdf", ref.Path)
	assert.True(t, expiresAt.Equal(ref.ExpiresAt))
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Sign("exp1", "timetables/7B.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = signer.Verify(token, false)
	assert.ErrorIs(t, err, ErrTokenExpired)

	ref, err := signer.Verify(token, true)
	require.NoError(t, err)
	assert.Equal(t, "timetables/7B.csv", ref.Path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Sign("exp1", "a.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "exp2"
	_, err = signer.Verify(strings.Join(parts, "."), false)
	assert.ErrorIs(t, err, ErrTokenSignature)

	_, err = signer.Verify("nope", false)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = NewSignedURLSigner("other", time.Hour).Verify(token, false)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestSignedURLSignerRequiresInputs(t *testing.T) {
	_, _, err := NewSignedURLSigner("", time.Hour).Sign("exp1", "a.csv")
	assert.Error(t, err)
	_, _, err = NewSignedURLSigner("secret", time.Hour).Sign("exp.1", "a.csv")
	assert.Error(t, err)
}
