package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinmarchese/login-example/auth"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-password")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, auth.ComparePasswordAndHash("s3cret-password", hash))
	assert.ErrorIs(t,
		auth.ComparePasswordAndHash("wrong-password", hash),
		auth.ErrMismatchedHashAndPassword,
	)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := auth.HashPassword("")
	assert.ErrorIs(t, err, auth.ErrNoEmptyString)
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	_, err := auth.HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)

	// 72 bytes is the bcrypt limit and must still work
	_, err = auth.HashPassword(strings.Repeat("a", 72))
	assert.NoError(t, err)
}
