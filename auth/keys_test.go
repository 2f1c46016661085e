package auth_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinmarchese/login-example/auth"
)

func TestMintKeyDefaults(t *testing.T) {
	accountID := uuid.New()

	key := auth.MintKey(accountID, auth.PurposeVerifyAccount)

	require.NotNil(t, key.AccountID)
	assert.Equal(t, accountID, *key.AccountID)
	assert.NotEqual(t, uuid.Nil, key.ID)
	assert.Equal(t, auth.PurposeVerifyAccount, key.Purpose)
	assert.Equal(t, auth.KeyRequested, key.Status)
}

func TestKeySignerRoundTrip(t *testing.T) {
	signer := auth.NewKeySigner([]byte("test-secret"))
	key := auth.MintKey(uuid.New(), auth.PurposeResetPassword)

	value, err := signer.Sign(key)
	require.NoError(t, err)

	id, signature, err := auth.ParseKeyID(value)
	require.NoError(t, err)
	assert.Equal(t, key.ID, id)

	assert.NoError(t, signer.Verify(key, signature))
}

func TestKeySignerRejectsTamperedSignature(t *testing.T) {
	signer := auth.NewKeySigner([]byte("test-secret"))
	key := auth.MintKey(uuid.New(), auth.PurposeResetPassword)

	value, err := signer.Sign(key)
	require.NoError(t, err)

	_, signature, err := auth.ParseKeyID(value)
	require.NoError(t, err)

	tampered := signature[:len(signature)-2] + "xx"
	assert.ErrorIs(t, signer.Verify(key, tampered), auth.ErrInvalidKey)
}

func TestKeySignerRejectsWrongSecret(t *testing.T) {
	key := auth.MintKey(uuid.New(), auth.PurposeResetPassword)

	value, err := auth.NewKeySigner([]byte("secret-a")).Sign(key)
	require.NoError(t, err)

	_, signature, err := auth.ParseKeyID(value)
	require.NoError(t, err)

	other := auth.NewKeySigner([]byte("secret-b"))
	assert.ErrorIs(t, other.Verify(key, signature), auth.ErrInvalidKey)
}

func TestKeySignerBindsPurposeAndAccount(t *testing.T) {
	signer := auth.NewKeySigner([]byte("test-secret"))
	key := auth.MintKey(uuid.New(), auth.PurposeResetPassword)

	value, err := signer.Sign(key)
	require.NoError(t, err)

	_, signature, err := auth.ParseKeyID(value)
	require.NoError(t, err)

	// same row id presented with another purpose must not validate
	crossPurpose := &auth.AccountKey{
		ID:        key.ID,
		AccountID: key.AccountID,
		Purpose:   auth.PurposeVerifyAccount,
	}
	assert.ErrorIs(t, signer.Verify(crossPurpose, signature), auth.ErrInvalidKey)

	otherAccount := uuid.New()
	crossAccount := &auth.AccountKey{
		ID:        key.ID,
		AccountID: &otherAccount,
		Purpose:   key.Purpose,
	}
	assert.ErrorIs(t, signer.Verify(crossAccount, signature), auth.ErrInvalidKey)
}

func TestParseKeyIDRejectsMalformedValues(t *testing.T) {
	cases := []string{
		"",
		"no-separator",
		"not-a-uuid:signature",
		uuid.NewString(),       // missing signature
		uuid.NewString() + ":", // empty signature
	}

	for _, value := range cases {
		_, _, err := auth.ParseKeyID(value)
		assert.ErrorIs(t, err, auth.ErrInvalidKey, "value %q", value)
	}
}

func TestSignedValueShape(t *testing.T) {
	signer := auth.NewKeySigner([]byte("test-secret"))
	key := auth.MintKey(uuid.New(), auth.PurposeLoginChange)

	value, err := signer.Sign(key)
	require.NoError(t, err)

	parts := strings.SplitN(value, ":", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, key.ID.String(), parts[0])
	assert.NotEmpty(t, parts[1])
}
