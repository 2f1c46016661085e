package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// KeySigner mints and checks the public form of one-time account keys. The
// value that leaves the system is "<key-id>:<signature>", where the signature
// is an HMAC over the key id, the account id, and the purpose. A database hit
// alone is never enough to consume a key; the signature has to match too.
type KeySigner struct {
	secret []byte
}

// NewKeySigner builds a signer from the application secret key.
func NewKeySigner(secret []byte) *KeySigner {
	return &KeySigner{secret: secret}
}

// Sign produces the public key value for a stored AccountKey row.
func (s *KeySigner) Sign(key *AccountKey) (string, error) {
	if key == nil || key.AccountID == nil {
		return "", ErrInvalidKey
	}

	sig := s.signature(key.ID, *key.AccountID, key.Purpose)
	return fmt.Sprintf("%s:%s", key.ID, sig), nil
}

// ParseKeyID splits a public key value and returns the row id to look up.
// The signature is verified later, once the row is loaded.
func ParseKeyID(value string) (uuid.UUID, string, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return uuid.Nil, "", ErrInvalidKey
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, "", ErrInvalidKey
	}

	return id, parts[1], nil
}

// Verify checks the presented signature against a loaded key row.
func (s *KeySigner) Verify(key *AccountKey, signature string) error {
	if key == nil || key.AccountID == nil {
		return ErrInvalidKey
	}

	expected := s.signature(key.ID, *key.AccountID, key.Purpose)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidKey
	}

	return nil
}

func (s *KeySigner) signature(id, accountID uuid.UUID, purpose KeyPurpose) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id.String()))
	mac.Write([]byte("|"))
	mac.Write([]byte(accountID.String()))
	mac.Write([]byte("|"))
	mac.Write([]byte(purpose))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// MintKey creates an unsaved key row for an account and purpose.
func MintKey(accountID uuid.UUID, purpose KeyPurpose) *AccountKey {
	id := accountID
	key := &AccountKey{
		ID:        uuid.New(),
		AccountID: &id,
		Purpose:   purpose,
		Status:    KeyRequested,
	}
	return key
}
