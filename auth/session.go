package auth

import (
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the concrete session handed to request handlers once a
// token has been validated.
type SessionObject struct {
	AccountID      string         `json:"account_id,omitempty"`
	Audience       []string       `json:"audience,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetAccountID() string {
	return s.AccountID
}

func (s *SessionObject) GetAccountUUID() (uuid.UUID, error) {
	return uuid.Parse(s.AccountID)
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// SessionFromClaims maps validated token claims into a SessionObject.
func SessionFromClaims(claims *JWTClaims) *SessionObject {
	if claims == nil {
		return nil
	}

	session := &SessionObject{
		AccountID: claims.AccountID(),
		Audience:  claims.Audience,
		Issuer:    claims.RegisteredClaims.Issuer,
	}

	if issued := claims.IssuedAt(); !issued.IsZero() {
		session.IssuedAt = &issued
	}

	if expires := claims.Expires(); !expires.IsZero() {
		session.ExpirationDate = &expires
	}

	data := map[string]any{}
	if claims.Name != "" {
		data["name"] = claims.Name
	}
	if claims.Email != "" {
		data["email"] = claims.Email
	}
	if len(data) > 0 {
		session.Data = data
	}

	return session
}
