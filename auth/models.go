package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountStatus is the lifecycle status of an account. Values match the
// status column in the accounts table.
type AccountStatus int

const (
	// AccountUnverified is the initial status of password registrations.
	AccountUnverified AccountStatus = 1
	// AccountVerified means the email has been confirmed, either via a
	// verification key or by an OAuth provider.
	AccountVerified AccountStatus = 2
	// AccountClosed is terminal.
	AccountClosed AccountStatus = 3
)

func (s AccountStatus) String() string {
	switch s {
	case AccountUnverified:
		return "unverified"
	case AccountVerified:
		return "verified"
	case AccountClosed:
		return "closed"
	}
	return "unknown"
}

// Account is the user identity record.
type Account struct {
	bun.BaseModel  `bun:"table:accounts,alias:acc"`
	ID             uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name           string        `bun:"name,notnull" json:"name,omitempty"`
	Email          string        `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string        `bun:"password_hash" json:"-"`
	Status         AccountStatus `bun:"status,notnull" json:"status,omitempty"`
	Provider       string        `bun:"provider" json:"provider,omitempty"`
	LoginAttempts  int           `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time    `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time    `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the zero value so records created before the status
// column behave as unverified.
func (a *Account) EnsureStatus() {
	if a.Status == 0 {
		a.Status = AccountUnverified
	}
}

// IsClosed reports whether the account reached its terminal status.
func (a *Account) IsClosed() bool {
	return a.Status == AccountClosed
}

// NormalizeEmail lowercases and trims an email so lookups and the unique
// index agree on a single representation.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// KeyPurpose scopes a one-time key to a single flow.
type KeyPurpose = string

const (
	// PurposeVerifyAccount confirms email ownership after registration.
	PurposeVerifyAccount KeyPurpose = "verify-account"
	// PurposeResetPassword authorizes a password replacement.
	PurposeResetPassword KeyPurpose = "reset-password"
	// PurposeLoginChange confirms ownership of a new login email.
	PurposeLoginChange KeyPurpose = "login-change"
)

const (
	// KeyRequested is the status of a freshly minted key.
	KeyRequested = "requested"
	// KeyConsumed means the key was used; it never validates again.
	KeyConsumed = "consumed"
)

// AccountKey is a single-use, time-bounded key row. The public value mailed
// to the user is the row id plus an HMAC signature, see keys.go.
type AccountKey struct {
	bun.BaseModel `bun:"table:account_keys,alias:akey"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     *uuid.UUID `bun:"account_id,notnull" json:"account_id,omitempty"`
	Account       *Account   `bun:"rel:has-one,join:account_id=id" json:"account,omitempty"`
	Purpose       KeyPurpose `bun:"purpose,notnull" json:"purpose,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	NewEmail      string     `bun:"new_email" json:"new_email,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// MarkKeyConsumed builds the update record for a consumed key.
func MarkKeyConsumed(id uuid.UUID) *AccountKey {
	k := &AccountKey{}
	k.ID = id
	k.Status = KeyConsumed
	return k
}
