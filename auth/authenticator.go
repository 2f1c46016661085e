package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

var _ Authenticator = &Auther{}

// Auther authenticates email/password credentials and exchanges validated
// tokens for sessions.
type Auther struct {
	repo   RepositoryManager
	tokens TokenService
	logger Logger
}

// NewAuthenticator creates an authenticator backed by the accounts repository.
func NewAuthenticator(repo RepositoryManager, tokens TokenService) *Auther {
	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the authenticator.
func (a *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Login checks the credentials and returns a signed session token. The error
// for an unknown email and for a wrong password is the same on purpose. A
// remembered login only differs in token lifetime.
func (a *Auther) Login(ctx context.Context, email, password string, remember bool) (string, error) {
	account, err := a.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return "", ErrAuthentication
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for login")
	}

	if account.IsClosed() {
		return "", ErrAuthentication
	}

	if account.Status == AccountUnverified {
		return "", ErrAccountUnverified
	}

	// social-only accounts carry no hash and cannot log in with a password
	if account.PasswordHash == "" {
		return "", ErrAuthentication
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		if trackErr := a.repo.Accounts().TrackAttemptedLogin(ctx, account); trackErr != nil {
			a.logger.Error("failed to track attempted login", "account", account.ID, "error", trackErr)
		}
		return "", ErrAuthentication
	}

	if err := a.repo.Accounts().TrackSuccessfulLogin(ctx, account); err != nil {
		a.logger.Error("failed to track successful login", "account", account.ID, "error", err)
	}

	token, err := a.tokens.Generate(NewIdentity(account), remember)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate session token")
	}

	return token, nil
}

// SessionFromToken validates a raw token string and returns the session it
// encodes.
func (a *Auther) SessionFromToken(token string) (Session, error) {
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	return SessionFromClaims(claims), nil
}

// IdentityFromSession loads the account behind a session. A closed account
// invalidates outstanding sessions.
func (a *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	if session == nil {
		return nil, ErrAuthenticationRequired
	}

	account, err := a.repo.Accounts().GetByID(ctx, session.GetAccountID())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrAuthenticationRequired
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for session")
	}

	if account.IsClosed() {
		return nil, ErrAuthenticationRequired
	}

	return NewIdentity(account), nil
}

type accountIdentity struct {
	account *Account
}

// NewIdentity wraps an account in the read-only Identity surface.
func NewIdentity(account *Account) Identity {
	return &accountIdentity{account: account}
}

func (i *accountIdentity) ID() string            { return i.account.ID.String() }
func (i *accountIdentity) Name() string          { return i.account.Name }
func (i *accountIdentity) Email() string         { return i.account.Email }
func (i *accountIdentity) Status() AccountStatus { return i.account.Status }
