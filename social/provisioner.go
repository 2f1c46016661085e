package social

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/martinmarchese/login-example/auth"
)

// unknownName is used when a provider reports no usable display name.
const unknownName = "Unknown"

// Provisioner maps a provider profile onto a local account, creating or
// upgrading it as needed.
type Provisioner struct {
	repo   auth.RepositoryManager
	logger auth.Logger
}

// NewProvisioner creates a provisioner backed by the accounts repository.
func NewProvisioner(repo auth.RepositoryManager) *Provisioner {
	return &Provisioner{
		repo:   repo,
		logger: auth.DefaultLogger(),
	}
}

// WithLogger overrides the logger used by the provisioner.
func (p *Provisioner) WithLogger(logger auth.Logger) *Provisioner {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Resolve returns the local account for a provider profile. A provider login
// proves control of the email address, so new accounts come out verified and
// existing unverified accounts are upgraded. Every expected failure maps to
// ErrOAuth so the HTTP layer can redirect instead of erroring.
func (p *Provisioner) Resolve(ctx context.Context, profile *Profile) (*auth.Account, error) {
	if profile == nil || profile.Email == "" {
		return nil, auth.WithDetail(auth.ErrOAuth, map[string]any{
			"reason": "provider returned no email",
		})
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var resolved *auth.Account

	err := p.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := p.repo.Accounts().GetByEmailTx(ctx, tx, profile.Email)
		if err != nil {
			if !repository.IsRecordNotFound(err) {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for social login")
			}

			created, err := p.createAccount(ctx, tx, profile)
			if err != nil {
				return err
			}
			resolved = created
			return nil
		}

		if account.IsClosed() {
			return auth.WithDetail(auth.ErrOAuth, map[string]any{
				"reason": "account is closed",
			})
		}

		if account.Status == auth.AccountUnverified {
			updated, err := p.repo.Accounts().UpdateStatusTx(ctx, tx, account.ID, auth.AccountVerified)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify account via social login")
			}
			account = updated
		}

		resolved = account
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && goerrors.Is(richErr, auth.ErrOAuth) {
			return nil, richErr
		}
		p.logger.Error("social login provisioning failed", "provider", profile.Provider, "error", err)
		return nil, auth.WithDetail(auth.ErrOAuth, map[string]any{
			"reason": "could not provision account",
		})
	}

	return resolved, nil
}

func (p *Provisioner) createAccount(ctx context.Context, tx bun.Tx, profile *Profile) (*auth.Account, error) {
	name := profile.Name
	if name == "" {
		name = unknownName
	}

	// no password hash: the account can only log in through the provider
	// until a password reset sets one
	account := &auth.Account{
		Name:     name,
		Email:    auth.NormalizeEmail(profile.Email),
		Status:   auth.AccountVerified,
		Provider: profile.Provider,
	}

	created, err := p.repo.Accounts().CreateTx(ctx, tx, account)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create account from social profile")
	}

	return created, nil
}
