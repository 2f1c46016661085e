package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const verifyAccountSuccess = "Your account has been verified"

type VerifyAccountMessage struct {
	Key        string `json:"key"`
	OnResponse func(resp *VerifyAccountResponse)
}

func (e VerifyAccountMessage) Type() string { return "account.verify" }

type VerifyAccountResponse struct {
	Account *Account
	Message string
}

type VerifyAccountHandler struct {
	repo      RepositoryManager
	signer    *KeySigner
	threshold string
}

// NewVerifyAccountHandler creates a handler. threshold is a duration pattern
// like "24h" bounding the key's validity from its creation time.
func NewVerifyAccountHandler(repo RepositoryManager, signer *KeySigner, threshold string) *VerifyAccountHandler {
	if threshold == "" {
		threshold = "24h"
	}
	return &VerifyAccountHandler{
		repo:      repo,
		signer:    signer,
		threshold: threshold,
	}
}

func (h *VerifyAccountHandler) Execute(ctx context.Context, event VerifyAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyAccountHandler) execute(ctx context.Context, event VerifyAccountMessage) error {
	resp := &VerifyAccountResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		consumed, err := consumeKey(ctx, tx, h.repo, h.signer, event.Key, PurposeVerifyAccount, h.threshold)
		if err != nil {
			return err
		}

		account := consumed.account
		if account.Status != AccountVerified {
			if !CanTransition(account.Status, AccountVerified) {
				return WithDetail(ErrInvalidKey, map[string]any{
					"status": account.Status.String(),
				})
			}

			if _, err := h.repo.Accounts().UpdateStatusTx(ctx, tx, account.ID, AccountVerified); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account status")
			}
			account.Status = AccountVerified
		}

		resp.Account = account
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify account")
	}

	resp.Message = verifyAccountSuccess
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

type consumedKey struct {
	key     *AccountKey
	account *Account
}

// consumeKey validates the public key value against a stored row and flips it
// to consumed inside the caller's transaction. Every rejection surfaces as
// ErrInvalidKey so callers leak nothing about why a key failed.
func consumeKey(ctx context.Context, tx bun.Tx, repo RepositoryManager, signer *KeySigner, value string, purpose KeyPurpose, threshold string) (*consumedKey, error) {
	id, signature, err := ParseKeyID(value)
	if err != nil {
		return nil, ErrInvalidKey
	}

	key, err := repo.AccountKeys().GetByID(ctx, id.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrInvalidKey
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve account key")
	}

	if key.Purpose != purpose {
		return nil, ErrInvalidKey
	}

	if err := signer.Verify(key, signature); err != nil {
		return nil, ErrInvalidKey
	}

	if key.Status != KeyRequested {
		return nil, WithDetail(ErrInvalidKey, map[string]any{
			"reason": "key already used",
		})
	}

	if key.CreatedAt == nil {
		return nil, goerrors.New("account key is missing creation date", goerrors.CategoryInternal)
	}

	expired, err := IsOutsideThresholdPeriod(*key.CreatedAt, threshold)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check key expiration period")
	}
	if expired {
		return nil, WithDetail(ErrInvalidKey, map[string]any{
			"reason": "key expired",
		})
	}

	if key.AccountID == nil {
		return nil, goerrors.New("account key is not associated with an account", goerrors.CategoryInternal)
	}

	account, err := repo.Accounts().GetByID(ctx, key.AccountID.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrInvalidKey
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve account for key")
	}

	if account.IsClosed() {
		return nil, ErrInvalidKey
	}

	if _, err := repo.AccountKeys().UpdateTx(ctx, tx, MarkKeyConsumed(key.ID)); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume account key")
	}

	return &consumedKey{key: key, account: account}, nil
}
