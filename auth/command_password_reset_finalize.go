package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const resetFinalizedMessage = "Your password has been reset"

type FinalizePasswordResetMessage struct {
	Key        string `json:"key"`
	Password   string `json:"password"`
	OnResponse func(resp *FinalizePasswordResetResponse)
}

func (e FinalizePasswordResetMessage) Type() string { return "account.password_reset_finalize" }

type FinalizePasswordResetResponse struct {
	Account *Account
	Message string
}

type FinalizePasswordResetHandler struct {
	repo      RepositoryManager
	signer    *KeySigner
	threshold string
}

// NewFinalizePasswordResetHandler creates a handler. threshold bounds the
// reset key validity, e.g. "6h".
func NewFinalizePasswordResetHandler(repo RepositoryManager, signer *KeySigner, threshold string) *FinalizePasswordResetHandler {
	if threshold == "" {
		threshold = "6h"
	}
	return &FinalizePasswordResetHandler{
		repo:      repo,
		signer:    signer,
		threshold: threshold,
	}
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	resp := &FinalizePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		consumed, err := consumeKey(ctx, tx, h.repo, h.signer, event.Key, PurposeResetPassword, h.threshold)
		if err != nil {
			return err
		}

		passwordHash, err := HashPassword(event.Password)
		if err != nil {
			return ValidationError(map[string]any{
				"password": err.Error(),
			})
		}

		if err := h.repo.Accounts().ReplacePasswordTx(ctx, tx, consumed.account.ID, passwordHash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account password")
		}

		resp.Account = consumed.account
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	resp.Message = resetFinalizedMessage
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
