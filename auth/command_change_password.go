package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const changePasswordSuccess = "Your password has been changed"

type ChangePasswordMessage struct {
	AccountID   uuid.UUID `json:"-"`
	Password    string    `json:"password"`
	NewPassword string    `json:"new_password"`
	OnResponse  func(resp *ChangePasswordResponse)
}

func (e ChangePasswordMessage) Type() string { return "account.change_password" }

type ChangePasswordResponse struct {
	Message string
}

type ChangePasswordHandler struct {
	repo RepositoryManager
}

func NewChangePasswordHandler(repo RepositoryManager) *ChangePasswordHandler {
	return &ChangePasswordHandler{repo: repo}
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByID(ctx, event.AccountID.String())
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrAuthenticationRequired
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve account")
		}

		if account.IsClosed() {
			return ErrAuthentication
		}

		if err := ComparePasswordAndHash(event.Password, account.PasswordHash); err != nil {
			return ValidationError(map[string]any{
				"password": "current password does not match",
			})
		}

		passwordHash, err := HashPassword(event.NewPassword)
		if err != nil {
			return ValidationError(map[string]any{
				"new_password": err.Error(),
			})
		}

		if err := h.repo.Accounts().ReplacePasswordTx(ctx, tx, account.ID, passwordHash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account password")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to change password")
	}

	if event.OnResponse != nil {
		event.OnResponse(&ChangePasswordResponse{Message: changePasswordSuccess})
	}

	return nil
}
