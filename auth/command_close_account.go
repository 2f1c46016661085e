package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const closeAccountSuccess = "Your account has been closed"

type CloseAccountMessage struct {
	AccountID  uuid.UUID `json:"-"`
	Password   string    `json:"password"`
	OnResponse func(resp *CloseAccountResponse)
}

func (e CloseAccountMessage) Type() string { return "account.close" }

type CloseAccountResponse struct {
	Account *Account
	Message string
}

type CloseAccountHandler struct {
	repo RepositoryManager
}

func NewCloseAccountHandler(repo RepositoryManager) *CloseAccountHandler {
	return &CloseAccountHandler{repo: repo}
}

func (h *CloseAccountHandler) Execute(ctx context.Context, event CloseAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account closure",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CloseAccountHandler) execute(ctx context.Context, event CloseAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

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

	closed, err := h.repo.Accounts().Close(ctx, account, WithTransitionReason("requested by owner"))
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to close account")
	}

	if event.OnResponse != nil {
		event.OnResponse(&CloseAccountResponse{
			Account: closed,
			Message: closeAccountSuccess,
		})
	}

	return nil
}
