package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const loginChangeRequestedMessage = "An email has been sent to your new address with a link to verify the change"

type ChangeLoginMessage struct {
	AccountID  uuid.UUID `json:"-"`
	Password   string    `json:"password"`
	NewEmail   string    `json:"new_email"`
	OnResponse func(resp *ChangeLoginResponse)
}

func (e ChangeLoginMessage) Type() string { return "account.change_login" }

func (e ChangeLoginMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Password, validation.Required),
		validation.Field(&e.NewEmail, validation.Required, is.Email),
	)
}

type ChangeLoginResponse struct {
	Message string
}

type ChangeLoginHandler struct {
	repo     RepositoryManager
	signer   *KeySigner
	notifier *Notifier
	logger   Logger
}

// NewChangeLoginHandler creates a handler with sane defaults.
func NewChangeLoginHandler(repo RepositoryManager, signer *KeySigner, notifier *Notifier) *ChangeLoginHandler {
	return &ChangeLoginHandler{
		repo:     repo,
		signer:   signer,
		notifier: notifier,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ChangeLoginHandler) WithLogger(logger Logger) *ChangeLoginHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ChangeLoginHandler) Execute(ctx context.Context, event ChangeLoginMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangeLoginHandler) execute(ctx context.Context, event ChangeLoginMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return ValidationError(FormatValidationErrors(err))
	}

	newEmail := NormalizeEmail(event.NewEmail)

	var signedKey string

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

		if newEmail == account.Email {
			return ValidationError(map[string]any{
				"new_email": "new email must differ from the current one",
			})
		}

		if _, err := h.repo.Accounts().GetByEmailTx(ctx, tx, newEmail); err == nil {
			return ValidationError(map[string]any{
				"new_email": "an account with this email already exists",
			})
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check new email availability")
		}

		key := MintKey(account.ID, PurposeLoginChange)
		key.NewEmail = newEmail
		if _, err := h.repo.AccountKeys().CreateTx(ctx, tx, key); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create login change key")
		}

		if signedKey, err = h.signer.Sign(key); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not sign login change key")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize login change")
	}

	// the key goes to the address being claimed, not the current one
	if err := h.notifier.SendLoginChange(newEmail, signedKey); err != nil {
		h.logger.Error("login change email failed", "email", newEmail, "error", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&ChangeLoginResponse{Message: loginChangeRequestedMessage})
	}

	return nil
}

const loginChangedMessage = "Your login has been changed"

type VerifyLoginChangeMessage struct {
	Key        string `json:"key"`
	OnResponse func(resp *VerifyLoginChangeResponse)
}

func (e VerifyLoginChangeMessage) Type() string { return "account.verify_login_change" }

type VerifyLoginChangeResponse struct {
	Account *Account
	Message string
}

type VerifyLoginChangeHandler struct {
	repo      RepositoryManager
	signer    *KeySigner
	threshold string
}

func NewVerifyLoginChangeHandler(repo RepositoryManager, signer *KeySigner, threshold string) *VerifyLoginChangeHandler {
	if threshold == "" {
		threshold = "24h"
	}
	return &VerifyLoginChangeHandler{
		repo:      repo,
		signer:    signer,
		threshold: threshold,
	}
}

func (h *VerifyLoginChangeHandler) Execute(ctx context.Context, event VerifyLoginChangeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login change verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyLoginChangeHandler) execute(ctx context.Context, event VerifyLoginChangeMessage) error {
	resp := &VerifyLoginChangeResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		consumed, err := consumeKey(ctx, tx, h.repo, h.signer, event.Key, PurposeLoginChange, h.threshold)
		if err != nil {
			return err
		}

		if consumed.key.NewEmail == "" {
			return goerrors.New("login change key is missing the new email", goerrors.CategoryInternal)
		}

		// the address may have been registered since the key was minted
		if _, err := h.repo.Accounts().GetByEmailTx(ctx, tx, consumed.key.NewEmail); err == nil {
			return ErrInvalidKey
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check new email availability")
		}

		account, err := h.repo.Accounts().ReplaceEmailTx(ctx, tx, consumed.account.ID, consumed.key.NewEmail)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrInvalidKey
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account email")
		}

		resp.Account = account
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify login change")
	}

	resp.Message = loginChangedMessage
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
