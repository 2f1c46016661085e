package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

const createAccountSuccess = "An email has been sent to you with a link to verify your account"

type CreateAccountMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	UseHashid  bool   `json:"-"`
	OnResponse func(resp *CreateAccountResponse)
}

func (e CreateAccountMessage) Type() string { return "account.create" }

// Validate runs the field rules the account model demands: name presence and
// length, email shape, password length bounds.
func (e CreateAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 72)),
	)
}

type CreateAccountResponse struct {
	Account *Account
	Message string
}

type CreateAccountHandler struct {
	repo     RepositoryManager
	signer   *KeySigner
	notifier *Notifier
	logger   Logger
}

// NewCreateAccountHandler creates a handler with sane defaults.
func NewCreateAccountHandler(repo RepositoryManager, signer *KeySigner, notifier *Notifier) *CreateAccountHandler {
	return &CreateAccountHandler{
		repo:     repo,
		signer:   signer,
		notifier: notifier,
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *CreateAccountHandler) WithLogger(logger Logger) *CreateAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *CreateAccountHandler) Execute(ctx context.Context, event CreateAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateAccountHandler) execute(ctx context.Context, event CreateAccountMessage) error {
	account := &Account{}
	resp := &CreateAccountResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return ValidationError(FormatValidationErrors(err))
	}

	var signedKey string

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Accounts().GetByEmailTx(ctx, tx, event.Email); err == nil {
			return ValidationError(map[string]any{
				"email": "an account with this email address already exists",
			})
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return ValidationError(map[string]any{
				"password": err.Error(),
			})
		}

		account.Name = event.Name
		account.Email = event.Email
		account.PasswordHash = hash
		account.Status = AccountUnverified
		if event.UseHashid {
			if id, err := hashid.NewUUID(NormalizeEmail(event.Email)); err == nil {
				account.ID = id
			}
		}

		if account, err = h.repo.Accounts().CreateTx(ctx, tx, account); err != nil {
			// the unique index is the backstop for concurrent duplicates
			if isUniqueViolation(err) {
				return ValidationError(map[string]any{
					"email": "an account with this email address already exists",
				})
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		key := MintKey(account.ID, PurposeVerifyAccount)
		if _, err := h.repo.AccountKeys().CreateTx(ctx, tx, key); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create verification key")
		}

		if signedKey, err = h.signer.Sign(key); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not sign verification key")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "account creation transaction failed")
	}

	// The transaction is committed; only now does the notification go out.
	// A failed send is logged, not bubbled: the account exists and the user
	// can request a new key through the reset flow.
	if err := h.notifier.SendVerification(account.Email, signedKey); err != nil {
		h.logger.Error("verification email failed", "email", account.Email, "error", err)
	}

	resp.Account = account
	resp.Message = createAccountSuccess
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
