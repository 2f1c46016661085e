package auth_test

import (
	"context"
	"testing"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/martinmarchese/login-example/auth"
)

func hashedAccount(t *testing.T, password string) *auth.Account {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	return &auth.Account{
		ID:           uuid.New(),
		Name:         "Ada Lovelace",
		Email:        "ada@example.com",
		PasswordHash: hash,
		Status:       auth.AccountVerified,
	}
}

func TestChangePasswordReplacesHash(t *testing.T) {
	repo := NewMockRepositoryManager()
	handler := auth.NewChangePasswordHandler(repo)

	account := hashedAccount(t, "currentpassword")

	repo.accounts.On("GetByID", mock.Anything, account.ID.String()).Return(account, nil).Once()
	repo.accounts.On("ReplacePasswordTx", mock.Anything, mock.Anything, account.ID, mock.MatchedBy(func(hash string) bool {
		return auth.ComparePasswordAndHash("replacementpassword", hash) == nil
	})).Return(nil).Once()

	var resp *auth.ChangePasswordResponse
	err := handler.Execute(context.Background(), auth.ChangePasswordMessage{
		AccountID:   account.ID,
		Password:    "currentpassword",
		NewPassword: "replacementpassword",
		OnResponse: func(r *auth.ChangePasswordResponse) {
			resp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Contains(t, resp.Message, "changed")

	repo.accounts.AssertExpectations(t)
}

func TestChangePasswordRejectsWrongCurrentPassword(t *testing.T) {
	repo := NewMockRepositoryManager()
	handler := auth.NewChangePasswordHandler(repo)

	account := hashedAccount(t, "currentpassword")
	repo.accounts.On("GetByID", mock.Anything, account.ID.String()).Return(account, nil).Once()

	err := handler.Execute(context.Background(), auth.ChangePasswordMessage{
		AccountID:   account.ID,
		Password:    "wrongpassword",
		NewPassword: "replacementpassword",
	})
	require.Error(t, err)
	assert.True(t, auth.IsValidationError(err))

	fields := auth.FieldErrors(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "password")

	repo.accounts.AssertNotCalled(t, "ReplacePasswordTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePasswordRejectsBadNewPassword(t *testing.T) {
	repo := NewMockRepositoryManager()
	handler := auth.NewChangePasswordHandler(repo)

	account := hashedAccount(t, "currentpassword")
	repo.accounts.On("GetByID", mock.Anything, account.ID.String()).Return(account, nil).Once()

	err := handler.Execute(context.Background(), auth.ChangePasswordMessage{
		AccountID:   account.ID,
		Password:    "currentpassword",
		NewPassword: "",
	})
	require.Error(t, err)
	assert.True(t, auth.IsValidationError(err))

	fields := auth.FieldErrors(err)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "new_password")
}

func TestChangePasswordRejectsClosedAccount(t *testing.T) {
	repo := NewMockRepositoryManager()
	handler := auth.NewChangePasswordHandler(repo)

	account := hashedAccount(t, "currentpassword")
	account.Status = auth.AccountClosed
	repo.accounts.On("GetByID", mock.Anything, account.ID.String()).Return(account, nil).Once()

	err := handler.Execute(context.Background(), auth.ChangePasswordMessage{
		AccountID:   account.ID,
		Password:    "currentpassword",
		NewPassword: "replacementpassword",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrAuthentication)
}

func TestChangePasswordRequiresExistingAccount(t *testing.T) {
	repo := NewMockRepositoryManager()
	handler := auth.NewChangePasswordHandler(repo)

	id := uuid.New()
	repo.accounts.On("GetByID", mock.Anything, id.String()).
		Return(nil, repository.NewRecordNotFound()).Once()

	err := handler.Execute(context.Background(), auth.ChangePasswordMessage{
		AccountID:   id,
		Password:    "currentpassword",
		NewPassword: "replacementpassword",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrAuthenticationRequired)
}
