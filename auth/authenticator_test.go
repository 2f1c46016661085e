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

func newAuthenticatorFixture() (*MockRepositoryManager, *auth.Auther) {
	repo := NewMockRepositoryManager()
	tokens := auth.NewTokenService([]byte("signing-key"), 24, 720, "login-example", []string{"login-example"}, nil)
	return repo, auth.NewAuthenticator(repo, tokens)
}

func TestLoginReturnsValidToken(t *testing.T) {
	repo, auther := newAuthenticatorFixture()

	account := hashedAccount(t, "currentpassword")
	repo.accounts.On("GetByEmail", mock.Anything, account.Email).Return(account, nil).Once()
	repo.accounts.On("TrackSuccessfulLogin", mock.Anything, account).Return(nil).Once()

	token, err := auther.Login(context.Background(), account.Email, "currentpassword", false)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), session.GetAccountID())
	assert.Equal(t, account.Email, session.GetData()["email"])

	repo.accounts.AssertExpectations(t)
}

func TestLoginUnknownEmailAndWrongPasswordLookTheSame(t *testing.T) {
	repo, auther := newAuthenticatorFixture()

	repo.accounts.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(nil, repository.NewRecordNotFound()).Once()

	_, unknownErr := auther.Login(context.Background(), "ghost@example.com", "whatever", false)
	require.Error(t, unknownErr)
	assert.ErrorIs(t, unknownErr, auth.ErrAuthentication)

	account := hashedAccount(t, "currentpassword")
	repo.accounts.On("GetByEmail", mock.Anything, account.Email).Return(account, nil).Once()
	repo.accounts.On("TrackAttemptedLogin", mock.Anything, account).Return(nil).Once()

	_, wrongErr := auther.Login(context.Background(), account.Email, "wrongpassword", false)
	require.Error(t, wrongErr)
	assert.ErrorIs(t, wrongErr, auth.ErrAuthentication)

	repo.accounts.AssertExpectations(t)
}

func TestLoginRejectsUnverifiedAccount(t *testing.T) {
	repo, auther := newAuthenticatorFixture()

	account := hashedAccount(t, "currentpassword")
	account.Status = auth.AccountUnverified
	repo.accounts.On("GetByEmail", mock.Anything, account.Email).Return(account, nil).Once()

	_, err := auther.Login(context.Background(), account.Email, "currentpassword", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrAccountUnverified)
}

func TestLoginRejectsClosedAccount(t *testing.T) {
	repo, auther := newAuthenticatorFixture()

	account := hashedAccount(t, "currentpassword")
	account.Status = auth.AccountClosed
	repo.accounts.On("GetByEmail", mock.Anything, account.Email).Return(account, nil).Once()

	_, err := auther.Login(context.Background(), account.Email, "currentpassword", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrAuthentication)
}

func TestLoginRejectsSocialOnlyAccount(t *testing.T) {
	repo, auther := newAuthenticatorFixture()

	account := &auth.Account{
		ID:       uuid.New(),
		Email:    "ada@example.com",
		Status:   auth.AccountVerified,
		Provider: "google",
	}
	repo.accounts.On("GetByEmail", mock.Anything, account.Email).Return(account, nil).Once()

	_, err := auther.Login(context.Background(), account.Email, "anything", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrAuthentication)
	repo.accounts.AssertNotCalled(t, "TrackAttemptedLogin", mock.Anything, mock.Anything)
}

func TestIdentityFromSessionRejectsClosedAccount(t *testing.T) {
	repo, auther := newAuthenticatorFixture()

	account := hashedAccount(t, "currentpassword")
	repo.accounts.On("GetByEmail", mock.Anything, account.Email).Return(account, nil).Once()
	repo.accounts.On("TrackSuccessfulLogin", mock.Anything, account).Return(nil).Once()

	token, err := auther.Login(context.Background(), account.Email, "currentpassword", false)
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	// account closes while the session is still outstanding
	closed := &auth.Account{ID: account.ID, Email: account.Email, Status: auth.AccountClosed}
	repo.accounts.On("GetByID", mock.Anything, account.ID.String()).Return(closed, nil).Once()

	_, err = auther.IdentityFromSession(context.Background(), session)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrAuthenticationRequired)
}

func TestIdentityFromSessionLoadsAccount(t *testing.T) {
	repo, auther := newAuthenticatorFixture()

	account := hashedAccount(t, "currentpassword")
	repo.accounts.On("GetByEmail", mock.Anything, account.Email).Return(account, nil).Once()
	repo.accounts.On("TrackSuccessfulLogin", mock.Anything, account).Return(nil).Once()
	repo.accounts.On("GetByID", mock.Anything, account.ID.String()).Return(account, nil).Once()

	token, err := auther.Login(context.Background(), account.Email, "currentpassword", false)
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	identity, err := auther.IdentityFromSession(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), identity.ID())
	assert.Equal(t, account.Email, identity.Email())
}

func TestIdentityFromSessionRequiresSession(t *testing.T) {
	_, auther := newAuthenticatorFixture()

	_, err := auther.IdentityFromSession(context.Background(), nil)
	assert.ErrorIs(t, err, auth.ErrAuthenticationRequired)
}
