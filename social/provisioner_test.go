package social_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/martinmarchese/login-example/auth"
	"github.com/martinmarchese/login-example/social"
)

// mockAccounts covers only the repository methods provisioning touches; the
// embedded interface panics on anything else.
type mockAccounts struct {
	mock.Mock
	auth.Accounts
}

func (m *mockAccounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*auth.Account, error) {
	args := m.Called(ctx, tx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Account), args.Error(1)
}

func (m *mockAccounts) CreateTx(ctx context.Context, tx bun.IDB, record *auth.Account, criteria ...repository.InsertCriteria) (*auth.Account, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Account), args.Error(1)
}

func (m *mockAccounts) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status auth.AccountStatus) (*auth.Account, error) {
	args := m.Called(ctx, tx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Account), args.Error(1)
}

type mockRepoManager struct {
	accounts *mockAccounts
}

func newMockRepoManager() *mockRepoManager {
	return &mockRepoManager{accounts: &mockAccounts{}}
}

func (m *mockRepoManager) Validate() error { return nil }

func (m *mockRepoManager) MustValidate() {}

func (m *mockRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *mockRepoManager) Accounts() auth.Accounts { return m.accounts }

func (m *mockRepoManager) AccountKeys() repository.Repository[*auth.AccountKey] { return nil }

func googleProfile() *social.Profile {
	return &social.Profile{
		Provider: "google",
		Subject:  "google-subject-1",
		Email:    "ada@example.com",
		Name:     "Ada Lovelace",
	}
}

func TestResolveCreatesVerifiedAccount(t *testing.T) {
	repo := newMockRepoManager()
	provisioner := social.NewProvisioner(repo)

	repo.accounts.On("GetByEmailTx", mock.Anything, mock.Anything, "ada@example.com").
		Return(nil, repository.NewRecordNotFound()).Once()
	repo.accounts.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a *auth.Account) bool {
		return a.Status == auth.AccountVerified &&
			a.Provider == "google" &&
			a.PasswordHash == ""
	})).Return(&auth.Account{
		ID:       uuid.New(),
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Status:   auth.AccountVerified,
		Provider: "google",
	}, nil).Once()

	account, err := provisioner.Resolve(context.Background(), googleProfile())
	require.NoError(t, err)
	assert.Equal(t, auth.AccountVerified, account.Status)
	assert.Equal(t, "google", account.Provider)

	repo.accounts.AssertExpectations(t)
}

func TestResolveFallsBackToUnknownName(t *testing.T) {
	repo := newMockRepoManager()
	provisioner := social.NewProvisioner(repo)

	profile := googleProfile()
	profile.Name = ""

	repo.accounts.On("GetByEmailTx", mock.Anything, mock.Anything, "ada@example.com").
		Return(nil, repository.NewRecordNotFound()).Once()
	repo.accounts.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a *auth.Account) bool {
		return a.Name == "Unknown"
	})).Return(&auth.Account{ID: uuid.New(), Name: "Unknown", Status: auth.AccountVerified}, nil).Once()

	_, err := provisioner.Resolve(context.Background(), profile)
	require.NoError(t, err)
	repo.accounts.AssertExpectations(t)
}

func TestResolveReturnsExistingVerifiedAccount(t *testing.T) {
	repo := newMockRepoManager()
	provisioner := social.NewProvisioner(repo)

	existing := &auth.Account{ID: uuid.New(), Email: "ada@example.com", Status: auth.AccountVerified}
	repo.accounts.On("GetByEmailTx", mock.Anything, mock.Anything, "ada@example.com").
		Return(existing, nil).Once()

	account, err := provisioner.Resolve(context.Background(), googleProfile())
	require.NoError(t, err)
	assert.Equal(t, existing.ID, account.ID)
	repo.accounts.AssertNotCalled(t, "UpdateStatusTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveUpgradesUnverifiedAccount(t *testing.T) {
	repo := newMockRepoManager()
	provisioner := social.NewProvisioner(repo)

	existing := &auth.Account{ID: uuid.New(), Email: "ada@example.com", Status: auth.AccountUnverified}
	repo.accounts.On("GetByEmailTx", mock.Anything, mock.Anything, "ada@example.com").
		Return(existing, nil).Once()
	repo.accounts.On("UpdateStatusTx", mock.Anything, mock.Anything, existing.ID, auth.AccountVerified).
		Return(&auth.Account{ID: existing.ID, Email: existing.Email, Status: auth.AccountVerified}, nil).Once()

	account, err := provisioner.Resolve(context.Background(), googleProfile())
	require.NoError(t, err)
	assert.Equal(t, auth.AccountVerified, account.Status)
	repo.accounts.AssertExpectations(t)
}

func TestResolveRejectsClosedAccount(t *testing.T) {
	repo := newMockRepoManager()
	provisioner := social.NewProvisioner(repo)

	closed := &auth.Account{ID: uuid.New(), Email: "ada@example.com", Status: auth.AccountClosed}
	repo.accounts.On("GetByEmailTx", mock.Anything, mock.Anything, "ada@example.com").
		Return(closed, nil).Once()

	_, err := provisioner.Resolve(context.Background(), googleProfile())
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrOAuth)
}

func TestResolveRejectsProfileWithoutEmail(t *testing.T) {
	provisioner := social.NewProvisioner(newMockRepoManager())

	for _, profile := range []*social.Profile{nil, {Provider: "google", Subject: "s"}} {
		_, err := provisioner.Resolve(context.Background(), profile)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrOAuth)
	}
}

func TestResolveWrapsPersistenceFailures(t *testing.T) {
	repo := newMockRepoManager()
	provisioner := social.NewProvisioner(repo)

	repo.accounts.On("GetByEmailTx", mock.Anything, mock.Anything, "ada@example.com").
		Return(nil, errors.New("connection reset")).Once()

	_, err := provisioner.Resolve(context.Background(), googleProfile())
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrOAuth, "infrastructure failures must still map to the redirect path")
}
