package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"citizen-registry/internal/config"
	"citizen-registry/internal/domain"
	"citizen-registry/internal/mocks"
	"citizen-registry/internal/mocks/memstore"
	"citizen-registry/internal/repository"
	"citizen-registry/internal/service/identity"
)

func newProvider(t *testing.T) (identity.Provider, *memstore.Stores) {
	t.Helper()
	stores := memstore.New()
	cfg := &config.Config{JWTSecret: "test-secret", JWTAccessExpiry: time.Minute, JWTRefreshExpiry: time.Hour}
	return identity.NewProvider(stores.Identities, stores.Users, stores.Sessions, cfg, zap.NewNop()), stores
}

func seedAccount(t *testing.T, p identity.Provider, stores *memstore.Stores, email string, active bool) *domain.UserAccount {
	t.Helper()
	ctx := context.Background()
	created, err := p.CreateUser(ctx, email, "Password123")
	require.NoError(t, err)
	account := &domain.UserAccount{ID: uuid.New(), IdentityID: created.ID, Email: email, FullName: "Test User", Role: domain.RoleOperator, IsActive: active}
	require.NoError(t, stores.Users.Create(ctx, account))
	return account
}

func TestProvider_SignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		p, stores := newProvider(t)
		account := seedAccount(t, p, stores, "op@inst.example", true)

		session, err := p.SignIn(ctx, domain.LoginInput{Email: "op@inst.example", Password: "Password123"}, domain.Actor{})
		require.NoError(t, err)

		assert.Equal(t, account.IdentityID, session.IdentityID)
		assert.Equal(t, domain.RoleOperator, session.User.Role)
		assert.NotNil(t, session.User.LastLogin)
		assert.Equal(t, int64(60), session.Tokens.ExpiresIn)

		claims, err := p.ValidateAccessToken(session.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, account.IdentityID, claims.IdentityID)
		assert.Equal(t, "op@inst.example", claims.Email)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		p, stores := newProvider(t)
		seedAccount(t, p, stores, "op@inst.example", true)

		_, err := p.SignIn(ctx, domain.LoginInput{Email: "op@inst.example", Password: "nope-nope"}, domain.Actor{})

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Unknown Email", func(t *testing.T) {
		p, _ := newProvider(t)

		_, err := p.SignIn(ctx, domain.LoginInput{Email: "ghost@inst.example", Password: "Password123"}, domain.Actor{})

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Inactive Account", func(t *testing.T) {
		p, stores := newProvider(t)
		seedAccount(t, p, stores, "op@inst.example", false)

		_, err := p.SignIn(ctx, domain.LoginInput{Email: "op@inst.example", Password: "Password123"}, domain.Actor{})

		assert.ErrorIs(t, err, domain.ErrAccountInactive)
	})

	t.Run("Identity Without Account", func(t *testing.T) {
		p, _ := newProvider(t)
		_, err := p.CreateUser(ctx, "orphan@inst.example", "Password123")
		require.NoError(t, err)

		_, err = p.SignIn(ctx, domain.LoginInput{Email: "orphan@inst.example", Password: "Password123"}, domain.Actor{})

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestProvider_Refresh(t *testing.T) {
	ctx := context.Background()
	p, stores := newProvider(t)
	seedAccount(t, p, stores, "op@inst.example", true)

	session, err := p.SignIn(ctx, domain.LoginInput{Email: "op@inst.example", Password: "Password123"}, domain.Actor{})
	require.NoError(t, err)

	t.Run("Rotates Refresh Token", func(t *testing.T) {
		next, err := p.Refresh(ctx, session.Tokens.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, session.Tokens.RefreshToken, next.Tokens.RefreshToken)

		_, err = p.Refresh(ctx, session.Tokens.RefreshToken)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)

		require.NoError(t, p.SignOut(ctx, next.Tokens.RefreshToken))
		_, err = p.Refresh(ctx, next.Tokens.RefreshToken)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})

	t.Run("Unknown Token", func(t *testing.T) {
		_, err := p.Refresh(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})
}

func TestProvider_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Short Password", func(t *testing.T) {
		p, _ := newProvider(t)

		_, err := p.CreateUser(ctx, "op@inst.example", "short")

		assert.True(t, domain.IsValidation(err))
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		p, _ := newProvider(t)
		_, err := p.CreateUser(ctx, "op@inst.example", "Password123")
		require.NoError(t, err)

		_, err = p.CreateUser(ctx, "op@inst.example", "Password456")

		assert.True(t, domain.IsConflict(err))
	})

	t.Run("Delete Revokes Sessions", func(t *testing.T) {
		p, stores := newProvider(t)
		account := seedAccount(t, p, stores, "op@inst.example", true)
		session, err := p.SignIn(ctx, domain.LoginInput{Email: "op@inst.example", Password: "Password123"}, domain.Actor{})
		require.NoError(t, err)

		require.NoError(t, p.DeleteUser(ctx, account.IdentityID))

		assert.Zero(t, stores.Identities.Len())
		_, err = p.Refresh(ctx, session.Tokens.RefreshToken)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})
}

func TestProvider_ValidateAccessToken(t *testing.T) {
	p, _ := newProvider(t)

	_, err := p.ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	other := identity.NewProvider(nil, nil, nil, &config.Config{JWTSecret: "other-secret"}, zap.NewNop())
	_, err = other.ValidateAccessToken("eyJhbGciOiJIUzI1NiJ9.e30.ZRrHA1JJJW8opsbCGfG_HACGpVUMN_a9IV7pAx_Zmeo")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestProvider_SessionStoreFailures(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{JWTSecret: "test-secret", JWTAccessExpiry: time.Minute, JWTRefreshExpiry: time.Hour}
	stores := memstore.New()

	t.Run("Refresh Lookup Fails", func(t *testing.T) {
		sessions := new(mocks.SessionRepository)
		sessions.On("GetByTokenHash", ctx, mock.Anything).Return(nil, errors.New("connection refused")).Once()
		p := identity.NewProvider(stores.Identities, stores.Users, sessions, cfg, zap.NewNop())

		_, err := p.Refresh(ctx, "refresh-token")

		assert.True(t, domain.IsRemoteUnavailable(err))
		sessions.AssertExpectations(t)
	})

	t.Run("Sign Out Of Unknown Session", func(t *testing.T) {
		sessions := new(mocks.SessionRepository)
		sessions.On("GetByTokenHash", ctx, mock.Anything).Return(nil, nil).Once()
		p := identity.NewProvider(stores.Identities, stores.Users, sessions, cfg, zap.NewNop())

		assert.NoError(t, p.SignOut(ctx, "refresh-token"))
		sessions.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
	})

	t.Run("Sign Out Revoke Fails", func(t *testing.T) {
		session := &repository.Session{ID: uuid.New(), IdentityID: uuid.New()}
		sessions := new(mocks.SessionRepository)
		sessions.On("GetByTokenHash", ctx, mock.Anything).Return(session, nil).Once()
		sessions.On("Revoke", ctx, session.ID).Return(errors.New("connection refused")).Once()
		p := identity.NewProvider(stores.Identities, stores.Users, sessions, cfg, zap.NewNop())

		err := p.SignOut(ctx, "refresh-token")

		assert.True(t, domain.IsRemoteUnavailable(err))
		sessions.AssertExpectations(t)
	})
}
