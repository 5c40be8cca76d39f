package accessrequest_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"citizen-registry/internal/config"
	"citizen-registry/internal/domain"
	"citizen-registry/internal/metrics"
	"citizen-registry/internal/mocks"
	"citizen-registry/internal/mocks/memstore"
	"citizen-registry/internal/service/accessrequest"
	"citizen-registry/internal/service/identity"
	"citizen-registry/internal/service/user"
)

var decidedAt = time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

type sandbox struct {
	svc      accessrequest.Service
	stores   *memstore.Stores
	provider identity.Provider
	notifier *mocks.Notifier
	admin    domain.Actor
}

func newSandbox(t *testing.T, allowedDomain string) *sandbox {
	t.Helper()
	stores := memstore.New()
	cfg := &config.Config{JWTSecret: "test-secret", JWTAccessExpiry: time.Minute, JWTRefreshExpiry: time.Hour}
	m := metrics.Noop()

	provider := identity.NewProvider(stores.Identities, stores.Users, stores.Sessions, cfg, zap.NewNop())
	provisioner := user.NewProvisioner(provider, stores.Users, zap.NewNop(), m)

	emailSvc := new(mocks.EmailService)
	emailSvc.On("SendAccessApproved", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	emailSvc.On("SendAccessRejected", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	notifier := &mocks.Notifier{}
	svc := accessrequest.NewService(stores.AccessRequests, stores.Identities, stores.AuditLogs, provisioner, emailSvc,
		notifier, zap.NewNop(), m, accessrequest.Options{
			AllowedDomain: allowedDomain,
			Now:           func() time.Time { return decidedAt },
		})

	adminID := uuid.New()
	return &sandbox{
		svc:      svc,
		stores:   stores,
		provider: provider,
		notifier: notifier,
		admin:    domain.Actor{UserID: &adminID},
	}
}

func (s *sandbox) submit(t *testing.T, email string) *domain.AccessRequest {
	t.Helper()
	req, err := s.svc.Submit(context.Background(), domain.AccessRequestInput{Email: email})
	require.NoError(t, err)
	return req
}

func TestAccessRequestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Fills Defaults", func(t *testing.T) {
		s := newSandbox(t, "")

		req, err := s.svc.Submit(ctx, domain.AccessRequestInput{Email: "  Jane.Doe@Inst.Example "})
		require.NoError(t, err)

		assert.Equal(t, "jane.doe@inst.example", req.Email)
		assert.Equal(t, "jane doe", req.FullName)
		assert.Equal(t, domain.DefaultAccessDepartment, *req.Department)
		assert.Equal(t, domain.DefaultAccessReason, *req.ReasonForAccess)
		assert.Equal(t, domain.AccessPending, req.Status)
		assert.Equal(t, 1, s.notifier.Count(domain.TableAccessRequests))
	})

	t.Run("One Pending Request Per Email", func(t *testing.T) {
		s := newSandbox(t, "")
		s.submit(t, "officer@inst.example")

		_, err := s.svc.Submit(ctx, domain.AccessRequestInput{Email: "OFFICER@inst.example"})

		assert.True(t, domain.IsValidation(err))
	})

	t.Run("Existing Account", func(t *testing.T) {
		s := newSandbox(t, "")
		_, err := s.provider.CreateUser(ctx, "officer@inst.example", "Password123")
		require.NoError(t, err)

		_, err = s.svc.Submit(ctx, domain.AccessRequestInput{Email: "officer@inst.example"})

		assert.True(t, domain.IsValidation(err))
	})

	t.Run("Domain Filter", func(t *testing.T) {
		s := newSandbox(t, "@inst.example")

		_, err := s.svc.Submit(ctx, domain.AccessRequestInput{Email: "someone@gmail.com"})
		assert.True(t, domain.IsValidation(err))

		_, err = s.svc.Submit(ctx, domain.AccessRequestInput{Email: "someone@inst.example"})
		assert.NoError(t, err)
	})

	t.Run("Invalid Email", func(t *testing.T) {
		s := newSandbox(t, "")

		_, err := s.svc.Submit(ctx, domain.AccessRequestInput{Email: "not-an-email"})

		assert.True(t, domain.IsValidation(err))
	})
}

func TestAccessRequestService_Approve(t *testing.T) {
	ctx := context.Background()
	input := domain.ApproveAccessRequestInput{TemporaryPassword: "TempPass123!"}

	t.Run("Creates One Viewer Account", func(t *testing.T) {
		s := newSandbox(t, "")
		req := s.submit(t, "officer@inst.example")

		account, err := s.svc.Approve(ctx, s.admin, req.ID, input)
		require.NoError(t, err)

		users := s.stores.Users.All()
		require.Len(t, users, 1)
		assert.Equal(t, account.ID, users[0].ID)
		assert.Equal(t, "officer@inst.example", users[0].Email)
		assert.Equal(t, domain.RoleViewer, users[0].Role)
		assert.True(t, users[0].IsActive)

		stored, err := s.svc.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AccessApproved, stored.Status)
		assert.Equal(t, *s.admin.UserID, *stored.ApprovedBy)
		assert.True(t, decidedAt.Equal(*stored.ApprovedAt))

		assert.Contains(t, s.stores.AuditLogs.Actions(), domain.AuditApproveAccess)
		assert.Equal(t, 1, s.notifier.Count(domain.TableUserProfiles))
	})

	t.Run("Approved User Can Sign In", func(t *testing.T) {
		s := newSandbox(t, "")
		req := s.submit(t, "officer@inst.example")
		_, err := s.svc.Approve(ctx, s.admin, req.ID, input)
		require.NoError(t, err)

		session, err := s.provider.SignIn(ctx, domain.LoginInput{Email: "officer@inst.example", Password: "TempPass123!"}, domain.Actor{})
		require.NoError(t, err)
		assert.NotEmpty(t, session.Tokens.AccessToken)
		assert.Equal(t, domain.RoleViewer, session.User.Role)
	})

	t.Run("Explicit Role", func(t *testing.T) {
		s := newSandbox(t, "")
		req := s.submit(t, "analyst@inst.example")
		role := domain.RoleAnalyst

		account, err := s.svc.Approve(ctx, s.admin, req.ID, domain.ApproveAccessRequestInput{TemporaryPassword: "TempPass123!", Role: &role})

		require.NoError(t, err)
		assert.Equal(t, domain.RoleAnalyst, account.Role)
	})

	t.Run("Account Write Failure Leaves Nothing Behind", func(t *testing.T) {
		s := newSandbox(t, "")
		req := s.submit(t, "officer@inst.example")
		s.stores.Users.CreateErr = errors.New("connection reset")

		account, err := s.svc.Approve(ctx, s.admin, req.ID, input)

		assert.Nil(t, account)
		assert.True(t, domain.IsRemoteUnavailable(err))
		assert.Empty(t, s.stores.Users.All())
		assert.Zero(t, s.stores.Identities.Len())

		stored, err := s.svc.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AccessPending, stored.Status)
	})

	t.Run("Status Write Failure Rolls Back Account", func(t *testing.T) {
		s := newSandbox(t, "")
		req := s.submit(t, "officer@inst.example")
		s.stores.AccessRequests.DecideErr = errors.New("deadlock detected")

		_, err := s.svc.Approve(ctx, s.admin, req.ID, input)

		assert.True(t, domain.IsRemoteUnavailable(err))
		assert.Empty(t, s.stores.Users.All())
		assert.Zero(t, s.stores.Identities.Len())

		s.stores.AccessRequests.DecideErr = nil
		stored, err := s.svc.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AccessPending, stored.Status)
	})

	t.Run("Already Decided", func(t *testing.T) {
		s := newSandbox(t, "")
		req := s.submit(t, "officer@inst.example")
		_, err := s.svc.Approve(ctx, s.admin, req.ID, input)
		require.NoError(t, err)

		_, err = s.svc.Approve(ctx, s.admin, req.ID, input)

		var nf *domain.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "already approved", nf.Reason)
		assert.Len(t, s.stores.Users.All(), 1)
	})

	t.Run("Concurrent Approvals Create One Account", func(t *testing.T) {
		s := newSandbox(t, "")
		req := s.submit(t, "officer@inst.example")

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = s.svc.Approve(ctx, s.admin, req.ID, input)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			}
		}
		assert.Equal(t, 1, succeeded)
		assert.Len(t, s.stores.Users.All(), 1)
		assert.Equal(t, 1, s.stores.Identities.Len())
	})

	t.Run("Short Password", func(t *testing.T) {
		s := newSandbox(t, "")
		req := s.submit(t, "officer@inst.example")

		_, err := s.svc.Approve(ctx, s.admin, req.ID, domain.ApproveAccessRequestInput{TemporaryPassword: "short"})

		assert.True(t, domain.IsValidation(err))
		assert.Zero(t, s.stores.Identities.Len())
	})

	t.Run("Requires Approver", func(t *testing.T) {
		s := newSandbox(t, "")
		req := s.submit(t, "officer@inst.example")

		_, err := s.svc.Approve(ctx, domain.Actor{}, req.ID, input)

		var forbidden *domain.ForbiddenError
		assert.True(t, errors.As(err, &forbidden))
	})

	t.Run("Unknown Request", func(t *testing.T) {
		s := newSandbox(t, "")

		_, err := s.svc.Approve(ctx, s.admin, uuid.New(), input)

		assert.True(t, domain.IsNotFound(err))
	})
}

func TestAccessRequestService_Reject(t *testing.T) {
	ctx := context.Background()

	t.Run("Records Decision Without Account", func(t *testing.T) {
		s := newSandbox(t, "")
		req := s.submit(t, "officer@inst.example")

		got, err := s.svc.Reject(ctx, s.admin, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AccessRejected, got.Status)

		assert.Empty(t, s.stores.Users.All())
		assert.Zero(t, s.stores.Identities.Len())

		stored, err := s.svc.Get(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AccessRejected, stored.Status)
		require.NotNil(t, stored.ApprovedBy)
		assert.Equal(t, *s.admin.UserID, *stored.ApprovedBy)
		require.NotNil(t, stored.ApprovedAt)
		assert.True(t, decidedAt.Equal(*stored.ApprovedAt))
		assert.Contains(t, s.stores.AuditLogs.Actions(), domain.AuditRejectAccess)
	})

	t.Run("Cannot Approve After Reject", func(t *testing.T) {
		s := newSandbox(t, "")
		req := s.submit(t, "officer@inst.example")
		_, err := s.svc.Reject(ctx, s.admin, req.ID)
		require.NoError(t, err)

		_, err = s.svc.Approve(ctx, s.admin, req.ID, domain.ApproveAccessRequestInput{TemporaryPassword: "TempPass123!"})

		assert.True(t, domain.IsNotFound(err))
		assert.Empty(t, s.stores.Users.All())
	})

	t.Run("Lost Race Is Not Found", func(t *testing.T) {
		accessRepo := new(mocks.AccessRequestRepository)
		svc := accessrequest.NewService(accessRepo, new(mocks.IdentityRepository), new(mocks.AuditLogRepository),
			new(mocks.Provisioner), new(mocks.EmailService), &mocks.Notifier{}, zap.NewNop(), metrics.Noop(), accessrequest.Options{})
		id := uuid.New()
		adminID := uuid.New()

		accessRepo.On("GetByID", ctx, id).Return(&domain.AccessRequest{ID: id, Status: domain.AccessPending}, nil).Once()
		accessRepo.On("Decide", ctx, id, domain.AccessRejected, adminID, mock.AnythingOfType("time.Time")).Return(false, nil).Once()

		_, err := svc.Reject(ctx, domain.Actor{UserID: &adminID}, id)

		var nf *domain.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "no longer pending", nf.Reason)
		accessRepo.AssertExpectations(t)
	})
}

func TestAccessRequestService_ApproveCompensation(t *testing.T) {
	ctx := context.Background()
	accessRepo := new(mocks.AccessRequestRepository)
	provisioner := new(mocks.Provisioner)
	svc := accessrequest.NewService(accessRepo, new(mocks.IdentityRepository), new(mocks.AuditLogRepository),
		provisioner, new(mocks.EmailService), &mocks.Notifier{}, zap.NewNop(), metrics.Noop(), accessrequest.Options{})
	id := uuid.New()
	adminID := uuid.New()

	accessRepo.On("GetByID", ctx, id).Return(&domain.AccessRequest{ID: id, Email: "officer@inst.example", Status: domain.AccessPending}, nil).Once()
	provisioner.On("Provision", ctx, mock.AnythingOfType("*domain.UserAccount"), "TempPass123!").Return(nil).Once()
	accessRepo.On("Decide", ctx, id, domain.AccessApproved, adminID, mock.AnythingOfType("time.Time")).Return(false, nil).Once()
	provisioner.On("Deprovision", ctx, mock.AnythingOfType("*domain.UserAccount")).Return(errors.New("identity store down")).Once()

	account, err := svc.Approve(ctx, domain.Actor{UserID: &adminID}, id, domain.ApproveAccessRequestInput{TemporaryPassword: "TempPass123!"})

	assert.Nil(t, account)
	assert.True(t, domain.IsNotFound(err))
	provisioner.AssertExpectations(t)
	accessRepo.AssertExpectations(t)
}

func TestAccessRequestService_List(t *testing.T) {
	ctx := context.Background()
	s := newSandbox(t, "")
	first := s.submit(t, "a@inst.example")
	s.submit(t, "b@inst.example")
	_, err := s.svc.Reject(ctx, s.admin, first.ID)
	require.NoError(t, err)

	pending := domain.AccessPending
	page, err := s.svc.List(ctx, &pending, domain.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "b@inst.example", page.Data[0].Email)

	all, err := s.svc.List(ctx, nil, domain.PaginationParams{})
	require.NoError(t, err)
	assert.Len(t, all.Data, 2)

	bogus := domain.AccessRequestStatus("archived")
	_, err = s.svc.List(ctx, &bogus, domain.PaginationParams{})
	assert.True(t, domain.IsValidation(err))
}
