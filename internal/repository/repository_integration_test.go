//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/repository"
	"citizen-registry/internal/testutil/containers"
)

func citizen(code string) *domain.Registration {
	return &domain.Registration{
		ID:               uuid.New(),
		RegistrationCode: code,
		Kind:             domain.KindCitizen,
		FirstName:        "Amina",
		LastName:         "Bello",
		Gender:           "female",
		PhoneNumber:      "+2348012345678",
		Address:          "12 Marina Road",
		State:            "Lagos",
		LGA:              "Ikeja",
		Status:           domain.RegistrationPending,
	}
}

func approver(t *testing.T, repos *repository.Repositories) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	identity := &domain.Identity{ID: uuid.New(), Email: uuid.NewString() + "@police.gov.ng", PasswordHash: "x"}
	require.NoError(t, repos.Identity.Create(ctx, identity))
	account := &domain.UserAccount{
		ID:         uuid.New(),
		IdentityID: identity.ID,
		Email:      identity.Email,
		FullName:   "Approver",
		Role:       domain.RoleAdmin,
		IsActive:   true,
	}
	require.NoError(t, repos.User.Create(ctx, account))
	return account.ID
}

func TestRegistrationRepository(t *testing.T) {
	repos := repository.NewRepositories(containers.NewPostgres(t))
	ctx := context.Background()

	t.Run("Create And Get", func(t *testing.T) {
		reg := citizen("NG-CREATE")
		require.NoError(t, repos.Registration.Create(ctx, reg))
		assert.False(t, reg.CreatedAt.IsZero())

		got, err := repos.Registration.GetByID(ctx, reg.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "NG-CREATE", got.RegistrationCode)
		assert.Equal(t, domain.RegistrationPending, got.Status)
	})

	t.Run("Missing Row", func(t *testing.T) {
		got, err := repos.Registration.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Duplicate Code", func(t *testing.T) {
		require.NoError(t, repos.Registration.Create(ctx, citizen("NG-DUP")))
		err := repos.Registration.Create(ctx, citizen("NG-DUP"))
		require.Error(t, err)
		assert.True(t, repository.IsUniqueViolation(err, repository.RegistrationCodeConstraint))
	})

	t.Run("Stale Update", func(t *testing.T) {
		reg := citizen("NG-STALE")
		require.NoError(t, repos.Registration.Create(ctx, reg))
		loaded, err := repos.Registration.GetByID(ctx, reg.ID)
		require.NoError(t, err)
		seen := loaded.UpdatedAt

		notes := "first edit"
		loaded.Notes = &notes
		ok, err := repos.Registration.Update(ctx, loaded, &seen)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repos.Registration.Update(ctx, loaded, &seen)
		require.NoError(t, err)
		assert.False(t, ok)

		updated, _, err := repos.Registration.SetStatus(ctx, reg.ID, domain.RegistrationVerified, &seen)
		require.NoError(t, err)
		assert.Nil(t, updated)

		updated, previous, err := repos.Registration.SetStatus(ctx, reg.ID, domain.RegistrationVerified, nil)
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, domain.RegistrationPending, previous)
		assert.Equal(t, domain.RegistrationVerified, updated.Status)
		assert.Equal(t, "first edit", *updated.Notes)
	})

	t.Run("List And Count", func(t *testing.T) {
		flagged := citizen("CR-LIST")
		flagged.Kind = domain.KindSuspect
		flagged.FirstName = "Chinedu"
		flagged.Status = domain.RegistrationFlagged
		require.NoError(t, repos.Registration.Create(ctx, flagged))

		status := domain.RegistrationFlagged
		regs, err := repos.Registration.List(ctx, domain.RegistrationFilter{Status: &status, Query: "chined"})
		require.NoError(t, err)
		require.Len(t, regs, 1)
		assert.Equal(t, "CR-LIST", regs[0].RegistrationCode)

		n, err := repos.Registration.CountByStatus(ctx, &status)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		all, err := repos.Registration.CountByStatus(ctx, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, all, int64(4))
	})

	t.Run("Search Matches Full Name Literally", func(t *testing.T) {
		reg := citizen("NG-SEARCH")
		reg.FirstName = "Ngozi"
		reg.LastName = "Okafor"
		require.NoError(t, repos.Registration.Create(ctx, reg))

		regs, err := repos.Registration.List(ctx, domain.RegistrationFilter{Query: "ngozi okafor"})
		require.NoError(t, err)
		assert.Equal(t, []string{"NG-SEARCH"}, codes(regs))

		regs, err = repos.Registration.List(ctx, domain.RegistrationFilter{Query: "NG_SEARCH"})
		require.NoError(t, err)
		assert.Empty(t, regs)

		regs, err = repos.Registration.List(ctx, domain.RegistrationFilter{Query: "ok%or"})
		require.NoError(t, err)
		assert.Empty(t, regs)
	})

	t.Run("Created Between Is Half Open", func(t *testing.T) {
		reg := citizen("NG-RANGE")
		require.NoError(t, repos.Registration.Create(ctx, reg))

		regs, err := repos.Registration.ListCreatedBetween(ctx, reg.CreatedAt, reg.CreatedAt.Add(time.Microsecond), nil, nil)
		require.NoError(t, err)
		assert.Contains(t, codes(regs), "NG-RANGE")

		regs, err = repos.Registration.ListCreatedBetween(ctx, reg.CreatedAt.Add(-time.Hour), reg.CreatedAt, nil, nil)
		require.NoError(t, err)
		assert.NotContains(t, codes(regs), "NG-RANGE")
	})
}

func TestAccessRequestRepository(t *testing.T) {
	repos := repository.NewRepositories(containers.NewPostgres(t))
	ctx := context.Background()
	approverID := approver(t, repos)

	newRequest := func(email string) *domain.AccessRequest {
		return &domain.AccessRequest{ID: uuid.New(), Email: email, FullName: "Jane Doe", Status: domain.AccessPending}
	}

	t.Run("One Pending Per Email", func(t *testing.T) {
		require.NoError(t, repos.AccessRequest.Create(ctx, newRequest("jane@police.gov.ng")))

		pending, err := repos.AccessRequest.HasPending(ctx, "JANE@police.gov.ng")
		require.NoError(t, err)
		assert.True(t, pending)

		err = repos.AccessRequest.Create(ctx, newRequest("Jane@police.gov.ng"))
		require.Error(t, err)
		assert.True(t, repository.IsUniqueViolation(err, repository.PendingEmailIndex))
	})

	t.Run("Decide Once", func(t *testing.T) {
		req := newRequest("decide@police.gov.ng")
		require.NoError(t, repos.AccessRequest.Create(ctx, req))

		ok, err := repos.AccessRequest.Decide(ctx, req.ID, domain.AccessApproved, approverID, time.Now())
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repos.AccessRequest.Decide(ctx, req.ID, domain.AccessRejected, approverID, time.Now())
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repos.AccessRequest.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AccessApproved, got.Status)
		require.NotNil(t, got.ApprovedBy)
		assert.Equal(t, approverID, *got.ApprovedBy)

		// A decided request frees the email for a new one.
		require.NoError(t, repos.AccessRequest.Create(ctx, newRequest("decide@police.gov.ng")))
	})
}

func codes(regs []domain.Registration) []string {
	out := make([]string, 0, len(regs))
	for _, r := range regs {
		out = append(out, r.RegistrationCode)
	}
	return out
}
