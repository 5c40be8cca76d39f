package dashboard_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/mocks"
	"citizen-registry/internal/mocks/memstore"
	"citizen-registry/internal/service/dashboard"
)

type fixedStats domain.Stats

func (s fixedStats) Snapshot() domain.Stats { return domain.Stats(s) }

func TestDashboardService_Overview(t *testing.T) {
	ctx := context.Background()

	t.Run("Recent Items Newest First", func(t *testing.T) {
		stores := memstore.New()
		for i := 0; i < 4; i++ {
			id := uuid.New()
			require.NoError(t, stores.Registrations.Create(ctx, &domain.Registration{ID: id, RegistrationCode: id.String(), FirstName: string(rune('A' + i))}))
		}
		require.NoError(t, stores.AccessRequests.Create(ctx, &domain.AccessRequest{ID: uuid.New(), Email: "a@inst.example", Status: domain.AccessPending}))

		svc := dashboard.NewService(fixedStats{TotalRegistrations: 4}, stores.Registrations, stores.AccessRequests, 3)
		overview, err := svc.Overview(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(4), overview.Stats.TotalRegistrations)
		require.Len(t, overview.RecentRegistrations, 3)
		assert.Equal(t, "D", overview.RecentRegistrations[0].FirstName)
		assert.Len(t, overview.RecentAccessRequests, 1)
	})

	t.Run("Empty Lists Are Not Nil", func(t *testing.T) {
		stores := memstore.New()
		svc := dashboard.NewService(fixedStats{}, stores.Registrations, stores.AccessRequests, 0)

		overview, err := svc.Overview(ctx)

		require.NoError(t, err)
		assert.NotNil(t, overview.RecentRegistrations)
		assert.NotNil(t, overview.RecentAccessRequests)
	})

	t.Run("Store Failure", func(t *testing.T) {
		regRepo := new(mocks.RegistrationRepository)
		accessRepo := new(mocks.AccessRequestRepository)
		regRepo.On("List", mock.Anything, mock.Anything).Return(([]domain.Registration)(nil), errors.New("timeout"))
		accessRepo.On("ListRecent", mock.Anything, 5).Return([]domain.AccessRequest{}, nil)

		_, err := dashboard.NewService(fixedStats{}, regRepo, accessRepo, 0).Overview(ctx)

		assert.True(t, domain.IsRemoteUnavailable(err))
	})
}
