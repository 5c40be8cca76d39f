package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/repository"
)

// StatsSource is the read side of the stats engine.
type StatsSource interface {
	Snapshot() domain.Stats
}

type Service interface {
	Overview(ctx context.Context) (*domain.DashboardOverview, error)
}

type service struct {
	stats       StatsSource
	regRepo     repository.RegistrationRepository
	accessRepo  repository.AccessRequestRepository
	recentLimit int
}

func NewService(stats StatsSource, regRepo repository.RegistrationRepository, accessRepo repository.AccessRequestRepository, recentLimit int) Service {
	if recentLimit < 1 {
		recentLimit = 5
	}
	return &service{
		stats:       stats,
		regRepo:     regRepo,
		accessRepo:  accessRepo,
		recentLimit: recentLimit,
	}
}

func (s *service) Overview(ctx context.Context) (*domain.DashboardOverview, error) {
	overview := &domain.DashboardOverview{Stats: s.stats.Snapshot()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		regs, err := s.regRepo.List(gctx, domain.RegistrationFilter{Limit: s.recentLimit})
		if err != nil {
			return err
		}
		overview.RecentRegistrations = regs
		return nil
	})
	g.Go(func() error {
		reqs, err := s.accessRepo.ListRecent(gctx, s.recentLimit)
		if err != nil {
			return err
		}
		overview.RecentAccessRequests = reqs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, domain.NewRemoteUnavailable("load dashboard overview", err)
	}

	if overview.RecentRegistrations == nil {
		overview.RecentRegistrations = []domain.Registration{}
	}
	if overview.RecentAccessRequests == nil {
		overview.RecentAccessRequests = []domain.AccessRequest{}
	}
	return overview, nil
}
