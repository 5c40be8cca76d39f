package service

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"citizen-registry/internal/config"
	"citizen-registry/internal/metrics"
	"citizen-registry/internal/pkg/refdata"
	"citizen-registry/internal/realtime"
	"citizen-registry/internal/repository"
	"citizen-registry/internal/service/accessrequest"
	"citizen-registry/internal/service/audit"
	"citizen-registry/internal/service/chat"
	"citizen-registry/internal/service/dashboard"
	"citizen-registry/internal/service/email"
	"citizen-registry/internal/service/identity"
	"citizen-registry/internal/service/incident"
	"citizen-registry/internal/service/media"
	"citizen-registry/internal/service/registration"
	"citizen-registry/internal/service/report"
	"citizen-registry/internal/service/stats"
	"citizen-registry/internal/service/user"
)

type Services struct {
	// Origin tags change events published by this process.
	Origin string

	Identity      identity.Provider
	User          user.Service
	Registration  registration.Service
	AccessRequest accessrequest.Service
	Incident      incident.Service
	Media         media.Service
	Email         email.Service
	Audit         audit.Service
	Dashboard     dashboard.Service
	Stats         *stats.Engine
	Chat          chat.Service
	Report        report.Service
	Refdata       *refdata.Store
	Notifier      realtime.Notifier
}

func NewServices(
	repos *repository.Repositories,
	redis *redis.Client,
	minioClient *minio.Client,
	feed realtime.Feed,
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
) (*Services, error) {
	refStore, err := refdata.Load(cfg.RefdataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}

	origin := uuid.NewString()
	statsEngine := stats.NewEngine(repos.Registration, repos.User, repos.AccessRequest, redis, logger.Named("stats"), m, stats.Options{
		Timeout:  cfg.StatsRefreshTimeout,
		CacheTTL: cfg.StatsCacheTTL,
	})
	notifier := realtime.NewNotifier(feed, statsEngine, origin, logger.Named("notifier"))

	emailService := email.NewService(cfg, logger.Named("email"))
	mediaService := media.NewService(minioClient, cfg)
	identityProvider := identity.NewProvider(repos.Identity, repos.User, repos.Session, cfg, logger.Named("identity"))
	provisioner := user.NewProvisioner(identityProvider, repos.User, logger.Named("provisioner"), m)

	userService := user.NewService(repos.User, repos.AuditLog, provisioner, mediaService, notifier, logger.Named("user"))
	registrationService := registration.NewService(
		repos.Registration,
		repos.AuditLog,
		mediaService,
		notifier,
		registration.NewCodeGenerator(nil),
		logger.Named("registration"),
		m,
	)
	accessRequestService := accessrequest.NewService(
		repos.AccessRequest,
		repos.Identity,
		repos.AuditLog,
		provisioner,
		emailService,
		notifier,
		logger.Named("access_request"),
		m,
		accessrequest.Options{AllowedDomain: cfg.AllowedEmailDomain},
	)
	incidentService := incident.NewService(repos.Incident, repos.AuditLog, mediaService, notifier, logger.Named("incident"), m)
	chatService := chat.NewService(&http.Client{}, chat.OptionsFromConfig(cfg), logger.Named("chat"))
	reportService := report.NewService(repos.Report, repos.Registration, logger.Named("report"))
	auditService := audit.NewService(repos.AuditLog)
	dashboardService := dashboard.NewService(statsEngine, repos.Registration, repos.AccessRequest, cfg.RecentLimit)

	return &Services{
		Origin:        origin,
		Identity:      identityProvider,
		User:          userService,
		Registration:  registrationService,
		AccessRequest: accessRequestService,
		Incident:      incidentService,
		Media:         mediaService,
		Email:         emailService,
		Audit:         auditService,
		Dashboard:     dashboardService,
		Stats:         statsEngine,
		Chat:          chatService,
		Report:        reportService,
		Refdata:       refStore,
		Notifier:      notifier,
	}, nil
}
