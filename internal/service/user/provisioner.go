package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/metrics"
	"citizen-registry/internal/repository"
	"citizen-registry/internal/service/identity"
)

// Provisioner creates an identity and its bound user account as one unit.
// Either both exist afterwards or neither does.
type Provisioner interface {
	Provision(ctx context.Context, account *domain.UserAccount, password string) error
	Deprovision(ctx context.Context, account *domain.UserAccount) error
}

type provisioner struct {
	provider identity.Provider
	userRepo repository.UserRepository
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewProvisioner(provider identity.Provider, userRepo repository.UserRepository, logger *zap.Logger, m *metrics.Metrics) Provisioner {
	return &provisioner{provider: provider, userRepo: userRepo, logger: logger, metrics: m}
}

// Provision fills account.ID and account.IdentityID on success.
func (p *provisioner) Provision(ctx context.Context, account *domain.UserAccount, password string) error {
	created, err := p.provider.CreateUser(ctx, account.Email, password)
	if err != nil {
		return err
	}

	account.ID = uuid.New()
	account.IdentityID = created.ID
	account.Email = created.Email
	if err := p.userRepo.Create(ctx, account); err != nil {
		p.deleteIdentity(ctx, created.ID)
		account.ID = uuid.Nil
		account.IdentityID = uuid.Nil
		if repository.IsUniqueViolation(err, "") {
			return &domain.ConflictError{Message: "an account with this email already exists"}
		}
		return domain.NewRemoteUnavailable("create user account", err)
	}
	return nil
}

// Deprovision removes the account and then its identity. Each failed step is
// logged and counted, and the joined error is returned.
func (p *provisioner) Deprovision(ctx context.Context, account *domain.UserAccount) error {
	var errs []error
	if err := p.userRepo.Delete(ctx, account.ID); err != nil {
		p.compensationFailed("delete user account", account.IdentityID, err)
		errs = append(errs, err)
	}
	if err := p.provider.DeleteUser(ctx, account.IdentityID); err != nil {
		p.compensationFailed("delete identity", account.IdentityID, err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (p *provisioner) deleteIdentity(ctx context.Context, identityID uuid.UUID) {
	if err := p.provider.DeleteUser(ctx, identityID); err != nil {
		p.compensationFailed("delete identity", identityID, err)
	}
}

func (p *provisioner) compensationFailed(step string, identityID uuid.UUID, err error) {
	p.logger.Error("provisioning compensation failed",
		zap.String("step", step),
		zap.String("identity_id", identityID.String()),
		zap.Error(err),
	)
	p.metrics.CompensationFailures.Inc()
}
