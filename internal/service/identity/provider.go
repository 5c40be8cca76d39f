// Package identity is the login identity provider: password identities,
// access tokens and refresh sessions.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"citizen-registry/internal/config"
	"citizen-registry/internal/domain"
	"citizen-registry/internal/repository"
)

const MinPasswordLength = 8

type Provider interface {
	SignIn(ctx context.Context, input domain.LoginInput, client domain.Actor) (*domain.Session, error)
	SignOut(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
	CreateUser(ctx context.Context, email, password string) (*domain.Identity, error)
	DeleteUser(ctx context.Context, identityID uuid.UUID) error
	ValidateAccessToken(token string) (*Claims, error)
	PurgeExpiredSessions(ctx context.Context) error
}

type Claims struct {
	IdentityID uuid.UUID `json:"identity_id"`
	Email      string    `json:"email"`
	jwt.RegisteredClaims
}

type provider struct {
	identityRepo repository.IdentityRepository
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	cfg          *config.Config
	logger       *zap.Logger
	now          func() time.Time
}

func NewProvider(
	identityRepo repository.IdentityRepository,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	cfg *config.Config,
	logger *zap.Logger,
) Provider {
	return &provider{
		identityRepo: identityRepo,
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (p *provider) SignIn(ctx context.Context, input domain.LoginInput, client domain.Actor) (*domain.Session, error) {
	identity, err := p.identityRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		return nil, domain.NewRemoteUnavailable("sign in", err)
	}
	if identity == nil {
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	account, err := p.activeAccount(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	tokens, err := p.generateTokenPair(ctx, identity, client)
	if err != nil {
		return nil, err
	}

	now := p.now().UTC()
	if err := p.userRepo.TouchLastLogin(ctx, identity.ID, now); err != nil {
		p.logger.Warn("failed to record last login", zap.String("identity_id", identity.ID.String()), zap.Error(err))
	} else {
		account.LastLogin = &now
	}

	return &domain.Session{IdentityID: identity.ID, User: account, Tokens: *tokens}, nil
}

func (p *provider) SignOut(ctx context.Context, refreshToken string) error {
	session, err := p.sessionRepo.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		return domain.NewRemoteUnavailable("sign out", err)
	}
	if session == nil {
		return nil
	}
	if err := p.sessionRepo.Revoke(ctx, session.ID); err != nil {
		return domain.NewRemoteUnavailable("sign out", err)
	}
	return nil
}

func (p *provider) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	session, err := p.sessionRepo.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, domain.NewRemoteUnavailable("refresh session", err)
	}
	if session == nil {
		return nil, domain.ErrInvalidToken
	}

	identity, err := p.identityRepo.GetByID(ctx, session.IdentityID)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("refresh session", err)
	}
	if identity == nil {
		return nil, domain.ErrInvalidToken
	}

	account, err := p.activeAccount(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	if err := p.sessionRepo.Revoke(ctx, session.ID); err != nil {
		return nil, domain.NewRemoteUnavailable("refresh session", err)
	}

	tokens, err := p.generateTokenPair(ctx, identity, domain.Actor{UserAgent: session.UserAgent, IPAddress: session.IPAddress})
	if err != nil {
		return nil, err
	}
	return &domain.Session{IdentityID: identity.ID, User: account, Tokens: *tokens}, nil
}

func (p *provider) CreateUser(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = strings.TrimSpace(email)
	if len(password) < MinPasswordLength {
		return nil, domain.NewFieldError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	exists, err := p.identityRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("create identity", err)
	}
	if exists {
		return nil, &domain.ConflictError{Message: "an account with this email already exists"}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	identity := &domain.Identity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := p.identityRepo.Create(ctx, identity); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, &domain.ConflictError{Message: "an account with this email already exists"}
		}
		return nil, domain.NewRemoteUnavailable("create identity", err)
	}
	return identity, nil
}

func (p *provider) DeleteUser(ctx context.Context, identityID uuid.UUID) error {
	if err := p.sessionRepo.RevokeAllForIdentity(ctx, identityID); err != nil {
		p.logger.Warn("failed to revoke sessions before identity removal", zap.String("identity_id", identityID.String()), zap.Error(err))
	}
	if err := p.identityRepo.Delete(ctx, identityID); err != nil {
		return domain.NewRemoteUnavailable("delete identity", err)
	}
	return nil
}

func (p *provider) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(p.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

func (p *provider) PurgeExpiredSessions(ctx context.Context) error {
	return p.sessionRepo.DeleteExpired(ctx)
}

func (p *provider) activeAccount(ctx context.Context, identityID uuid.UUID) (*domain.UserAccount, error) {
	account, err := p.userRepo.GetByIdentityID(ctx, identityID)
	if err != nil {
		return nil, domain.NewRemoteUnavailable("load account", err)
	}
	if account == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, domain.ErrAccountInactive
	}
	return account, nil
}

func (p *provider) generateTokenPair(ctx context.Context, identity *domain.Identity, client domain.Actor) (*domain.TokenPair, error) {
	now := p.now()
	accessClaims := &Claims{
		IdentityID: identity.ID,
		Email:      identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.JWTAccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   identity.ID.String(),
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(p.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	refreshTokenRaw := uuid.New().String()
	session := &repository.Session{
		ID:         uuid.New(),
		IdentityID: identity.ID,
		TokenHash:  hashToken(refreshTokenRaw),
		UserAgent:  client.UserAgent,
		IPAddress:  client.IPAddress,
		ExpiresAt:  now.Add(p.cfg.JWTRefreshExpiry),
	}
	if err := p.sessionRepo.Create(ctx, session); err != nil {
		return nil, domain.NewRemoteUnavailable("create session", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenRaw,
		ExpiresIn:    int64(p.cfg.JWTAccessExpiry.Seconds()),
	}, nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
