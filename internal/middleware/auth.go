package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/service/identity"
)

const (
	UserContextKey   = "user"
	UserIDContextKey = "user_id"
)

// AccountLookup resolves the user account bound to an identity.
type AccountLookup interface {
	GetByIdentity(ctx context.Context, identityID uuid.UUID) (*domain.UserAccount, error)
}

// Authenticate validates a bearer token and loads the active user account it
// belongs to.
func Authenticate(ctx context.Context, provider identity.Provider, accounts AccountLookup, token string) (*domain.UserAccount, error) {
	claims, err := provider.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	user, err := accounts.GetByIdentity(ctx, claims.IdentityID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, &domain.AuthError{Message: "user not found"}
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}
	return user, nil
}

func AuthRequired(provider identity.Provider, accounts AccountLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return err
		}

		user, err := Authenticate(c.Context(), provider, accounts, token)
		if err != nil {
			return err
		}

		c.Locals(UserContextKey, user)
		c.Locals(UserIDContextKey, user.ID)

		return c.Next()
	}
}

// OptionalAuth attaches the caller when a valid bearer token is present and
// lets anonymous requests through otherwise.
func OptionalAuth(provider identity.Provider, accounts AccountLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}

		token, err := bearerToken(c)
		if err != nil {
			return err
		}

		user, err := Authenticate(c.Context(), provider, accounts, token)
		if err != nil {
			return err
		}

		c.Locals(UserContextKey, user)
		c.Locals(UserIDContextKey, user.ID)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", Unauthorized("Missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", Unauthorized("Invalid authorization header format")
	}
	return parts[1], nil
}

func GetCurrentUser(c *fiber.Ctx) *domain.UserAccount {
	user, ok := c.Locals(UserContextKey).(*domain.UserAccount)
	if !ok {
		return nil
	}
	return user
}

func GetCurrentUserID(c *fiber.Ctx) uuid.UUID {
	userID, ok := c.Locals(UserIDContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}
