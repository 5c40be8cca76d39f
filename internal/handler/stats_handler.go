package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"citizen-registry/internal/domain"
	"citizen-registry/internal/middleware"
	"citizen-registry/internal/realtime"
	"citizen-registry/internal/service/identity"
)

type StatsEngine interface {
	Snapshot() domain.Stats
	Refresh(ctx context.Context) (domain.Stats, error)
}

type StatsHandler struct {
	engine   StatsEngine
	hub      *realtime.Hub
	provider identity.Provider
	accounts middleware.AccountLookup
}

func NewStatsHandler(engine StatsEngine, hub *realtime.Hub, provider identity.Provider, accounts middleware.AccountLookup) *StatsHandler {
	return &StatsHandler{engine: engine, hub: hub, provider: provider, accounts: accounts}
}

func (h *StatsHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.engine.Snapshot())
}

func (h *StatsHandler) Refresh(c *fiber.Ctx) error {
	stats, err := h.engine.Refresh(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// Upgrade authenticates the websocket handshake. Browsers cannot set headers
// on a websocket request, so the access token travels in the token query param.
func (h *StatsHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		return middleware.Unauthorized("Missing token")
	}

	user, err := middleware.Authenticate(c.Context(), h.provider, h.accounts, token)
	if err != nil {
		return err
	}

	c.Locals(middleware.UserContextKey, user)
	c.Locals("allowed", true)
	return c.Next()
}

func (h *StatsHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		h.hub.Serve(conn)
	})
}
