package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"citizen-registry/internal/domain"
)

const (
	ipContextKey        = "client_ip"
	userAgentContextKey = "user_agent"
)

// RequestInfo records the client IP (honouring Cloudflare and proxy headers)
// and User-Agent for audit logging.
func RequestInfo() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.Get("CF-Connecting-IP")
		if ip == "" {
			if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
				ip = strings.TrimSpace(strings.Split(fwd, ",")[0])
			}
		}
		if ip == "" {
			ip = c.IP()
		}

		c.Locals(ipContextKey, ip)
		c.Locals(userAgentContextKey, c.Get(fiber.HeaderUserAgent))
		return c.Next()
	}
}

func GetIPFromContext(c *fiber.Ctx) string {
	ip, _ := c.Locals(ipContextKey).(string)
	return ip
}

func GetUserAgentFromContext(c *fiber.Ctx) string {
	ua, _ := c.Locals(userAgentContextKey).(string)
	return ua
}

// Actor describes the caller for audit logging. UserID is nil for anonymous
// requests.
func Actor(c *fiber.Ctx) domain.Actor {
	var actor domain.Actor
	if user := GetCurrentUser(c); user != nil {
		id := user.ID
		actor.UserID = &id
	}
	if ip := GetIPFromContext(c); ip != "" {
		actor.IPAddress = &ip
	}
	if ua := GetUserAgentFromContext(c); ua != "" {
		actor.UserAgent = &ua
	}
	return actor
}
