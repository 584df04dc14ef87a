package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/piala/internal/config"
	"github.com/example/piala/internal/utils"
)

const adminContextKey = "currentAdminLogin"

// AuthMiddleware validates JWT tokens and loads the authenticated admin login
// into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		login, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(adminContextKey, login)
		return c.Next()
	}
}

// GetAdminLogin extracts the authenticated admin login from context.
func GetAdminLogin(c *fiber.Ctx) (string, bool) {
	value := c.Locals(adminContextKey)
	if value == nil {
		return "", false
	}

	if login, ok := value.(string); ok {
		return login, true
	}

	return "", false
}
