package middleware

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/example/piala/internal/config"
	"github.com/example/piala/internal/services"
)

type paymeRequestID struct {
	ID any `json:"id"`
}

// PaymeAuthMiddleware validates the provider's Basic credential before any
// method handling. On failure it answers with the protocol's authorization
// error envelope; nothing downstream runs.
func PaymeAuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if services.Authorize(c.Get("Authorization"), cfg.PaymeMerchantKey, cfg.PaymeTestKey) {
			return c.Next()
		}

		var reqID paymeRequestID
		_ = json.Unmarshal(c.Body(), &reqID)

		info := services.PaymeErrorInvalidAuthorization
		return c.JSON(fiber.Map{
			"id":     reqID.ID,
			"result": nil,
			"error": fiber.Map{
				"code":    info.Code,
				"message": info.Message,
				"data":    nil,
			},
		})
	}
}
