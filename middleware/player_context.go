// middleware/player_context.go
package middleware

import (
	"log"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
)

// PlayerContextMiddleware extracts the caller's wallet address from the
// X-Player-Address header, validates it, and attaches the lowercase form for
// handlers. Secured routes reject requests without one; public routes still
// pick it up when present so listings can be viewer-aware.
func PlayerContextMiddleware(required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := strings.TrimSpace(c.Get("X-Player-Address"))

		if address == "" {
			if required {
				log.Printf("❌ [PLAYER_CTX] X-Player-Address required but missing: %s", c.Path())
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "missing X-Player-Address header",
				})
			}
			return c.Next()
		}

		if !common.IsHexAddress(address) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid wallet address",
			})
		}

		c.Locals("player", strings.ToLower(address))
		return c.Next()
	}
}
