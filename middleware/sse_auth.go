// middleware/sse_auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
)

// SSEAuthMiddleware resolves the hunter for event-stream requests. Browsers
// cannot set headers on an EventSource, so the gateway may forward the address
// as the `address` query param instead of the hunter header.
//
// Usage:
//
//	app.Get("/hunter/events/stream", middleware.SSEAuthMiddleware(), eventService.StreamHunterEventsSSE)
func SSEAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := strings.TrimSpace(c.Get(AccountHeader))
		if address == "" {
			address = strings.TrimSpace(c.Query("address"))
		}

		if address == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing address",
			})
		}
		if !common.IsHexAddress(address) {
			log.Printf("[SSEAuth] ❌ invalid address %q", address)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid address",
			})
		}

		c.Locals("account", common.HexToAddress(address))
		log.Printf("[SSEAuth] ✅ stream opened for %s", address)
		return c.Next()
	}
}
