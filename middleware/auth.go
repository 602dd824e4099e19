// middleware/auth.go
package middleware

import (
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
)

// AccountHeader carries the caller's address, set by the Gateway after it
// authenticated the wallet.
const AccountHeader = "X-Hunter-Address"

// AccountContextMiddleware attaches the caller's address as Locals("account").
func AccountContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get(AccountHeader)
		if !common.IsHexAddress(raw) {
			log.Printf("❌ [HUNTER_CTX] %s missing or invalid on %s", AccountHeader, c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid " + AccountHeader + ", request must come through gateway",
			})
		}

		c.Locals("account", common.HexToAddress(raw))
		return c.Next()
	}
}

// Account returns the address attached by AccountContextMiddleware.
func Account(c *fiber.Ctx) common.Address {
	addr, _ := c.Locals("account").(common.Address)
	return addr
}
