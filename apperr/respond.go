package apperr

import "github.com/gofiber/fiber/v2"

// Respond writes err as {"error": <tag>, "reason": <text>} with the tag's status.
func Respond(c *fiber.Ctx, err error) error {
	e := From(err)
	body := fiber.Map{"error": string(e.Code)}
	if e.Reason != "" {
		body["reason"] = e.Reason
	}
	return c.Status(e.Code.HTTPStatus()).JSON(body)
}
