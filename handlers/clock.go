package handlers

import (
	"log"

	"hunter-season-system/apperr"
	"hunter-season-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupClockRoutes(r Routes, clock *services.ClockService) {
	r.Public.Get("/clock", func(c *fiber.Ctx) error {
		ordinal, err := clock.CurrentOrdinal(c.UserContext())
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"ordinal": ordinal})
	})

	r.Controller.Post("/clock/advance", func(c *fiber.Ctx) error {
		var body struct {
			Blocks uint64 `json:"blocks"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		ordinal, err := clock.Advance(c.UserContext(), body.Blocks)
		if err != nil {
			return apperr.Respond(c, err)
		}
		log.Printf("⏱️ [CLOCK] %s advanced clock by %d to %d", hunter(c).Hex(), body.Blocks, ordinal)
		return c.JSON(fiber.Map{"ordinal": ordinal})
	})

	r.Controller.Post("/clock/sync", func(c *fiber.Ctx) error {
		var body struct {
			Height uint64 `json:"height"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		ordinal, moved, err := clock.Sync(c.UserContext(), body.Height)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"ordinal": ordinal, "moved": moved})
	})
}
