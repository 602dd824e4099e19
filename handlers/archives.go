package handlers

import (
	"hunter-season-system/apperr"
	"hunter-season-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupArchiveRoutes(r Routes, archives *services.ArchiveService) {
	r.Public.Get("/archives", func(c *fiber.Ctx) error {
		list, err := archives.ListArchives(c.UserContext())
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(list)
	})

	r.Operator.Get("/archives/pending", func(c *fiber.Ctx) error {
		seasons, err := archives.PendingSeasons(c.UserContext())
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(seasons)
	})

	// Re-exports a season on demand, replacing any earlier archive.
	r.Operator.Post("/archives/:id", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		archive, err := archives.ArchiveSeason(c.UserContext(), id)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(archive)
	})
}
