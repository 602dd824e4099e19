package handlers

import (
	"log"

	"hunter-season-system/apperr"
	"hunter-season-system/models"
	"hunter-season-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMonsterRoutes(r Routes, monsters *services.MonsterService) {
	// ?tier=normal|shadow narrows the list
	r.Public.Get("/monsters", func(c *fiber.Ctx) error {
		var filter *bool
		if c.Query("tier") != "" {
			isShadow := c.Query("tier") == models.MonsterTierShadow
			if !isShadow && c.Query("tier") != models.MonsterTierNormal {
				return apperr.Respond(c, apperr.Newf(apperr.CodeInvalidArgument, "unknown monster tier %q", c.Query("tier")))
			}
			filter = &isShadow
		}
		list, err := monsters.ListMonsters(c.UserContext(), filter)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(list)
	})

	r.Public.Get("/monsters/:id", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		m, err := monsters.GetMonster(c.UserContext(), id)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(m)
	})

	r.Public.Get("/monsters/:id/score", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		score, err := monsters.ScoreOf(c.UserContext(), id)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"id": id, "score": score})
	})

	r.Public.Get("/monster-tiers/:tier", func(c *fiber.Ctx) error {
		isShadow, err := tierParam(c)
		if err != nil {
			return apperr.Respond(c, err)
		}
		tier, err := monsters.GetTier(c.UserContext(), isShadow)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(tier)
	})

	r.Operator.Post("/monsters", func(c *fiber.Ctx) error {
		var body struct {
			Name     string      `json:"name"`
			Rank     models.Rank `json:"rank"`
			IsShadow bool        `json:"is_shadow"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		m, err := monsters.AddMonster(c.UserContext(), body.Name, body.Rank, body.IsShadow)
		if err != nil {
			return apperr.Respond(c, err)
		}
		log.Printf("👹 [MONSTER] added %s monster %d %q rank %s", models.MonsterTierName(m.IsShadow), m.ID, m.Name, m.Rank)
		return c.Status(fiber.StatusCreated).JSON(m)
	})

	r.Operator.Put("/monster-tiers/:tier/scores", func(c *fiber.Ctx) error {
		isShadow, err := tierParam(c)
		if err != nil {
			return apperr.Respond(c, err)
		}
		var body struct {
			Scores []uint64 `json:"scores"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		if err := monsters.SetScoreTable(c.UserContext(), isShadow, body.Scores); err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"message": "score table updated"})
	})

	r.Operator.Put("/monster-tiers/:tier/collection", func(c *fiber.Ctx) error {
		isShadow, err := tierParam(c)
		if err != nil {
			return apperr.Respond(c, err)
		}
		var body struct {
			CollectionID uint64 `json:"collection_id"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		if err := monsters.SetMonsterCollection(c.UserContext(), isShadow, body.CollectionID); err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"message": "monster collection updated"})
	})
}
