package handlers

import (
	"log"

	"hunter-season-system/apperr"
	"hunter-season-system/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
)

func SetupSeasonRoutes(r Routes, seasons *services.SeasonService) {
	// 🔓 Public reads. Static paths go before ":id".
	r.Public.Get("/seasons", func(c *fiber.Ctx) error {
		list, err := seasons.ListSeasons(c.UserContext())
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(list)
	})

	r.Public.Get("/seasons/current", func(c *fiber.Ctx) error {
		season, err := seasons.GetCurrentSeason(c.UserContext())
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(season)
	})

	r.Public.Get("/seasons/length", func(c *fiber.Ctx) error {
		n, err := seasons.GetSeasonLength(c.UserContext())
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"length": n})
	})

	r.Public.Get("/seasons/rank-up-requirements", func(c *fiber.Ctx) error {
		cfg, err := seasons.GetRequiredMonsterForRankUp(c.UserContext())
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(cfg)
	})

	r.Public.Get("/seasons/:id", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		season, err := seasons.GetSeasonByID(c.UserContext(), id)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(season)
	})

	r.Public.Get("/seasons/:id/status", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		status, err := seasons.GetSeasonStatus(c.UserContext(), id)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(status)
	})

	r.Public.Get("/seasons/:id/hunters/:address/rank", func(c *fiber.Ctx) error {
		id, addr, err := seasonAndAddress(c)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return respondRank(c, seasons, id, addr)
	})

	// 🔐 Hunter routes, caller is the hunter
	r.Hunter.Post("/seasons/:id/rank-up", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		var in services.RankUpInput
		if err := parseBody(c, &in); err != nil {
			return apperr.Respond(c, err)
		}
		in.SeasonID = id
		in.Hunter = hunter(c)

		result, err := seasons.RankUp(c.UserContext(), in)
		if err != nil {
			log.Printf("❌ [RANK_UP] %s season %d -> %s failed: %v", in.Hunter.Hex(), id, in.TargetRank, err)
			return apperr.Respond(c, err)
		}
		return c.JSON(result)
	})

	r.Hunter.Get("/seasons/:id/rank", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		return respondRank(c, seasons, id, hunter(c))
	})

	r.Hunter.Get("/seasons/:id/rank-ups", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		burns, err := seasons.GetRankUpHistory(c.UserContext(), id, hunter(c))
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(burns)
	})

	// 🛠️ Operator routes
	r.Operator.Post("/seasons", func(c *fiber.Ctx) error {
		var in services.AddSeasonInput
		if err := parseBody(c, &in); err != nil {
			return apperr.Respond(c, err)
		}
		season, err := seasons.AddSeason(c.UserContext(), in)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(season)
	})

	r.Operator.Put("/seasons/:id/collections", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		var body struct {
			HunterRankCollectionID uint64   `json:"hunter_rank_collection_id"`
			SeasonPackCollectionID uint64   `json:"season_pack_collection_id"`
			CollectionIDs          []uint64 `json:"season_collection_ids"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		if err := seasons.SetSeasonCollection(c.UserContext(), id, body.HunterRankCollectionID, body.SeasonPackCollectionID, body.CollectionIDs); err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"message": "season collections updated", "id": id})
	})

	r.Operator.Put("/seasons/:id/blocks", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		var body struct {
			StartBlock uint64 `json:"start_block"`
			EndBlock   uint64 `json:"end_block"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		if err := seasons.SetSeasonBlock(c.UserContext(), id, body.StartBlock, body.EndBlock); err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"message": "season blocks updated", "id": id})
	})

	r.Operator.Put("/rank-up-requirements", func(c *fiber.Ctx) error {
		var body struct {
			Normal []uint64 `json:"normal"`
			Shadow []uint64 `json:"shadow"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		if err := seasons.SetRequiredMonsterForRankUp(c.UserContext(), body.Normal, body.Shadow); err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"message": "rank-up requirements updated"})
	})
}

func seasonAndAddress(c *fiber.Ctx) (uint64, common.Address, error) {
	id, err := uintParam(c, "id")
	if err != nil {
		return 0, common.Address{}, err
	}
	addr, err := addressParam(c, "address")
	if err != nil {
		return 0, common.Address{}, err
	}
	return id, addr, nil
}

func respondRank(c *fiber.Ctx, seasons *services.SeasonService, seasonID uint64, addr common.Address) error {
	rank, err := seasons.GetHunterRank(c.UserContext(), seasonID, addr)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"season_id": seasonID, "hunter": addr.Hex(), "rank": rank})
}
