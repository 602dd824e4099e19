package handlers

import (
	"log"

	"hunter-season-system/apperr"
	"hunter-season-system/models"
	"hunter-season-system/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
)

func SetupSettlementRoutes(r Routes, settlement *services.SettlementService) {
	r.Public.Get("/settlement/config", func(c *fiber.Ctx) error {
		cfg, err := settlement.GetSettlementConfig(c.UserContext())
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(cfg)
	})

	r.Public.Get("/settlement/rate", func(c *fiber.Ctx) error {
		rate, err := settlement.GetScoreRate(c.UserContext())
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(rate)
	})

	r.Public.Get("/seasons/:id/report", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		report, err := settlement.SeasonReport(c.UserContext(), id)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"season_id": id, "hunters": report})
	})

	// 🔐 Hunter routes
	r.Hunter.Get("/seasons/:id/score", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		score, err := settlement.GetCurrentSeasonScore(c.UserContext(), id, hunter(c))
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(score)
	})

	r.Hunter.Get("/seasons/:id/final-score", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		score, err := settlement.GetEndedSeasonScore(c.UserContext(), id, hunter(c))
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(score)
	})

	r.Hunter.Post("/seasons/:id/claim", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		claim, err := settlement.ClaimSeasonReward(c.UserContext(), id, hunter(c))
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(claim)
	})

	r.Hunter.Get("/seasons/:id/claim", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		claim, err := settlement.GetSeasonClaim(c.UserContext(), id, hunter(c))
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(claim)
	})

	// 🎯 Controller confirms quest results
	r.Controller.Post("/quests", func(c *fiber.Ctx) error {
		var body struct {
			SeasonID uint64         `json:"season_id"`
			Hunter   common.Address `json:"hunter"`
			QuestID  string         `json:"quest_id"`
			Score    uint64         `json:"score"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		qc, err := settlement.RecordQuestCompletion(c.UserContext(), body.SeasonID, body.Hunter, body.QuestID, body.Score)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(qc)
	})

	// 🛠️ Operator routes
	r.Operator.Put("/settlement/rate", func(c *fiber.Ctx) error {
		var body struct {
			Quest      uint64 `json:"quest"`
			Activity   uint64 `json:"activity"`
			Collecting uint64 `json:"collecting"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		if err := settlement.SetScoreRate(c.UserContext(), body.Quest, body.Activity, body.Collecting); err != nil {
			return apperr.Respond(c, err)
		}
		log.Printf("⚖️ [SETTLEMENT] %s set score rate %d/%d/%d", hunter(c).Hex(), body.Quest, body.Activity, body.Collecting)
		return c.JSON(fiber.Map{"message": "score rate updated"})
	})

	r.Operator.Put("/settlement/score-per-gate", func(c *fiber.Ctx) error {
		var body struct {
			Value uint64 `json:"value"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		if err := settlement.SetScorePerGate(c.UserContext(), body.Value); err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"message": "score per gate updated"})
	})

	r.Operator.Put("/settlement/reward-collections", func(c *fiber.Ctx) error {
		var body struct {
			SeasonScoreCollectionID    uint64 `json:"season_score_collection_id"`
			LegendarySceneCollectionID uint64 `json:"legendary_scene_collection_id"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		if err := settlement.SetRewardCollections(c.UserContext(), body.SeasonScoreCollectionID, body.LegendarySceneCollectionID); err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"message": "reward collections updated"})
	})

	r.Operator.Put("/settlement/rank-floor", func(c *fiber.Ctx) error {
		var body struct {
			Rank models.Rank `json:"rank"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		if err := settlement.SetRewardRankFloor(c.UserContext(), body.Rank); err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"message": "reward rank floor updated"})
	})
}
