package handlers

import (
	"context"

	"hunter-season-system/apperr"
	"hunter-season-system/models"
	"hunter-season-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGateRoutes(r Routes, gates *services.GateService) {
	r.Public.Get("/gates/config", func(c *fiber.Ctx) error {
		cfg, err := gates.GetGateConfig(c.UserContext())
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(cfg)
	})

	r.Public.Get("/gates/:id", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		gate, err := gates.GetGate(c.UserContext(), id)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(gate)
	})

	r.Public.Get("/gates/:id/status", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		status, err := gates.GetGateStatus(c.UserContext(), id)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(status)
	})

	r.Public.Get("/seasons/:id/hunters/:address/slot", func(c *fiber.Ctx) error {
		id, addr, err := seasonAndAddress(c)
		if err != nil {
			return apperr.Respond(c, err)
		}
		slot, err := gates.GetHunterSlot(c.UserContext(), id, addr)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(slot)
	})

	// 🔐 Hunter routes
	r.Hunter.Post("/seasons/:id/gates", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		var body struct {
			GateRank models.Rank `json:"gate_rank"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		result, err := gates.EnterToGate(c.UserContext(), id, hunter(c), body.GateRank)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	})

	r.Hunter.Get("/seasons/:id/gates", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		list, err := gates.ListHunterGates(c.UserContext(), id, hunter(c))
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(list)
	})

	r.Hunter.Get("/seasons/:id/slot", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		using, err := gates.GetHunterUsingSlot(c.UserContext(), id, hunter(c))
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"season_id": id, "using_slot": using})
	})

	r.Hunter.Get("/gates/open", func(c *fiber.Ctx) error {
		ids, err := gates.GetGateIDOfHunterSlot(c.UserContext(), hunter(c))
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"gate_ids": ids})
	})

	// 🛠️ Operator routes, each replaces one table
	r.Operator.Put("/gates/slots", gateTable(gates.SetSlotPerHunterRank))
	r.Operator.Put("/gates/required-counts", gateTable(gates.SetRequiredGateCountForRankUp))
	r.Operator.Put("/gates/blocks", gateTable(gates.SetGateBlockPerRank))
}

// gateTable replaces one per-rank gate table from {"values": [...]}.
func gateTable(set func(ctx context.Context, values []uint64) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Values []uint64 `json:"values"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		if err := set(c.UserContext(), body.Values); err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"message": "gate table updated"})
	}
}
