package handlers

import (
	"hunter-season-system/apperr"
	"hunter-season-system/models"
	"hunter-season-system/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
)

func SetupOperatorRoutes(r Routes, operators *services.OperatorService) {
	r.Master.Get("/operators", func(c *fiber.Ctx) error {
		ops, err := operators.ListOperators(c.UserContext())
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(ops)
	})

	r.Master.Post("/operators", func(c *fiber.Ctx) error {
		var body struct {
			Address common.Address `json:"address"`
			Role    models.Role    `json:"role"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		if err := operators.AddOperator(c.UserContext(), hunter(c), body.Address, body.Role); err != nil {
			return apperr.Respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"address": body.Address.Hex(), "role": body.Role})
	})

	r.Master.Delete("/operators/:address/:role", func(c *fiber.Ctx) error {
		addr, err := addressParam(c, "address")
		if err != nil {
			return apperr.Respond(c, err)
		}
		role := models.Role(c.Params("role"))
		if err := operators.RemoveOperator(c.UserContext(), hunter(c), addr, role); err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"message": "operator removed"})
	})
}
