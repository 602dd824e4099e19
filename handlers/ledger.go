package handlers

import (
	"hunter-season-system/apperr"
	"hunter-season-system/models"
	"hunter-season-system/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
)

func SetupLedgerRoutes(r Routes, ledger *services.LedgerService) {
	r.Public.Get("/collections/:id/balances/:holder/:token_id", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		holder, err := addressParam(c, "holder")
		if err != nil {
			return apperr.Respond(c, err)
		}
		tokenID, err := uintParam(c, "token_id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		balance, err := ledger.BalanceOf(c.UserContext(), id, holder, tokenID)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"collection_id": id, "holder": holder.Hex(), "token_id": tokenID, "balance": balance})
	})

	r.Hunter.Get("/balances/:id/:token_id", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		tokenID, err := uintParam(c, "token_id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		balance, err := ledger.BalanceOf(c.UserContext(), id, hunter(c), tokenID)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"collection_id": id, "token_id": tokenID, "balance": balance})
	})

	// Deploys a contract owned by the calling controller.
	r.Controller.Post("/ledger/contracts", func(c *fiber.Ctx) error {
		var body struct {
			Kind models.TokenKind `json:"kind"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		handle, err := ledger.DeployContract(c.UserContext(), body.Kind, hunter(c))
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token_contract": handle.Hex(), "kind": body.Kind})
	})

	r.Controller.Post("/ledger/mint", func(c *fiber.Ctx) error {
		var body struct {
			CollectionID uint64         `json:"collection_id"`
			To           common.Address `json:"to"`
			TokenID      uint64         `json:"token_id"`
			Amount       uint64         `json:"amount"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		if err := ledger.MintTo(c.UserContext(), body.CollectionID, body.To, body.TokenID, body.Amount); err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"message": "minted"})
	})
}
