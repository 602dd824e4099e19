package handlers

import (
	"log"

	"hunter-season-system/apperr"
	"hunter-season-system/models"
	"hunter-season-system/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
)

func SetupCollectionRoutes(r Routes, collections *services.CollectionService) {
	r.Public.Get("/collections", func(c *fiber.Ctx) error {
		list, err := collections.List(c.UserContext())
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(list)
	})

	r.Public.Get("/collections/slug/:slug", func(c *fiber.Ctx) error {
		col, err := collections.GetBySlug(c.UserContext(), c.Params("slug"))
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(col)
	})

	r.Public.Get("/collections/:id", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		col, err := collections.GetCollection(c.UserContext(), id)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(col)
	})

	r.Public.Get("/collections/:id/active", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		active, err := collections.IsActive(c.UserContext(), id)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"id": id, "active": active})
	})

	r.Public.Get("/collections/:id/kind", func(c *fiber.Ctx) error {
		id, err := uintParam(c, "id")
		if err != nil {
			return apperr.Respond(c, err)
		}
		kind, err := collections.GetKind(c.UserContext(), id)
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.JSON(fiber.Map{"id": id, "kind": kind})
	})

	r.Operator.Post("/collections", func(c *fiber.Ctx) error {
		var body struct {
			Name          string           `json:"name"`
			TokenContract common.Address   `json:"token_contract"`
			Creator       common.Address   `json:"creator"`
			Kind          models.TokenKind `json:"kind"`
			Collectable   bool             `json:"collectable"`
		}
		if err := parseBody(c, &body); err != nil {
			return apperr.Respond(c, err)
		}
		col, err := collections.Register(c.UserContext(), services.RegisterCollectionInput{
			Name:          body.Name,
			TokenContract: body.TokenContract,
			Creator:       body.Creator,
			Kind:          body.Kind,
			Collectable:   body.Collectable,
		})
		if err != nil {
			return apperr.Respond(c, err)
		}
		log.Printf("🗂️ [COLLECTION] %s registered collection %d (%s)", hunter(c).Hex(), col.ID, col.Slug)
		return c.Status(fiber.StatusCreated).JSON(col)
	})

	r.Operator.Put("/collections/:id/active", func(c *fiber.Ctx) error {
		var body struct {
			Active bool `json:"active"`
		}
		return updateCollection(c, &body, func(id uint64) error {
			return collections.SetActive(c.UserContext(), id, body.Active)
		})
	})

	r.Operator.Put("/collections/:id/collectable", func(c *fiber.Ctx) error {
		var body struct {
			Collectable bool `json:"collectable"`
		}
		return updateCollection(c, &body, func(id uint64) error {
			return collections.SetCollectable(c.UserContext(), id, body.Collectable)
		})
	})

	r.Operator.Put("/collections/:id/creator", func(c *fiber.Ctx) error {
		var body struct {
			Creator common.Address `json:"creator"`
		}
		return updateCollection(c, &body, func(id uint64) error {
			return collections.SetCreator(c.UserContext(), id, body.Creator)
		})
	})

	r.Operator.Put("/collections/:id/token-contract", func(c *fiber.Ctx) error {
		var body struct {
			TokenContract common.Address `json:"token_contract"`
		}
		return updateCollection(c, &body, func(id uint64) error {
			return collections.SetTokenContract(c.UserContext(), id, body.TokenContract)
		})
	})
}

// updateCollection parses ":id" and the body, then applies one setter.
func updateCollection(c *fiber.Ctx, body any, apply func(id uint64) error) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := parseBody(c, body); err != nil {
		return apperr.Respond(c, err)
	}
	if err := apply(id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "collection updated", "id": id})
}
