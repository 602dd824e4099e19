package middleware

import (
	"context"

	"hunter-season-system/apperr"
	"hunter-season-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
)

// RoleChecker is satisfied by services.OperatorService.
type RoleChecker interface {
	IsMaster(addr common.Address) bool
	HasRole(ctx context.Context, addr common.Address, role models.Role) (bool, error)
}

// RequireOperator admits operators (and the operator master). Must run after AccountContextMiddleware.
func RequireOperator(roles RoleChecker) fiber.Handler {
	return requireRole(roles, models.RoleOperator, apperr.CodeOnlyOperator)
}

func RequireController(roles RoleChecker) fiber.Handler {
	return requireRole(roles, models.RoleController, apperr.CodeOnlyController)
}

func RequireOperatorMaster(roles RoleChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !roles.IsMaster(Account(c)) {
			return apperr.Respond(c, apperr.New(apperr.CodeOnlyOperatorMaster, Account(c).Hex()))
		}
		return c.Next()
	}
}

func requireRole(roles RoleChecker, role models.Role, code apperr.Code) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := roles.HasRole(c.UserContext(), Account(c), role)
		if err != nil {
			return apperr.Respond(c, err)
		}
		if !ok {
			return apperr.Respond(c, apperr.New(code, Account(c).Hex()))
		}
		return c.Next()
	}
}
