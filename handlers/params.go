package handlers

import (
	"strconv"

	"hunter-season-system/apperr"
	"hunter-season-system/middleware"
	"hunter-season-system/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
)

func uintParam(c *fiber.Ctx, name string) (uint64, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0, apperr.Newf(apperr.CodeInvalidArgument, "invalid %s %q", name, c.Params(name))
	}
	return v, nil
}

func uintQuery(c *fiber.Ctx, name string) (uint64, error) {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0, apperr.Newf(apperr.CodeInvalidArgument, "invalid %s %q", name, c.Query(name))
	}
	return v, nil
}

func addressParam(c *fiber.Ctx, name string) (common.Address, error) {
	raw := c.Params(name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, apperr.Newf(apperr.CodeInvalidArgument, "invalid address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

// tierParam reads ":tier" as "normal" or "shadow".
func tierParam(c *fiber.Ctx) (bool, error) {
	switch c.Params("tier") {
	case models.MonsterTierNormal:
		return false, nil
	case models.MonsterTierShadow:
		return true, nil
	}
	return false, apperr.Newf(apperr.CodeInvalidArgument, "unknown monster tier %q", c.Params("tier"))
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperr.Newf(apperr.CodeInvalidArgument, "invalid request body: %v", err)
	}
	return nil
}

func hunter(c *fiber.Ctx) common.Address {
	return middleware.Account(c)
}
