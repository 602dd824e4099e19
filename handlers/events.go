package handlers

import (
	"strconv"

	"hunter-season-system/apperr"
	"hunter-season-system/middleware"
	"hunter-season-system/models"
	"hunter-season-system/services"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
)

const maxEventPage = 500

func SetupEventRoutes(r Routes, events *services.EventService) {
	// 📡 Live stream of the caller's events
	r.Public.Get("/events/stream", middleware.SSEAuthMiddleware(), events.StreamHunterEventsSSE)

	r.Public.Get("/events", func(c *fiber.Ctx) error {
		filter, err := eventFilter(c)
		if err != nil {
			return apperr.Respond(c, err)
		}
		if raw := c.Query("hunter"); raw != "" {
			if !common.IsHexAddress(raw) {
				return apperr.Respond(c, apperr.Newf(apperr.CodeInvalidArgument, "invalid hunter %q", raw))
			}
			addr := common.HexToAddress(raw)
			filter.Hunter = &addr
		}
		return listEvents(c, events, filter)
	})

	r.Hunter.Get("/events", func(c *fiber.Ctx) error {
		filter, err := eventFilter(c)
		if err != nil {
			return apperr.Respond(c, err)
		}
		addr := hunter(c)
		filter.Hunter = &addr
		return listEvents(c, events, filter)
	})
}

// eventFilter reads ?season_id=&kind=&after_seq=&limit= (limit defaults to 100).
func eventFilter(c *fiber.Ctx) (services.EventFilter, error) {
	filter := services.EventFilter{Kind: models.EventKind(c.Query("kind")), Limit: 100}

	if c.Query("season_id") != "" {
		id, err := uintQuery(c, "season_id")
		if err != nil {
			return filter, err
		}
		filter.SeasonID = &id
	}
	if c.Query("after_seq") != "" {
		seq, err := uintQuery(c, "after_seq")
		if err != nil {
			return filter, err
		}
		filter.AfterSeq = seq
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, apperr.Newf(apperr.CodeInvalidArgument, "invalid limit %q", raw)
		}
		filter.Limit = min(limit, maxEventPage)
	}
	return filter, nil
}

func listEvents(c *fiber.Ctx, events *services.EventService, filter services.EventFilter) error {
	list, err := events.ListEvents(c.UserContext(), filter)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(list)
}
