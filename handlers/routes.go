package handlers

import (
	"hunter-season-system/middleware"
	"hunter-season-system/services"

	"github.com/gofiber/fiber/v2"
)

// Routes groups the surface by the role each caller must hold.
// The gateway forwards paths like /api/v1/season/admin/seasons -> /admin/seasons.
type Routes struct {
	Public     fiber.Router
	Hunter     fiber.Router // /hunter, caller from X-Hunter-Address
	Operator   fiber.Router // /admin
	Controller fiber.Router // /controller
	Master     fiber.Router // /master
}

func NewRoutes(app *fiber.App, roles middleware.RoleChecker) Routes {
	return Routes{
		Public: app,
		Hunter: app.Group("/hunter", middleware.AccountContextMiddleware()),
		Operator: app.Group("/admin",
			middleware.AccountContextMiddleware(),
			middleware.RequireOperator(roles),
		),
		Controller: app.Group("/controller",
			middleware.AccountContextMiddleware(),
			middleware.RequireController(roles),
		),
		Master: app.Group("/master",
			middleware.AccountContextMiddleware(),
			middleware.RequireOperatorMaster(roles),
		),
	}
}

// Services is everything the HTTP surface exposes.
type Services struct {
	Clock       *services.ClockService
	Ledger      *services.LedgerService
	Collections *services.CollectionService
	Monsters    *services.MonsterService
	Seasons     *services.SeasonService
	Gates       *services.GateService
	Settlement  *services.SettlementService
	Operators   *services.OperatorService
	Events      *services.EventService
	Archives    *services.ArchiveService
}

// SetupRoutes mounts every route group on app.
func SetupRoutes(app *fiber.App, svc Services) {
	r := NewRoutes(app, svc.Operators)

	SetupClockRoutes(r, svc.Clock)
	SetupLedgerRoutes(r, svc.Ledger)
	SetupCollectionRoutes(r, svc.Collections)
	SetupMonsterRoutes(r, svc.Monsters)
	SetupSeasonRoutes(r, svc.Seasons)
	SetupGateRoutes(r, svc.Gates)
	SetupSettlementRoutes(r, svc.Settlement)
	SetupOperatorRoutes(r, svc.Operators)
	SetupEventRoutes(r, svc.Events)
	SetupArchiveRoutes(r, svc.Archives)
}
