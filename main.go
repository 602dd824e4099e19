package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hunter-season-system/config"
	"hunter-season-system/handlers"
	"hunter-season-system/middleware"
	"hunter-season-system/models"
	"hunter-season-system/services"
	"hunter-season-system/telemetry"
	"hunter-season-system/utils"
	"hunter-season-system/workers"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "hunter-season-system", cfg.OTELEndpoint, cfg.OTELEnabled)
	if err != nil {
		log.Printf("⚠️  Tracing disabled: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	store := services.NewStore(db)
	ledger := services.NewGormLedger()
	clock := services.NewClockService(store)
	seasons := services.NewSeasonService(store, ledger)
	gates := services.NewGateService(store, ledger)
	monsters := services.NewMonsterService(store)
	settlement := services.NewSettlementService(store, ledger)

	if cfg.RankTablesFile != "" {
		tables, err := config.LoadRankTables(cfg.RankTablesFile)
		if err != nil {
			log.Fatal("failed to load rank tables:", err)
		}
		if err := applyRankTables(ctx, tables, seasons, gates, monsters, settlement); err != nil {
			log.Fatal("failed to apply rank tables:", err)
		}
		log.Printf("✅ Rank tables applied from %s", cfg.RankTablesFile)
	}

	// --- Clock: local ticker or the chain sync service ---
	switch cfg.ClockMode {
	case config.ClockModeLocal:
		scheduler, err := clock.StartBlockTicker(cfg.BlockInterval)
		if err != nil {
			log.Fatal("failed to start block ticker:", err)
		}
		defer func() { _ = scheduler.Shutdown() }()
	case config.ClockModeRemote:
		client := workers.NewBlockSyncClient(cfg.ChainSyncURL, cfg.GatewayToken)
		go workers.PollBlockHeight(ctx, client, clock, cfg.ChainSyncInterval)
	}

	// --- Season archive: only with R2 configured ---
	var uploader services.Uploader
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Uploader(ctx, utils.R2Config{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			AccessKeySecret: cfg.R2.AccessKeySecret,
			Bucket:          cfg.R2.Bucket,
			CDNBaseURL:      cfg.R2.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		uploader = r2
	}
	archives := services.NewArchiveService(store, settlement, uploader)
	if uploader != nil {
		workers.NewSeasonArchiveWorker(archives, cfg.ArchiveInterval).Start(ctx)
	} else {
		log.Println("⚠️  R2 not configured, season archive worker disabled")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))

	allowedOrigins := strings.Join(cfg.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, Cache-Control, X-Service-Token, " + middleware.AccountHeader,
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	handlers.SetupRoutes(app, handlers.Services{
		Clock:       clock,
		Ledger:      services.NewLedgerService(store, ledger),
		Collections: services.NewCollectionService(store, ledger),
		Monsters:    monsters,
		Seasons:     seasons,
		Gates:       gates,
		Settlement:  settlement,
		Operators:   services.NewOperatorService(store, cfg.MasterAddress()),
		Events:      services.NewEventService(store),
		Archives:    archives,
	})

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on %s", cfg.ListenAddr)
	log.Printf("✅ Clock mode: %s", cfg.ClockMode)
	log.Printf("✅ Operator master: %s", cfg.MasterAddress().Hex())
	log.Println("✅ GatewayAuthMiddleware enforced globally, all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		// one writer at a time, Store serializes on top
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	}
}

// applyRankTables pushes the configured tables through the operator setters,
// so the same validation applies as for live updates.
func applyRankTables(ctx context.Context, t *config.RankTables, seasons *services.SeasonService, gates *services.GateService, monsters *services.MonsterService, settlement *services.SettlementService) error {
	if t.Gate.SlotPerHunterRank != nil {
		if err := gates.SetSlotPerHunterRank(ctx, t.Gate.SlotPerHunterRank); err != nil {
			return err
		}
	}
	if t.Gate.RequiredGateCount != nil {
		if err := gates.SetRequiredGateCountForRankUp(ctx, t.Gate.RequiredGateCount); err != nil {
			return err
		}
	}
	if t.Gate.BlockPerRank != nil {
		if err := gates.SetGateBlockPerRank(ctx, t.Gate.BlockPerRank); err != nil {
			return err
		}
	}
	if t.RankUp.NormalRequired != nil {
		if err := seasons.SetRequiredMonsterForRankUp(ctx, t.RankUp.NormalRequired, t.RankUp.ShadowRequired); err != nil {
			return err
		}
	}
	if t.Monster.NormalScores != nil {
		if err := monsters.SetScoreTable(ctx, false, t.Monster.NormalScores); err != nil {
			return err
		}
	}
	if t.Monster.ShadowScores != nil {
		if err := monsters.SetScoreTable(ctx, true, t.Monster.ShadowScores); err != nil {
			return err
		}
	}
	if rate := t.Settlement.Rate; rate != nil {
		if err := settlement.SetScoreRate(ctx, rate.Quest, rate.Activity, rate.Collecting); err != nil {
			return err
		}
	}
	if t.Settlement.ScorePerGate != nil {
		if err := settlement.SetScorePerGate(ctx, *t.Settlement.ScorePerGate); err != nil {
			return err
		}
	}
	return nil
}
