package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cartel-index-system/chain"
	"cartel-index-system/handlers"
	"cartel-index-system/middleware"
	"cartel-index-system/models"
	"cartel-index-system/services"
	"cartel-index-system/utils"
	"cartel-index-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-Address, X-Admin-Secret, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.ChainEvent{},
		&models.IndexCursor{},
		&models.User{},
		&models.QuestProgress{},
		&models.PendingShare{},
		&models.Invite{},
		&models.Referral{},
		&models.Clan{},
		&models.ClanMembership{},
		&models.RevenueTransaction{},
		&models.FraudEvent{},
		&models.AgentRun{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	services.LoadSeasonConfig()

	chainServiceURL := os.Getenv("CHAIN_LOG_SERVICE_URL")
	if chainServiceURL == "" {
		log.Fatal("CHAIN_LOG_SERVICE_URL environment variable not set")
	}
	chainServiceToken := os.Getenv("CHAIN_SERVICE_TOKEN")
	if chainServiceToken == "" {
		log.Fatal("CHAIN_SERVICE_TOKEN environment variable not set")
	}
	chainClient := chain.NewLogClient(chainServiceURL, chainServiceToken)

	eventStore := services.NewEventStore(db)
	ledger := services.NewReputationLedger(db)
	questEngine := services.NewQuestEngine(db, eventStore, ledger)
	aggregator := services.NewAggregator(db)
	referralService := services.NewReferralService(db)
	clanService := services.NewClanService(db)
	shareService := services.NewPendingShareService(db, ledger)
	fraudService := services.NewFraudService(db)
	agentService := services.NewAgentService(db, aggregator, chainClient)

	indexer := workers.NewIndexerWorker(db, eventStore, chainClient)

	workers.StartPipelineScheduler(indexer, questEngine, agentService, fraudService)

	// Mount order matters: internal and admin routes carry their own auth and
	// must sit in front of the global gateway gate.
	handlers.SetupPipelineRoutes(app, indexer, questEngine, agentService, fraudService)
	handlers.SetupAdminRoutes(app, referralService, shareService, ledger, aggregator, fraudService)

	// 🔐 Everything below only accepts requests from the Gateway.
	app.Use(middleware.GatewayAuthMiddleware())

	handlers.SetupPlayerRoutes(app, ledger, questEngine, aggregator, clanService)
	handlers.SetupEconomyRoutes(app, referralService, clanService, agentService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Pipeline scheduler running (index 1m, agents 10m, fraud scan 1h)")
	log.Println("✅ GatewayAuthMiddleware enforced on all query/mutating routes")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
