package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"rps-arena/chain"
	"rps-arena/handlers"
	"rps-arena/models"
	"rps-arena/services"
	"rps-arena/utils"
	"rps-arena/workers"

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

	app := fiber.New()

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
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Requested-With, X-Request-ID, X-Player-Address",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// --- Chain client -------------------------------------------------------
	chainID := int64(43114) // Avalanche C-Chain
	if v := os.Getenv("CHAIN_ID"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Fatal("invalid CHAIN_ID:", err)
		}
		chainID = parsed
	}

	chainCfg := chain.Config{
		RPCURL:          os.Getenv("RPC_URL"),
		WSRPCURL:        os.Getenv("WS_RPC_URL"),
		ContractAddress: os.Getenv("CONTRACT_ADDRESS"),
		TokenAddress:    os.Getenv("TOKEN_ADDRESS"),
		ChainID:         chainID,
		OperatorKey:     os.Getenv("OPERATOR_PRIVATE_KEY"),
	}
	if chainCfg.RPCURL == "" {
		log.Fatal("RPC_URL environment variable not set")
	}
	if chainCfg.ContractAddress == "" || chainCfg.TokenAddress == "" {
		log.Fatal("CONTRACT_ADDRESS and TOKEN_ADDRESS environment variables are required")
	}

	client, err := chain.Dial(chainCfg)
	if err != nil {
		log.Fatal("failed to connect to chain:", err)
	}
	if client.Operator() == "" {
		log.Println("⚠️  No OPERATOR_PRIVATE_KEY set — running read-only, round submissions disabled")
	}

	// --- Database (archive) -------------------------------------------------
	var db *gorm.DB
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Println("⚠️  DATABASE_URL not set — round archive disabled")
	} else {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			log.Fatal("failed to connect to database:", err)
		}
		if err := db.AutoMigrate(&models.RoundRecord{}); err != nil {
			log.Fatal("failed to migrate database:", err)
		}
	}

	// --- Reveal store + bot relay -------------------------------------------
	reveals, err := utils.NewRevealStore(os.Getenv("REVEAL_STORE_DIR"))
	if err != nil {
		log.Fatal("failed to initialize reveal store:", err)
	}

	var relay *services.RelayClient
	if botURL := os.Getenv("BOT_SERVICE_URL"); botURL != "" {
		relay = services.NewRelayClient(strings.TrimRight(botURL, "/"))
	} else {
		log.Println("⚠️  BOT_SERVICE_URL not set — reveal payloads stay on local disk only")
	}

	// --- Tracker ------------------------------------------------------------
	trackerCfg := services.TrackerConfig{}
	if v := os.Getenv("MIN_WAGER_TOKENS"); v != "" {
		tokens, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			log.Fatal("invalid MIN_WAGER_TOKENS:", err)
		}
		trackerCfg.MinWager = models.TokensToWei(tokens)
	}
	if v := os.Getenv("HISTORY_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			log.Fatal("invalid HISTORY_LIMIT:", err)
		}
		trackerCfg.HistoryLimit = limit
	}

	tracker := services.NewTracker(client, client, client, client, relay, reveals, trackerCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tracker.Bootstrap(ctx); err != nil {
		// The poll worker retries; starting with an empty cache is acceptable.
		log.Printf("❌ Initial round fetch failed: %v", err)
	}

	go workers.PollRounds(ctx, tracker)
	go workers.MonitorRelay(ctx, relay)

	var archive *services.ArchiveService
	if db != nil {
		archive = services.NewArchiveService(db, tracker)
		archive.StartArchiveScheduler()
	}

	api := services.NewApiService(tracker, archive, relay)
	handlers.SetupRoundRoutes(app, api)

	app.Static("/", "./public")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Round polling running")
	if relay != nil {
		log.Println("✅ Relay health monitoring running")
	}
	if archive != nil {
		log.Println("✅ Round archive scheduler running")
	}
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	tracker.Close()
}
