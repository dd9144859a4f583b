package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sportpicks/sportpicks-backend/api/routes"
	"github.com/sportpicks/sportpicks-backend/internal/config"
	"github.com/sportpicks/sportpicks-backend/internal/handlers"
	"github.com/sportpicks/sportpicks-backend/internal/services"
	"golang.org/x/exp/slog"

	mongorepo "github.com/sportpicks/sportpicks-backend/internal/repositories/mongodb"
	"github.com/sportpicks/sportpicks-backend/pkg/mongodb"
	"github.com/sportpicks/sportpicks-backend/pkg/payout"
	"github.com/sportpicks/sportpicks-backend/pkg/scorefeed"
)

func main() {
	// .env is a local-development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		slog.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			slog.Error("Error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIndexes()
	if err := mongorepo.EnsureIndexes(indexCtx, db); err != nil {
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	// Repositories
	matchRepo := mongorepo.NewMatchRepository(db)
	cycleRepo := mongorepo.NewSelectionCycleRepository(db)
	predictionRepo := mongorepo.NewPredictionRepository(db)
	purchaseRepo := mongorepo.NewPurchaseRepository(db)
	raffleRepo := mongorepo.NewRaffleRepository(db)
	operatorRepo := mongorepo.NewOperatorRepository(db)

	// External clients
	feed := scorefeed.NewClient(
		cfg.ScoreFeed.PrimaryURL,
		cfg.ScoreFeed.FallbackURL,
		cfg.ScoreFeed.APIKey,
		time.Duration(cfg.ScoreFeed.TimeoutSecs)*time.Second,
		cfg.ScoreFeed.MockFeed,
	)
	var gateway payout.Gateway
	if cfg.Payout.MockGateway {
		gateway = payout.NewMockGateway()
	} else {
		gateway = payout.NewHTTPGateway(cfg.Payout.GatewayURL, cfg.Payout.APIKey, time.Duration(cfg.Payout.TimeoutSecs)*time.Second)
	}

	// Services
	authService := services.NewAuthService(cfg, operatorRepo)
	matchService := services.NewMatchService(cfg, matchRepo, cycleRepo, feed)
	selectionService := services.NewSelectionService(cfg, matchRepo, cycleRepo)
	predictionService := services.NewPredictionService(cfg, predictionRepo, matchRepo, cycleRepo)
	purchaseService := services.NewPurchaseService(cfg, purchaseRepo, matchRepo, cycleRepo, predictionService)
	settlementService := services.NewSettlementService(cfg, matchRepo, purchaseRepo, raffleRepo, predictionRepo, gateway)
	reconcileService := services.NewReconcileService(cfg, predictionRepo, purchaseRepo, raffleRepo, matchRepo, feed)
	schedulerService := services.NewSchedulerService(cfg, matchService, selectionService, predictionService, settlementService, reconcileService)

	// Handlers
	router := routes.SetupRouter(cfg, routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Match:     handlers.NewMatchHandler(matchService),
		Purchase:  handlers.NewPurchaseHandler(purchaseService, predictionService),
		Raffle:    handlers.NewRaffleHandler(settlementService),
		Scheduler: handlers.NewSchedulerHandler(schedulerService),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("Server exited")
}

func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
