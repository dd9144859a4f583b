package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sportpicks/sportpicks-backend/internal/config"
	"github.com/sportpicks/sportpicks-backend/internal/handlers"
	"github.com/sportpicks/sportpicks-backend/internal/middleware"
)

// Handlers groups the constructed handlers the router wires up
type Handlers struct {
	Auth      *handlers.AuthHandler
	Match     *handlers.MatchHandler
	Purchase  *handlers.PurchaseHandler
	Raffle    *handlers.RaffleHandler
	Scheduler *handlers.SchedulerHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		auth := public.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
		}

		matches := public.Group("/matches")
		{
			matches.GET("", h.Match.GetCurrent)
			matches.GET("/archive", h.Match.GetArchive)
			matches.GET("/:id/purchases/count", h.Purchase.GetCount)
			matches.GET("/:id/prediction", h.Purchase.GetPrediction)
		}

		purchases := public.Group("/purchases")
		{
			purchases.GET("", h.Purchase.List)
			purchases.POST("", h.Purchase.Create)
		}

		raffles := public.Group("/raffles")
		{
			raffles.GET("", h.Raffle.List)
			raffles.GET("/:matchId", h.Raffle.GetByMatch)
		}
	}

	// Cron trigger routes, authenticated by the shared scheduler secret
	scheduler := router.Group("/api/v1/scheduler")
	scheduler.Use(middleware.CronAuthMiddleware(cfg))
	{
		scheduler.POST("/reconcile", h.Scheduler.TriggerReconcile)
		scheduler.POST("/:league/:phase", h.Scheduler.TriggerPhase)
	}

	// Operator routes, authenticated by JWT
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		protected.POST("/raffles/:matchId/payout", h.Raffle.RetryPayout)
	}

	return router
}
