package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/perkhub/pointsledger/internal/server/http/handlers"
	"github.com/perkhub/pointsledger/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.PointsFacade, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	pointsHandler := handlers.NewPointsHandler(facade)
	disputeHandler := handlers.NewDisputeHandler(facade)
	purchaseHandler := handlers.NewPurchaseHandler(facade)
	adminHandler := handlers.NewAdminHandler(facade)

	api := engine.Group("/api")
	api.Use(middleware.ServiceAuthRequired(facade))

	api.POST("/points/earn", pointsHandler.Earn)
	api.POST("/points/spend", pointsHandler.Spend)

	api.GET("/users/:id/balance", pointsHandler.Balance)
	api.GET("/users/:id/transactions", pointsHandler.Transactions)
	api.GET("/users/:id/level", pointsHandler.Level)

	api.POST("/disputes", disputeHandler.Create)
	api.GET("/disputes/expiring", disputeHandler.Expiring)

	api.POST("/purchases", purchaseHandler.Create)
	api.GET("/purchases/:id", purchaseHandler.Get)
	api.POST("/purchases/:id/complete", purchaseHandler.Complete)
	api.POST("/purchases/:id/cancel", purchaseHandler.Cancel)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuthRequired(facade))
	admin.POST("/points/adjust", adminHandler.Adjust)
	admin.POST("/disputes/:id/resolve", adminHandler.ResolveDispute)
	admin.GET("/consistency/report", adminHandler.ConsistencyReport)
	admin.POST("/consistency/users/:id/fix", adminHandler.FixBalance)

	return engine
}
