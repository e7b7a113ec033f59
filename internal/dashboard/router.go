package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ar-automation/reconciliation/internal/dashboard/handler"
	"github.com/ar-automation/reconciliation/internal/dashboard/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	syncHandler *handler.SyncHandler,
	clientHandler *handler.ClientHandler,
	matchHandler *handler.MatchHandler,
	logHandler *handler.LogHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Bank ledger operations
		v1.POST("/sync", syncHandler.Sync)
		v1.GET("/transactions", syncHandler.ListTransactions)
		v1.GET("/source/transactions", syncHandler.ListSourceTransactions)

		// Base table browsing
		v1.GET("/clients", clientHandler.ListClients)
		v1.GET("/students", clientHandler.ListStudents)

		// Consolidated client view
		v1.POST("/consolidations", clientHandler.Consolidate)
		v1.GET("/combined", clientHandler.GetCombined)
		v1.GET("/search", clientHandler.Search)

		// Identity resolution
		v1.POST("/matches", matchHandler.Match)

		// Operation log stream for the UI log panel
		v1.GET("/logs", logHandler.Recent)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
