package bankmock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ar-automation/reconciliation/internal/config"
	"github.com/ar-automation/reconciliation/internal/domain/bank"
)

// Server exposes the remote bank API:
//
//	GET /transactions/                  full transaction list
//	GET /transactions/date_range/      ?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates and configures the remote bank HTTP server
func NewServer(log *slog.Logger, cfg *config.Config, repo *Repository) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/transactions/", func(c *gin.Context) {
		txns, err := repo.ListAll(c.Request.Context())
		if err != nil {
			log.Error("Failed to serve transactions", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
			return
		}
		c.JSON(http.StatusOK, txns)
	})

	router.GET("/transactions/date_range/", func(c *gin.Context) {
		start, err := bank.ParseDate(c.Query("start_date"))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "start_date must be YYYY-MM-DD"})
			return
		}
		end, err := bank.ParseDate(c.Query("end_date"))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "end_date must be YYYY-MM-DD"})
			return
		}

		txns, err := repo.ListDateRange(c.Request.Context(), start, end)
		if err != nil {
			log.Error("Failed to serve transactions by date range", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
			return
		}
		c.JSON(http.StatusOK, txns)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{
		logger: log,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
