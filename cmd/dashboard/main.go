package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ar-automation/reconciliation/internal/config"
	"github.com/ar-automation/reconciliation/internal/dashboard"
	"github.com/ar-automation/reconciliation/internal/dashboard/handler"
	"github.com/ar-automation/reconciliation/internal/data/elastic"
	datamongo "github.com/ar-automation/reconciliation/internal/data/mongo"
	"github.com/ar-automation/reconciliation/internal/data/postgres"
	"github.com/ar-automation/reconciliation/internal/domain/oplog"
	"github.com/ar-automation/reconciliation/internal/logger"
	"github.com/ar-automation/reconciliation/internal/platform/persistence"
	"github.com/ar-automation/reconciliation/internal/platform/search"
	"github.com/ar-automation/reconciliation/internal/reconcile"
	"github.com/ar-automation/reconciliation/internal/remotebank"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("dashboard")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	esClient, err := search.NewElasticsearch(log, &cfg.Elasticsearch)
	if err != nil {
		log.Error("Failed to initialize Elasticsearch", "error", err)
		os.Exit(1)
	}

	// Initialize repositories and collaborators
	bankRepo := postgres.NewBankRepository(log, postgresDB)
	clientRepo := postgres.NewClientRepository(log, postgresDB)
	oplogRepo := datamongo.NewOplogRepository(log, mongoDB.Database())
	recorder := oplog.NewRecorder(log, oplogRepo)
	clientIndex := elastic.NewClientIndex(log, esClient, cfg.Elasticsearch.IndexAlias)
	bankAPI := remotebank.NewClient(log, &cfg.RemoteBank)

	// Initialize core services
	syncService := reconcile.NewSyncService(bankAPI, bankRepo, recorder)
	consolidateService := reconcile.NewConsolidateService(clientRepo, clientIndex, recorder)
	resolveService, err := reconcile.NewResolveService(log, clientIndex, recorder, cfg.WorkerPool.Size)
	if err != nil {
		log.Error("Failed to initialize resolve service", "error", err)
		os.Exit(1)
	}

	// The session caches the tables the dashboard is working with
	session := reconcile.NewSession()

	// Initialize REST server
	syncHandler := handler.NewSyncHandler(log, syncService, bankAPI, bankRepo, session)
	clientHandler := handler.NewClientHandler(log, consolidateService, clientIndex, clientRepo, session)
	matchHandler := handler.NewMatchHandler(log, resolveService, bankRepo, session)
	logHandler := handler.NewLogHandler(log, oplogRepo)

	server := dashboard.NewServer(log, cfg, syncHandler, clientHandler, matchHandler, logHandler)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	resolveService.Shutdown()
	postgresDB.Close()

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
