// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rollcallhq/rollcall-go/internal/application/container"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/logging"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/observability/performance"
	"github.com/rollcallhq/rollcall-go/internal/infrastructure/persistence/database"
	"github.com/rollcallhq/rollcall-go/internal/presentation/http/server"
	"github.com/rollcallhq/rollcall-go/pkg/config"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("RollCall attendance service starting...")

	// Step 1: Initialize channeled logging
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("Channeled logging initialized")

	// Step 2: Initialize performance tracking
	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())
	logger.Startup().Info("Performance tracker initialized")

	// Step 3: Connect to the database
	logger.Startup().Info("Connecting to database...", "driver", config.DBDriver)
	driver, dsn, err := database.DataSourceName()
	if err != nil {
		return fmt.Errorf("failed to resolve database configuration: %w", err)
	}
	db, err := database.NewConnectionWithLogger(driver, dsn, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.TestConnection(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Startup().Info("Database connection verified")

	// Step 4: Ensure schema
	logger.Startup().Info("Ensuring database schema...")
	if err := db.EnsureSchema(); err != nil {
		return fmt.Errorf("schema bootstrap failed: %w", err)
	}
	logger.Startup().Info("Database schema ready")

	// Step 5: Create dependency injection container
	logger.Startup().Info("Initializing dependency injection container...")
	appContainer, err := container.NewContainer(db, logger, perfTracker)
	if err != nil {
		return fmt.Errorf("container initialization failed: %w", err)
	}
	logger.Startup().Info("Container initialized with singleton services")

	// Step 6: Start the roster broadcaster
	logger.Startup().Info("Starting roster broadcaster...")
	go appContainer.RosterBroadcaster.Run(ctx)

	// Step 7: Start HTTP server
	logger.Startup().Info("Starting HTTP server...")
	port := config.Port
	httpServer := server.New(port, appContainer)

	// Step 8: Setup graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	// Cancel background tasks
	cancelBackgroundTasks()

	// Stop server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	// Close database
	logger.Shutdown().Info("Closing database...")
	if err := db.Close(); err != nil {
		logger.Shutdown().Error("Error closing database", "error", err.Error())
	} else {
		logger.Shutdown().Info("Database closed successfully")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
