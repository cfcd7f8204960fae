package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mapadmin/config-portal/internal/api"
	"github.com/mapadmin/config-portal/internal/config"
	"github.com/mapadmin/config-portal/internal/db"
	"github.com/mapadmin/config-portal/internal/themes"
)

func main() {
	formatter := &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"}
	logrus.SetFormatter(formatter)
	logrus.Println("Starting GIS configuration portal...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if sqlDB, err := database.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logrus.Printf("Failed to close database connection: %v", err)
			}
		}
	}()

	// Verify database connection
	sqlDB, err := database.DB()
	if err != nil {
		logrus.Fatalf("Failed to get database connection: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		logrus.Fatalf("Database ping failed: %v", err)
	}
	logrus.Println("Connected to database")

	// Run database migrations
	if err := db.RunMigrations(database); err != nil {
		logrus.Fatalf("Failed to run database migrations: %v", err)
	}
	logrus.Println("Database migrations completed successfully")

	// Themes configuration file store
	store := themes.NewStore(cfg.ThemesConfigFile())
	logrus.Printf("Themes configuration file: %s", store.Path())

	// Create router
	router, err := api.SetupRouter(cfg, database, store)
	if err != nil {
		logrus.Fatalf("Failed to set up router: %v", err)
	}

	// Configure HTTP server with timeouts
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:        router,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// Channel to capture server errors
	serverErr := make(chan error, 1)

	go func() {
		logrus.Printf("Portal listening on port %d", cfg.ServerPort)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed: %v", err)
		}
	case sig := <-quit:
		logrus.Printf("Received signal: %v", sig)
	}

	logrus.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Println("Portal shutdown complete")
}
