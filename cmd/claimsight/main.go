package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rajcare/claimsight/internal/access"
	"github.com/rajcare/claimsight/internal/api"
	"github.com/rajcare/claimsight/internal/audit"
	"github.com/rajcare/claimsight/internal/config"
	"github.com/rajcare/claimsight/internal/store"
)

func main() {
	log.Println("Starting ClaimSight...")

	// Load configuration
	cfg := loadConfig()

	// Initialize the claims store and access policy
	claimStore := store.New(cfg.Storage.ClaimsPath())
	policy := access.New(cfg.Storage.AccessPath())

	// Initialize audit logger
	auditLogger, err := audit.NewLogger(&cfg.Audit, cfg.Storage.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := auditLogger.Start(ctx); err != nil {
		log.Fatalf("Failed to start audit logger: %v", err)
	}

	// Create API server
	server := api.NewServer(cfg, claimStore, policy, auditLogger)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("ClaimSight API listening on port %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down ClaimSight...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	auditLogger.Stop()

	log.Println("ClaimSight stopped")
}

func loadConfig() *config.Config {
	configPath := os.Getenv("CLAIMSIGHT_CONFIG")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Printf("Failed to load config from %s: %v, using defaults", configPath, err)
			return config.LoadFromEnv()
		}
		return cfg
	}
	return config.LoadFromEnv()
}
