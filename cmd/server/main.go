package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clearops/tagwarden/internal/alert"
	"github.com/clearops/tagwarden/internal/api"
	"github.com/clearops/tagwarden/internal/auth"
	"github.com/clearops/tagwarden/internal/azure"
	"github.com/clearops/tagwarden/internal/compliance"
	"github.com/clearops/tagwarden/internal/config"
	"github.com/clearops/tagwarden/internal/directory"
	"github.com/clearops/tagwarden/internal/notify"
	"github.com/clearops/tagwarden/internal/storage/sql"
	"github.com/clearops/tagwarden/internal/tags"
	"github.com/coreos/go-oidc/v3/oidc"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create data directory if needed (for SQLite)
	if cfg.Database.Driver == "sqlite3" {
		dir := "data"
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	// Initialize storage
	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Initialize Resource Manager client (or file shim for testing)
	var client azure.ResourceClient
	if cfg.UseFileShim() {
		log.Printf("Using file shim for Resource Manager API: %s", cfg.Azure.FileShim)
		client = azure.NewFileShim(cfg.Azure.FileShim)
	} else {
		client = azure.New(cfg.Azure.ManagementURL)
	}

	// Initialize the domain services
	engine := tags.NewEngine(client, cfg.Bulk.BatchSize, cfg.Bulk.BatchDelay)
	collector := directory.New(client, nil)
	evaluator := compliance.NewEvaluator()

	var notifier notify.Notifier = notify.Noop{}
	if cfg.SMTP.Enabled() {
		notifier = notify.NewEmailNotifier(cfg.SMTP)
	} else {
		log.Printf("SMTP not configured, alert emails are disabled")
	}

	runner := alert.NewRunner(store, collector, evaluator, notifier, nil)

	// Optional verification of incoming bearer tokens
	var verifier *oidc.IDTokenVerifier
	if cfg.OIDC.Enabled {
		provider, err := oidc.NewProvider(context.Background(), cfg.OIDC.IssuerURL)
		if err != nil {
			log.Fatalf("Failed to initialize OIDC provider: %v", err)
		}
		verifier = provider.Verifier(&oidc.Config{ClientID: cfg.OIDC.ClientID})
	}

	// Scheduled alert runs acquire their own tokens
	if cfg.Schedule.Enabled {
		var tokens auth.TokenSource = auth.Static("")
		if !cfg.UseFileShim() {
			tokens = auth.NewClientCredentials(cfg.Azure)
		}
		scheduler, err := alert.NewScheduler(cfg.Schedule, runner, tokens, nil)
		if err != nil {
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Create router
	router := api.NewRouter(api.Deps{
		Store:     store,
		Client:    client,
		Collector: collector,
		Engine:    engine,
		Evaluator: evaluator,
		Runner:    runner,
		Bulk:      cfg.Bulk,
		Verifier:  verifier,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting Tagwarden on http://%s", cfg.Server.Addr())
	log.Printf("Press Ctrl+C to stop")

	// Start server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
