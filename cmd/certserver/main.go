package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/certifica/certserver/internal/api"
	"github.com/certifica/certserver/internal/cert"
	"github.com/certifica/certserver/internal/config"
	"github.com/certifica/certserver/internal/db"
	"github.com/certifica/certserver/internal/db/repository"
	"github.com/certifica/certserver/internal/pdf"
	"github.com/certifica/certserver/internal/policy"
)

var (
	// Version information (set via ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "/etc/certserver/config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Certificate Server\n")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Commit:     %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	log.Printf("Starting Certificate Server %s (commit: %s)", Version, Commit)

	// Load configuration
	log.Printf("Loading configuration from %s", *configPath)
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	log.Printf("Connecting to database: %s", cfg.Database.Path)
	database, err := db.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	log.Printf("Running database migrations...")
	if err := db.RunMigrations(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Ensure the artifact directory exists and is writable
	log.Printf("Using artifact directory: %s", cfg.Storage.ArtifactDir)
	if err := os.MkdirAll(cfg.Storage.ArtifactDir, 0o755); err != nil {
		log.Fatalf("Failed to create artifact directory: %v", err)
	}

	// Initialize repositories
	certRepo := repository.NewCertRepository(database.DB)
	auditRepo := repository.NewAuditRepository(database.DB)

	// Initialize renderer and issuance service
	renderer := pdf.NewRenderer()
	service := cert.NewService(certRepo, renderer, cfg.Storage.ArtifactDir)

	// Initialize policy validator
	validator := policy.NewValidator(cfg, auditRepo)

	// Create HTTP server
	server := api.NewServer(cfg, service, certRepo, auditRepo, validator)

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("Starting HTTP server on %s", cfg.Server.ListenAddr)
		if err := server.Run(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Certificate Server is running")
	log.Printf("Press Ctrl+C to shutdown")

	// Wait for interrupt signal
	<-quit
	log.Printf("Shutting down server...")

	// Cleanup
	database.Close()

	log.Printf("Server stopped")
}
