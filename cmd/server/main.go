package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pep299/document-insight/internal/config"
	"github.com/pep299/document-insight/internal/handlers"
	"github.com/pep299/document-insight/internal/upload"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("Document Insight Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nEnvironment Variables:\n")
		fmt.Printf("  PORT                    Server port (default: 8080)\n")
		fmt.Printf("  HOST                    Server host (default: 0.0.0.0)\n")
		fmt.Printf("  API_AUTH_TOKEN          Bearer token required by the API (default: none)\n")
		fmt.Printf("  ALLOWED_ORIGINS         Comma separated CORS origins (default: *)\n")
		fmt.Printf("  UPLOAD_DIR              Directory for in-flight uploads (default: uploads)\n")
		fmt.Printf("  MAX_UPLOAD_MB           Upload size limit in MB (default: 16)\n")
		fmt.Printf("  UPLOAD_MAX_AGE_MINUTES  Age after which leftover uploads are removed (default: 60)\n")
		fmt.Printf("  JANITOR_SCHEDULE        Cron schedule of the upload sweep (default: @every 10m)\n")
		fmt.Printf("  GCS_BUCKET              Cloud Storage bucket with source documents\n")
		fmt.Printf("  GCS_PREFIX              Object prefix inside the bucket (default: documents/)\n")
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Document Insight Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	handlers.Version = Version

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create server
	server, err := handlers.NewServer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer server.Close()

	// Setup routes
	router := server.SetupRoutes()

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Sweep uploads left behind by interrupted requests
	janitor, err := upload.NewJanitor(server.Uploads(), cfg.JanitorSchedule, cfg.UploadMaxAge())
	if err != nil {
		log.Fatalf("Failed to create upload janitor: %v", err)
	}
	janitor.Start()
	log.Printf("Upload janitor scheduled: %s", cfg.JanitorSchedule)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server
	go func() {
		log.Printf("Starting server on %s:%s", cfg.Host, cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down server...")

	cancel()

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	janitor.Stop(shutdownCtx)

	log.Println("Server stopped")
}
