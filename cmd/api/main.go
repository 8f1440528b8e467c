package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobarin/clipforge/internal/api"
	"github.com/bobarin/clipforge/internal/config"
	"github.com/bobarin/clipforge/internal/orchestrator"
	"github.com/bobarin/clipforge/internal/services"
	"github.com/bobarin/clipforge/internal/storage"
)

func main() {
	log.Println("Starting ClipForge API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Local tier directories
	for _, dir := range []string{cfg.ClipsDir, cfg.VideosDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	// Initialize storage tiering
	tiers, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	if tiers.RemoteEnabled() {
		log.Printf("Remote storage tier enabled (provider: %s, bucket: %s)", cfg.Storage.Provider, cfg.Storage.Bucket)
	} else {
		log.Println("Remote storage tier disabled, clips stay on the local tier")
	}

	// Initialize services
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	prober := services.NewProbeService()
	planner := services.NewSegmentPlanner(rng)
	scorer := services.NewAIScorer(cfg.OpenAIKey, rng)
	transcoder, err := services.NewTranscodeEngine(cfg.ClipsDir)
	if err != nil {
		log.Fatalf("Failed to init transcode engine: %v", err)
	}
	editor := services.NewEditEngine(transcoder, tiers, cfg.ClipsDir)

	if cfg.OpenAIKey != "" {
		log.Println("Segment scoring enabled (OpenAI)")
	} else {
		log.Println("Segment scoring disabled, using heuristic segments")
	}

	// Create batch orchestrator
	batches := orchestrator.New(planner, scorer, transcoder, tiers, cfg.ClipsDir, cfg.MaxConcurrentJobs)
	log.Printf("Batch concurrency limit: %d", cfg.MaxConcurrentJobs)

	// Create API handler
	handler := api.NewHandler(prober, batches, editor, tiers, cfg.ClipsDir, cfg.VideosDir)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Periodic local tier sweep
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	if cfg.CleanupIntervalHours > 0 {
		interval := time.Duration(cfg.CleanupIntervalHours) * time.Hour
		maxAge := time.Duration(cfg.CleanupMaxAgeHours) * time.Hour
		log.Printf("Local tier sweep enabled: every %v, deleting clips older than %v", interval, maxAge)

		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-sweepCtx.Done():
					return
				case <-ticker.C:
					if _, err := storage.SweepLocal(cfg.ClipsDir, maxAge); err != nil {
						log.Printf("[Sweep] Sweep failed: %v", err)
					}
				}
			}
		}()
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	sweepCancel()

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
