// Package main runs the AG-UI to Agent Engine bridge: an HTTP server that
// accepts AG-UI protocol requests, streams raw events from a Google Agent
// Engine (Vertex AI Reasoning Engine) deployment, and translates them
// into AG-UI events over Server-Sent Events.
//
// Configuration is via environment variables (a .env file is honored),
// optionally seeded from a TOML file named by BRIDGE_CONFIG:
//
//	BRIDGE_PORT           - Server port (default: 8000)
//	BRIDGE_LOG_LEVEL      - debug, info, warn, error (default: info)
//	GCP_PROJECT_ID        - Google Cloud project ID (required)
//	GCP_LOCATION          - GCP location (default: us-central1)
//	AGENT_ENGINE_ID       - Reasoning Engine resource ID (required)
//	GOOGLE_ACCESS_TOKEN   - Static bearer token (default: gcloud CLI)
//	BRIDGE_STREAM_TIMEOUT - Per-run stream ceiling (default: 10m)
//	BRIDGE_METADATA_TTL   - Metadata retention (default: 60m)
//	BRIDGE_SWEEP_INTERVAL - Metadata sweep cadence (default: 5m)
//
// Usage:
//
//	GCP_PROJECT_ID=my-project AGENT_ENGINE_ID=12345 go run ./cmd/aguibridge
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aguibridge/engine"
	"aguibridge/metadata"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	setupLogging(cfg.LogLevel)

	var tokens engine.TokenSource = engine.GcloudTokenSource{}
	if cfg.AccessToken != "" {
		tokens = engine.StaticTokenSource(cfg.AccessToken)
	}

	client := engine.NewStreamClient(cfg.ProjectID, cfg.Location, cfg.EngineID, tokens)
	slog.Info("agent engine client ready", "endpoint", client.Endpoint())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := metadata.New(metadata.WithTTL(cfg.MetadataTTL))
	store.StartSweeper(ctx, cfg.SweepInterval)

	mux := http.NewServeMux()
	mux.Handle("POST /chat", corsMiddleware(NewChatHandler(client, store, cfg)))
	mux.Handle("GET /metadata/{threadId}", corsMiddleware(MetadataHandler(store)))
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /{$}", rootHandler)
	mux.Handle("OPTIONS /", corsMiddleware(http.NotFoundHandler()))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("bridge starting",
		"port", cfg.Port,
		"project_id", cfg.ProjectID,
		"location", cfg.Location,
		"engine_id", cfg.EngineID,
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	slog.Info("server stopped")
}

// setupLogging configures process-wide slog at the configured level.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
