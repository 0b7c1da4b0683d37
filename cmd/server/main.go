// Package main provides the imagegate HTTP server. It exposes the provider
// gateway as a JSON API with Prometheus metrics.
//
// Configuration is via environment variables (a .env file is loaded if present):
//
//	IMAGEGATE_PORT             - Server port (default: 3000)
//	IMAGEGATE_LOG_LEVEL        - debug, info, warn, error (default: info)
//	IMAGEGATE_REQUEST_TIMEOUT  - Bound on a whole generation (default: 6m)
//	IMAGEGATE_PROVIDER_TIMEOUT - Bound on a single provider request (default: 2m)
//	IMAGEGATE_POLL_ATTEMPTS    - Job status checks before giving up (default: 30)
//	IMAGEGATE_POLL_INTERVAL    - Delay between job status checks (default: 10s)
//	HUGGINGFACE_API_KEY        - Hugging Face inference token
//	OPENAI_API_KEY             - OpenAI API key
//	STABILITY_API_KEY          - Stability AI API key
//	GOOGLE_API_KEY             - Google Gemini API key
//	DEEPAI_API_KEY             - DeepAI API key
//	ADOBE_API_KEY              - Adobe Firefly client id
//	ADOBE_ACCESS_TOKEN         - Adobe Firefly OAuth access token
//	MIDJOURNEY_API_KEY         - Midjourney relay API key
//	MIDJOURNEY_BASE_URL        - Midjourney relay base URL
//
// Usage:
//
//	OPENAI_API_KEY=sk-... go run ./cmd/server
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spetersoncode/imagegate/client"
	"github.com/spetersoncode/imagegate/gateway"
	"github.com/spetersoncode/imagegate/internal/log"
	"github.com/spetersoncode/imagegate/metrics"
	"github.com/spetersoncode/imagegate/poll"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := log.New(os.Stderr, log.ParseLevel(cfg.LogLevel), false)
	slog.SetDefault(logger)

	m := metrics.New()
	events := make(chan gateway.Event, 256)
	pollEvents := make(chan poll.Event, 256)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go m.Consume(ctx, events, pollEvents)

	clientCfg := cfg.ClientConfig()
	clientCfg.Events = events
	clientCfg.PollEvents = pollEvents
	c, err := client.New(clientCfg)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		os.Exit(1)
	}

	for _, s := range c.Providers() {
		logger.Info("provider registered", "provider", s.Name, "configured", s.Configured, "supports_edit", s.SupportsEdit)
	}
	if !c.Configured() {
		logger.Warn("no provider API keys set; generation requests will fail")
	}

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     newRouter(c, m, logger, cfg.RequestTimeout),
		ReadTimeout: 30 * time.Second,
		// Generations may legitimately run for minutes.
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("server starting",
		"addr", server.Addr,
		"generate", "POST /api/generate",
		"providers", "GET /api/providers",
		"metrics", "GET /metrics",
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newRouter wires the API routes.
func newRouter(gen Generator, m *metrics.Metrics, logger *slog.Logger, timeout time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/generate", m.Middleware("/api/generate", NewGenerateHandler(gen, timeout)))
	mux.Handle("/api/providers", m.Middleware("/api/providers", providersHandler(gen)))
	mux.HandleFunc("/healthz", healthHandler)
	mux.Handle("/metrics", m.Handler())
	return requestContext(logger, corsMiddleware(mux))
}
