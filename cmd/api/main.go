// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rhinoai/cad-interpreter/internal/config"
	"github.com/rhinoai/cad-interpreter/internal/handler"
	"github.com/rhinoai/cad-interpreter/internal/interp"
	"github.com/rhinoai/cad-interpreter/internal/llm"
	"github.com/rhinoai/cad-interpreter/internal/middleware"
	natsclient "github.com/rhinoai/cad-interpreter/internal/nats"
	"github.com/rhinoai/cad-interpreter/internal/scene"
	"github.com/rhinoai/cad-interpreter/internal/service"
	"github.com/rhinoai/cad-interpreter/pkg/logger"
	"github.com/rhinoai/cad-interpreter/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "cad-interpreter", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS for the interpretation event stream
	var natsClient *natsclient.Client
	var streamManager *natsclient.StreamManager
	if cfg.NATSEnabled {
		natsClient, err = natsclient.Connect(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		streamManager = natsclient.NewStreamManager(natsClient)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure stream", zap.Error(err))
			os.Exit(1)
		}
	}

	// Completion backends, in priority order
	var clients []llm.Client
	if cfg.AnthropicAPIKey != "" {
		anthropicClient, err := llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		if err != nil {
			log.Warn("failed to create Anthropic client", zap.Error(err))
		} else {
			clients = append(clients, anthropicClient)
		}
	}
	if cfg.OpenAIAPIKey != "" {
		openaiClient, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			log.Warn("failed to create OpenAI client", zap.Error(err))
		} else {
			clients = append(clients, openaiClient)
		}
	}
	if len(clients) == 0 {
		log.Warn("no completion backend configured, unmatched requests will ask for clarification")
	}

	// Interpretation pipeline
	sceneStore := scene.NewStore()
	registry := interp.NewRegistry()
	cache := interp.NewResponseCache(cfg.CacheTTL)
	orchestrator := interp.NewOrchestrator(interp.OrchestratorOpts{
		Registry:   registry,
		ContextMgr: interp.NewContextManager(sceneStore, log),
		Cache:      cache,
		Executor:   sceneStore,
		Checker:    sceneStore,
		Clients:    clients,
		Threshold:  cfg.ConfidenceThreshold,
		Timeout:    cfg.ProviderTimeout,
		Logger:     log,
	})

	// Services
	var publisher service.EventPublisher
	if streamManager != nil {
		publisher = streamManager
	}
	sessionSvc := service.NewSessionService(orchestrator, cache, publisher, log)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	sessionSvc.StartCacheSweeper(sweepCtx, cfg.CacheTTL)

	// Handlers
	healthHandler := handler.NewHealthHandler(natsClient, cfg.NATSEnabled)
	sessionHandler := handler.NewSessionHandler(sessionSvc, log)
	interpretHandler := handler.NewInterpretHandler(sessionSvc, sceneStore, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Get("/", sessionHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Delete("/", sessionHandler.Delete)
				r.Post("/reset", sessionHandler.Reset)
				r.Get("/turns", sessionHandler.Turns)
				r.Post("/interpret", interpretHandler.Interpret)
			})
		})

		// Scene
		r.Get("/scene", interpretHandler.Scene)
		r.Post("/scene/selection", interpretHandler.Select)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
