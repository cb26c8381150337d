package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/grandcanyonsmith/mcp-server-canyon/internal/config"
	logpkg "github.com/grandcanyonsmith/mcp-server-canyon/internal/logger"
	"github.com/grandcanyonsmith/mcp-server-canyon/internal/metrics"
	chiTransport "github.com/grandcanyonsmith/mcp-server-canyon/internal/transport/chi"
	mcpTransport "github.com/grandcanyonsmith/mcp-server-canyon/internal/transport/mcp"
	openaiTransport "github.com/grandcanyonsmith/mcp-server-canyon/internal/transport/openai"
	healthuc "github.com/grandcanyonsmith/mcp-server-canyon/internal/usecase/health"
	retrievaluc "github.com/grandcanyonsmith/mcp-server-canyon/internal/usecase/retrieval"
	"github.com/grandcanyonsmith/mcp-server-canyon/internal/version"
)

const serverName = "canyon-vector-store"

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting canyon MCP server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("transport", cfg.Server.Transport),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	// Register retrieval metrics explicitly (no init())
	metrics.RegisterRetrievalMetrics()

	backend := openaiTransport.NewClient(&openaiTransport.Config{
		APIKey:        cfg.OpenAI.APIKey,
		BaseURL:       cfg.OpenAI.BaseURL,
		VectorStoreID: cfg.OpenAI.VectorStoreID,
		AssistantID:   cfg.OpenAI.AssistantID,
		PollInterval:  time.Duration(cfg.OpenAI.RunPollIntervalMS) * time.Millisecond,
		RunTimeout:    time.Duration(cfg.OpenAI.RunTimeoutSec) * time.Second,
		Logger:        logger,
	})

	retrievalSvc := retrievaluc.New(backend, logger)
	healthSvc := healthuc.New(backend, cfg.Presence())

	mcpServer, err := mcpTransport.NewServer(mcpTransport.Config{
		Name:      serverName,
		Version:   version.Version,
		Retriever: retrievalSvc,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("Failed to create MCP server", zap.Error(err))
	}

	if cfg.Server.Transport == "stdio" {
		runStdio(mcpServer, logger)
		return
	}

	runHTTP(cfg, mcpServer, healthSvc, logger)
}

// runStdio serves the MCP protocol over stdin/stdout until the client
// disconnects or the process receives a termination signal.
func runStdio(mcpServer *mcpTransport.Server, logger *zap.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Serving MCP over stdio")
	if err := mcpServer.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Fatal("MCP stdio server error", zap.Error(err))
	}
	logger.Info("Server stopped gracefully")
}

func runHTTP(cfg config.Config, mcpServer *mcpTransport.Server, healthSvc *healthuc.Service, logger *zap.Logger) {
	server := chiTransport.NewServer(healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", server.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Mount("/mcp", mcpServer.HTTPHandler())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
