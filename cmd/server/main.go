package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/wishlists/internal/auth"
	"github.com/mmynk/wishlists/internal/config"
	"github.com/mmynk/wishlists/internal/docstore"
	"github.com/mmynk/wishlists/internal/docstore/memstore"
	"github.com/mmynk/wishlists/internal/docstore/postgres"
	"github.com/mmynk/wishlists/internal/docstore/sqlite"
	"github.com/mmynk/wishlists/internal/middleware"
	"github.com/mmynk/wishlists/internal/rpc"
	"github.com/mmynk/wishlists/internal/service"
	"github.com/mmynk/wishlists/pkg/logging"
)

// backend is what every storage implementation provides to the server.
type backend interface {
	docstore.Store
	auth.UserStorage
	io.Closer
}

func main() {
	if err := config.LoadDotenvIfPresent(); err != nil {
		slog.Error("Failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if cfg.InsecureSecret() {
		logger.Warn("WISHLISTS_JWT_SECRET is not set; using the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("Storage initialized", "store", cfg.Store)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := newHandler(store, cfg, logger, registry)

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	}()

	logger.Info("Connect server starting", "address", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Server) (backend, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return sqlite.New(cfg.DBPath)
	case config.StorePostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	case config.StoreMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func newHandler(store backend, cfg *config.Server, logger *slog.Logger, registry *prometheus.Registry) http.Handler {
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)
	metrics := middleware.NewMetrics(registry)

	logInterceptor := middleware.LoggingInterceptor(logger)

	mux := http.NewServeMux()

	authPath, authHandler := rpc.NewAuthServiceHandler(
		service.NewAuthService(authenticator, jwtManager, logger),
		connect.WithInterceptors(metrics.Interceptor(), middleware.OptionalAuth(jwtManager), logInterceptor),
	)
	mux.Handle(authPath, authHandler)

	docPath, docHandler := rpc.NewDocumentServiceHandler(
		service.NewDocumentService(store, logger),
		connect.WithInterceptors(metrics.Interceptor(), middleware.RequireAuth(jwtManager), logInterceptor),
	)
	mux.Handle(docPath, docHandler)

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	return requestLogger(logger, corsMiddleware(mux))
}

// requestLogger logs all incoming requests
func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
