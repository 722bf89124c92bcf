// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"microblog/internal/auth"
	"microblog/internal/config"
	"microblog/internal/handlers"
	"microblog/internal/kv"
	kvmemory "microblog/internal/kv/memory"
	kvredis "microblog/internal/kv/redis"
	"microblog/internal/logging"
	"microblog/internal/metrics"
	"microblog/internal/middleware"
	"microblog/internal/repo"
)

func main() {
	// --- Load config (.env + config.yaml + env overrides) ---
	_ = godotenv.Load()
	cfg := config.Load()

	// --- Logger ---
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format == "json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- KV store ---
	var store kv.Store
	switch cfg.Store.Backend {
	case "redis":
		opts, err := goredis.ParseURL(cfg.Store.RedisURL)
		if err != nil {
			slog.Error("redis url parse error", "err", err)
			os.Exit(1)
		}
		client := goredis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Error("redis ping error", "err", err)
			os.Exit(1)
		}
		store, err = kvredis.New(kvredis.Config{Client: client, KeyPrefix: cfg.Store.KeyPrefix})
		if err != nil {
			slog.Error("redis store error", "err", err)
			os.Exit(1)
		}
		slog.Debug("redis store ready")
	default:
		mem := kvmemory.New()
		mem.StartSweeper(ctx, 5*time.Minute)
		store = mem
		slog.Debug("in-memory store ready")
	}
	defer store.Close()

	r := repo.New(store)

	tokens, err := auth.NewTokens(cfg.Security.JWTSecret, cfg.Security.AccessTTL)
	if err != nil {
		slog.Error("token setup error", "err", err)
		os.Exit(1)
	}

	// --- Router ---
	mux := chi.NewRouter()

	// Ensure request ID then log requests with slog
	mux.Use(middleware.RequestID(cfg.Security.RequestID.TrustHeader))
	mux.Use(middleware.SlogRequestLogger)
	mux.Use(metrics.Middleware)
	if cfg.Security.RateLimit.Enabled {
		mux.Use(middleware.RateLimitWith(cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst, cfg.Security.RateLimit.TTL))
	}

	// --- CORS middleware ---
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by browsers
	}))

	handlers.RegisterRoutes(mux, r, tokens, cfg.Security.RefreshTTL)
	mux.Handle("/metrics", metrics.Handler())

	// --- Start server ---
	addr := cfg.Server.Addr
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "err", err)
		}
	}()

	slog.Info("listening", "addr", addr, "base_url", cfg.BaseURL, "store", cfg.Store.Backend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
