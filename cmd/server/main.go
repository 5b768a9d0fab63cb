package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/relocation/internal/api"
	"github.com/neexbeast/relocation/internal/auth"
	"github.com/neexbeast/relocation/internal/cache"
	"github.com/neexbeast/relocation/internal/chat"
	"github.com/neexbeast/relocation/internal/config"
	"github.com/neexbeast/relocation/internal/images"
	"github.com/neexbeast/relocation/internal/storage"
	"github.com/neexbeast/relocation/internal/voice"
	"github.com/neexbeast/relocation/migrations"
)

func main() {
	level := new(slog.LevelVar)
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := run(log, level); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, level *slog.LevelVar) error {
	if err := config.LoadEnvFiles(config.DefaultEnvFiles...); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level.Set(cfg.LogLevel)

	ctx := context.Background()

	// Connect to PostgreSQL.
	pool, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	// Run migrations.
	if err := storage.RunMigrations(cfg.DatabaseURL, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied")

	// Sessions and image results live in Redis when configured, in process otherwise.
	var (
		store       cache.Store
		redisHealth *redisPingerAdapter
	)
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
		store = cache.NewRedisStore(redisClient)
		redisHealth = &redisPingerAdapter{client: redisClient}
	} else {
		log.Warn("REDIS_URL not set, using in-process cache")
		store = cache.NewMemoryStore(10 * time.Minute)
	}

	// Wire dependencies.
	repo := storage.NewRepository(pool)
	dispatcher := chat.NewDispatcher(repo, log)

	deps := api.Deps{
		Repo:          repo,
		Sessions:      chat.NewSessionStore(store),
		Dispatcher:    dispatcher,
		Images:        images.NewClient(cfg.UnsplashAccessKey, cache.New(store, "images", images.CacheTTL), log),
		Voice:         voice.NewTokenIssuer(cfg.HumeAPIKey, cfg.HumeSecretKey),
		VoiceConfigID: cfg.HumeConfigID,
	}

	runtime, err := chat.NewGeminiRuntime(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, dispatcher, repo, log)
	switch {
	case errors.Is(err, chat.ErrRuntimeNotConfigured):
		log.Warn("GEMINI_API_KEY not set, chat endpoint disabled")
	case err != nil:
		return fmt.Errorf("starting chat runtime: %w", err)
	default:
		defer func() { _ = runtime.Close() }()
		deps.Runtime = runtime
	}

	authProxy, err := auth.NewProxy(cfg.AuthBaseURL, "/api/auth", log)
	if err != nil {
		return fmt.Errorf("configuring auth proxy: %w", err)
	}

	handlers := api.NewHandlers(deps, log)

	// Build router with pingers adapted for health check.
	dbPinger := &pgxPoolPinger{pool: pool}
	routerCfg := api.RouterConfig{
		ToolsToken:         cfg.ToolsToken,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Auth:               authProxy,
	}

	var router http.Handler
	if redisHealth != nil {
		router = api.NewRouter(handlers, routerCfg, dbPinger, redisHealth, log)
	} else {
		router = api.NewRouter(handlers, routerCfg, dbPinger, nil, log)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// pgxPoolPinger adapts pgxpool.Pool to the api.dbPinger interface.
type pgxPoolPinger struct {
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// redisPingerAdapter adapts redis.Client to the api.redisPinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
