// Command webmail runs the webmail HTTP server.
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

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongooptions "go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/rbaliyan/webmail"
	"github.com/rbaliyan/webmail/api"
	"github.com/rbaliyan/webmail/identity"
	"github.com/rbaliyan/webmail/internal/config"
	"github.com/rbaliyan/webmail/resolver"
	"github.com/rbaliyan/webmail/store"
	"github.com/rbaliyan/webmail/store/memory"
	mongostore "github.com/rbaliyan/webmail/store/mongo"
	"github.com/rbaliyan/webmail/store/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	entries, users, cleanup, err := buildStores(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []webmail.Option{
		webmail.WithStore(entries),
		webmail.WithIdentityStore(users),
		webmail.WithResolver(resolver.NewIdentityResolver(users)),
		webmail.WithLogger(logger),
		webmail.WithServiceName(cfg.ServiceName),
		webmail.WithOTel(cfg.OTelEnabled),
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer client.Close()
		opts = append(opts, webmail.WithRedisClient(client))
		logger.Info("events enabled", "redis", cfg.RedisAddr)
	}

	svc, err := webmail.NewService(opts...)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	if err := svc.Connect(ctx); err != nil {
		return fmt.Errorf("connect service: %w", err)
	}
	defer svc.Close(context.Background())

	sessions, err := api.NewSessionManager(cfg.SessionSecret, cfg.SessionMaxAge)
	if err != nil {
		return fmt.Errorf("init sessions: %w", err)
	}
	if cfg.SessionSecret == "" {
		logger.Warn("SESSION_SECRET not set; sessions reset on restart")
	}

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      api.NewServer(svc, users, sessions, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", httpSrv.Addr, "backend", cfg.StoreBackend)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// buildStores selects entry and identity backends from configuration.
// The returned cleanup closes any connections the stores do not own.
func buildStores(cfg config.Config, logger *slog.Logger) (store.Store, identity.Store, func(), error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, nil, noop, fmt.Errorf("POSTGRES_DSN required for postgres backend")
		}
		db, err := sqlx.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		entries := postgres.New(db, postgres.WithLogger(logger))
		users := identity.NewPostgresStore(db)
		return entries, users, func() { db.Close() }, nil

	case "mongo":
		if cfg.MongoURI == "" {
			return nil, nil, noop, fmt.Errorf("MONGO_URI required for mongo backend")
		}
		client, err := mongo.Connect(mongooptions.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, noop, fmt.Errorf("connect mongo: %w", err)
		}
		entries := mongostore.New(client,
			mongostore.WithDatabase(cfg.MongoDB),
			mongostore.WithLogger(logger),
		)
		// Accounts live in memory when entries are on mongo; point
		// POSTGRES_DSN at a database to persist them instead.
		var users identity.Store = identity.NewMemoryStore()
		cleanup := func() { _ = client.Disconnect(context.Background()) }
		if cfg.PostgresDSN != "" {
			db, err := sqlx.Open("postgres", cfg.PostgresDSN)
			if err != nil {
				cleanup()
				return nil, nil, noop, fmt.Errorf("open postgres: %w", err)
			}
			users = identity.NewPostgresStore(db)
			pgCleanup := cleanup
			cleanup = func() { db.Close(); pgCleanup() }
		} else {
			logger.Warn("mongo backend without POSTGRES_DSN; accounts are not persisted")
		}
		return entries, users, cleanup, nil

	case "memory":
		return memory.New(), identity.NewMemoryStore(), noop, nil

	default:
		return nil, nil, noop, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
