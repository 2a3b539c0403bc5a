// Package app wires the link shortener together and runs the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	redisCache "github.com/vadimbarashkov/link-shortener/internal/adapter/cache/redis"
	delivery "github.com/vadimbarashkov/link-shortener/internal/adapter/delivery/http"
	"github.com/vadimbarashkov/link-shortener/internal/adapter/repository/memory"
	repository "github.com/vadimbarashkov/link-shortener/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/link-shortener/internal/codegen"
	"github.com/vadimbarashkov/link-shortener/internal/config"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
	"github.com/vadimbarashkov/link-shortener/internal/usecase"
	"github.com/vadimbarashkov/link-shortener/pkg/postgres"
)

type linkStore interface {
	Insert(ctx context.Context, originalURL, shortCode, ownerID string) (*entity.Link, error)
	FindByCode(ctx context.Context, shortCode string) (*entity.Link, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Link, error)
	IncrementClicks(ctx context.Context, id int64) error
}

type linkFinder interface {
	FindByCode(ctx context.Context, shortCode string) (*entity.Link, error)
}

func newLogger(env string) *httplog.Logger {
	opts := httplog.Options{
		JSON:             true,
		LogLevel:         slog.LevelInfo,
		Concise:          true,
		RequestHeaders:   true,
		MessageFieldName: "message",
	}

	if env == config.EnvDev {
		opts.JSON = false
		opts.LogLevel = slog.LevelDebug
		opts.Concise = false
	}

	return httplog.NewLogger("link-shortener", opts)
}

// openStore returns the configured link store and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (linkStore, func() error, error) {
	const op = "app.openStore"

	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage, links are lost on restart")
		return memory.NewLinkRepository(), func() error { return nil }, nil
	}

	db, err := postgres.Open(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	version, err := postgres.RunMigrations(cfg.MigrationsPath, cfg.Postgres.DSN())
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}
	logger.Info("database schema is up to date", slog.Uint64("version", uint64(version)))

	return repository.NewLinkRepository(db, cfg.Store.Timeout), db.Close, nil
}

// newHandler builds the use cases on top of store and returns the HTTP router.
// finder serves redirects and may be a cache in front of store.
func newHandler(cfg *config.Config, httpLogger *httplog.Logger, store linkStore, finder linkFinder) http.Handler {
	opts := []usecase.Option{
		usecase.WithMaxCollisionRetries(cfg.ShortCode.MaxRetries),
		usecase.WithMaxStoreRetries(cfg.Store.MaxRetries),
	}

	links := usecase.NewLinkUseCase(store, codegen.New(cfg.ShortCode.Length), httpLogger.Logger, opts...)
	resolver := usecase.NewResolver(finder, store, httpLogger.Logger, opts...)

	return delivery.NewRouter(httpLogger, cfg.BaseURL, links, resolver)
}

// Run starts the service and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	httpLogger := newLogger(cfg.Env)
	logger := httpLogger.Logger

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("failed to close store", slog.Any("err", err))
		}
	}()

	var finder linkFinder = store
	if cfg.Redis.Enabled() {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis is unreachable, cache reads will fall back to the store", slog.Any("err", err))
		}

		finder = redisCache.NewLinkCache(client, store, cfg.Redis.TTL, logger)
	}

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        newHandler(cfg, httpLogger, store, finder),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		if err := server.Shutdown(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
