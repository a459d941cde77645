package cli

import (
	"fmt"
	"io"
	"log/slog"

	"account-query/internal/config"
	"account-query/internal/db"
	"account-query/internal/db/repository"
	"account-query/internal/query"
	"account-query/internal/txretry"
)

// app holds the resolved configuration and, once opened, the store and the
// repositories built on it.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	store     *db.Store
	users     *repository.UserRepo
	resources *repository.ResourceRepo
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// open connects to the configured database, migrating SQLite files when
// enabled, and builds the repositories. It is a no-op once opened.
func (a *app) open() error {
	if a.store != nil {
		return nil
	}
	store, err := db.OpenStore(a.cfg.Connection, a.cfg.ReadConnection, a.cfg.ReadPoolSize)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if store.Dialect() == query.DialectSQLite && a.cfg.AutoMigrate {
		if err := db.RunMigrations(store.Writer()); err != nil {
			_ = store.Close()
			return fmt.Errorf("migrate: %w", err)
		}
	}

	retrier := txretry.New(a.cfg.RetryPolicy(), a.logger)
	a.store = store
	a.users = repository.NewUserRepo(store, retrier, a.logger)
	a.resources = repository.NewResourceRepo(store, retrier, a.logger)
	a.logger.Debug("database opened", "dialect", store.Dialect().String())
	return nil
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close database", "error", err)
	}
	a.store = nil
}
