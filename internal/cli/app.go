package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pkordes/labelcase/internal/config"
	"github.com/pkordes/labelcase/internal/hooks"
	"github.com/pkordes/labelcase/internal/lowercase"
	"github.com/pkordes/labelcase/internal/metrics"
	"github.com/pkordes/labelcase/internal/repo"
	"github.com/pkordes/labelcase/internal/service"
)

// app is the wired host with the lowercase plugin registered. Every command
// that touches the database builds one.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	pool     *pgxpool.Pool
	db       *sql.DB
	hooks    *hooks.Registry
	labels   *service.LabelService
	items    *service.ItemService
	plugin   *lowercase.Plugin
	registry *prometheus.Registry
}

// newLogger builds the JSON logger used by every command.
// An unknown level falls back to info.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// newApp connects to the database and wires repositories, services, hooks,
// metrics and the plugin. The caller must call close.
func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	// pgxpool.New does not open connections immediately; the ping does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	reg := hooks.New()
	labels := service.NewLabelService(repo.NewLabelRepo(pool), reg)
	items := service.NewItemService(repo.NewItemRepo(pool), labels, reg)
	plugin := lowercase.New(labels, items,
		lowercase.WithLogger(log),
		lowercase.WithMetrics(metrics.New(registry)),
		lowercase.WithPageSize(cfg.BulkPageSize),
		lowercase.WithTranslator(lowercase.MessageTable(cfg.Messages)),
	)
	if err := plugin.Register(reg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("register plugin: %w", err)
	}

	return &app{
		cfg:      cfg,
		log:      log,
		pool:     pool,
		db:       stdlib.OpenDBFromPool(pool),
		hooks:    reg,
		labels:   labels,
		items:    items,
		plugin:   plugin,
		registry: registry,
	}, nil
}

func (a *app) close() {
	_ = a.db.Close()
	a.pool.Close()
}

// loadConfig reads configuration and builds the logger writing to w.
func loadConfig(w io.Writer) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, newLogger(w, cfg.LogLevel), nil
}
