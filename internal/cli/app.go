package cli

import (
	"context"
	"errors"
	"fmt"

	"budgetlite/internal/amqp"
	"budgetlite/internal/backend"
	"budgetlite/internal/cache"
	"budgetlite/internal/config"
	"budgetlite/internal/core"
	"budgetlite/internal/ledger"
	applog "budgetlite/internal/log"
	"budgetlite/internal/services"
)

// App holds the services built from configuration.
type App struct {
	Config     *config.Config
	Logger     *applog.Logger
	Calendar   core.Calendar
	Clock      core.Clock
	Formatter  *core.Formatter
	Repository ledger.Repository
	Notifier   *ledger.Notifier
	Stats      *services.StatsService
	Ledger     *services.LedgerService

	// Events is nil when AMQP is disabled.
	Events *amqp.Client

	caches  *cache.Manager
	cleanup backend.CleanupFunc
}

// NewApp creates the repository selected by cfg and wires the services
// around it. Every mutation made through App.Ledger invalidates the local
// stats cache and, when AMQP is configured, is published to other instances.
func NewApp(ctx context.Context, cfg *config.Config, logger *applog.Logger, clock core.Clock) (*App, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if clock == nil {
		clock = core.SystemClock{}
	}

	cal, err := cfg.Calendar()
	if err != nil {
		return nil, err
	}
	formatter, err := cfg.Formatter()
	if err != nil {
		return nil, err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger.Logger.With(applog.FieldComponent, applog.ComponentBackend)).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Calendar:   cal,
		Clock:      clock,
		Formatter:  formatter,
		Repository: result.Repository,
		Notifier:   ledger.NewNotifier(),
		Events:     result.Events,
		caches:     cache.NewManager(),
		cleanup:    result.Cleanup,
	}

	var reports cache.Cache[services.MonthReport]
	if cfg.StatsCacheSize > 0 {
		lru := cache.NewLRUCache[services.MonthReport](cfg.StatsCacheSize, cfg.StatsCacheTTL)
		app.caches.Register(lru)
		reports = lru
	}
	app.Stats = services.NewStatsService(app.Repository, cal, reports)
	app.Ledger = services.NewLedgerService(app.Repository, app.Notifier, cal, clock)

	app.Notifier.Subscribe(app.Stats.OnChange)
	if app.Events != nil {
		app.Notifier.Subscribe(app.Events.Listener())
	}

	if cfg.SeedDefaults {
		n, err := app.Ledger.SeedDefaults(ctx)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("seed default categories: %w", err)
		}
		if n > 0 {
			logger.InfoContext(ctx, "Seeded default categories", applog.FieldOperation, applog.OpSeed, "count", n)
		}
	}
	return app, nil
}

// Start runs the background work of a long-lived process: periodic cache
// eviction and, when AMQP is configured, consumption of changes made by other
// instances. It returns immediately; the work stops when ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	if a.Config.StatsCacheSize > 0 {
		a.caches.StartCleanup(a.Config.StatsCacheTTL)
	}
	if a.Events == nil {
		return
	}

	go func() {
		err := a.Events.ConsumeLedgerChanges(ctx, func(ctx context.Context, ev ledger.ChangeEvent) error {
			a.Stats.OnChange(ctx, ev)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.ErrorContext(ctx, "Ledger change consumption failed", applog.FieldError, err)
		}
	}()
}

// Ready reports whether the repository is usable.
func (a *App) Ready(ctx context.Context) error {
	if p, ok := a.Repository.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close stops background work and releases the backend.
func (a *App) Close() error {
	a.caches.Stop()
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}
