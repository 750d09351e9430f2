package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budgetlite/internal/cli"
	"budgetlite/internal/core"
	apphttp "budgetlite/internal/http"
	applog "budgetlite/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger := cli.SetupLogger("info", applog.ComponentApp)
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	app, err := cli.NewApp(context.Background(), cfg, logger, core.SystemClock{})
	if err != nil {
		logger.Error("Failed to initialize application", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Stats:     app.Stats,
		Ledger:    app.Ledger,
		Formatter: app.Formatter,
		Clock:     app.Clock,
		Logger:    logger,
		Ready:     app.Ready,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := app.Close(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})
	app.Start(ctx)

	logger.Info("Starting budgetlite server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"currency", app.Formatter.Currency(),
		"time_zone", cfg.TimeZone,
		"amqp", app.Events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
