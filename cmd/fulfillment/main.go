// Package main содержит точку входа воркера выдачи доступа после оплаты.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/resource-store/internal/app/fulfillment"
	"github.com/magabrotheeeer/resource-store/internal/config"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)

	logger.Info("starting fulfillment worker", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := fulfillment.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize fulfillment app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("fulfillment app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("fulfillment app stopped gracefully")
}
