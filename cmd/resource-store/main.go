// Package main Resource Store API
//
// @title           Resource Store API
// @version         1.0
// @description     API магазина цифровых ресурсов: каталог, доступ, оплата через Alipay и администрирование
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey SiteCookie
// @in cookie
// @name site_token

// @securityDefinitions.apikey AdminCookie
// @in cookie
// @name admin_token
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/resource-store/internal/app/resourcestore"
	"github.com/magabrotheeeer/resource-store/internal/config"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/obs"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.New(cfg.Env, os.Stdout)

	logger.Info("starting resource-store", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))
	obs.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := resourcestore.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("resource-store stopped gracefully")
}
