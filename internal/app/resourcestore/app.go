package resourcestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"google.golang.org/grpc"

	"github.com/magabrotheeeer/resource-store/internal/cache"
	"github.com/magabrotheeeer/resource-store/internal/config"
	"github.com/magabrotheeeer/resource-store/internal/grpc/server"
	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/lib/jwt"
	"github.com/magabrotheeeer/resource-store/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/migrations"
	"github.com/magabrotheeeer/resource-store/internal/paymentprovider/alipay"
	adminservice "github.com/magabrotheeeer/resource-store/internal/services/admin"
	authservice "github.com/magabrotheeeer/resource-store/internal/services/auth"
	catalogservice "github.com/magabrotheeeer/resource-store/internal/services/catalog"
	paymentservice "github.com/magabrotheeeer/resource-store/internal/services/payment"
	"github.com/magabrotheeeer/resource-store/internal/storage/repository"
)

const (
	shutdownTimeout = 15 * time.Second
	healthInterval  = 10 * time.Second
)

// App HTTP API магазина вместе с gRPC-сервером готовности.
type App struct {
	server     *http.Server
	grpcServer *grpc.Server
	listener   net.Listener
	health     *server.HealthServer
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
	conn       *amqp.Connection
	publisher  *rabbitmq.Publisher
}

// New подключается к зависимостям, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app *App, err error) {
	const op = "resourcestore.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// Ресурсы, открытые до ошибки, закрываются в обратном порядке.
	var closers []func() error
	closers = append(closers, db.Close)
	defer func() {
		if err == nil {
			return
		}
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	closers = append(closers, cacheRedis.Close)

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	closers = append(closers, conn.Close)

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.AllQueues())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	publisher := rabbitmq.NewPublisher(ch)
	closers = append(closers, publisher.Close)

	alipayClient, err := alipay.NewClient(cfg.Alipay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	siteMaker := jwt.NewJWTMaker(cfg.Session.SiteSecret, cfg.Session.SiteTTL)
	adminMaker := jwt.NewJWTMaker(cfg.Session.AdminSecret, cfg.Session.AdminTTL)

	adminService := adminservice.New(db, cacheRedis, adminMaker, logger)
	if err = adminService.Bootstrap(ctx, cfg.AdminBootstrap); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:         authservice.New(db, siteMaker, publisher, logger),
		Catalog:      catalogservice.New(db, cacheRedis, logger),
		Payment:      paymentservice.New(alipayClient, db, publisher, logger),
		Admin:        adminService,
		SiteMaker:    siteMaker,
		AdminMaker:   adminMaker,
		Limiter:      middlewarectx.NewLimiter(cfg.HTTPServer.RateLimit, cfg.HTTPServer.RateBurst),
		SecureCookie: cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	lis, err := net.Listen("tcp", cfg.GRPCHealthAddress)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	health := server.NewHealthServer(logger, healthInterval, map[string]server.Check{
		"postgres": db.Ping,
		"redis":    cacheRedis.Ping,
		"rabbitmq": func(context.Context) error {
			if conn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		},
	})
	grpcServer := grpc.NewServer()
	health.Register(grpcServer)

	return &App{
		server:     srv,
		grpcServer: grpcServer,
		listener:   lis,
		health:     health,
		logger:     logger,
		db:         db,
		cache:      cacheRedis,
		conn:       conn,
		publisher:  publisher,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливается.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go a.health.Watch(watchCtx)

	go func() {
		a.logger.Info("gRPC health service listening on", slog.String("address", a.listener.Addr().String()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()

	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down HTTP server gracefully")
	a.health.Shutdown()
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}
	a.grpcServer.GracefulStop()
	a.close()
	return runErr
}

func (a *App) close() {
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
