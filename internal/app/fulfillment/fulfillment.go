// Package fulfillment запускает воркер, выдающий доступ после оплаты заказа.
package fulfillment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/resource-store/internal/config"
	"github.com/magabrotheeeer/resource-store/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	fulfillmentservice "github.com/magabrotheeeer/resource-store/internal/services/fulfillment"
	"github.com/magabrotheeeer/resource-store/internal/storage/repository"
)

const drainTimeout = 15 * time.Second

// App воркер очереди оплаченных заказов.
type App struct {
	db      *repository.Storage
	conn    *amqp.Connection
	ch      *amqp.Channel
	service *fulfillmentservice.Service
	logger  *slog.Logger
}

// New подключается к базе и брокеру и объявляет очередь воркера.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.fulfillment.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.FulfillmentQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		db:      db,
		conn:    conn,
		ch:      ch,
		service: fulfillmentservice.New(db, logger),
		logger:  logger,
	}, nil
}

// Run обрабатывает события до отмены ctx и дожидается начатых обработчиков.
func (a *App) Run(ctx context.Context) error {
	done, err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueFulfillment, a.service.HandleOrderPaid, a.logger)
	if err != nil {
		a.logger.Error("failed to start fulfillment consumer", sl.Err(err))
		a.close()
		return err
	}
	a.logger.Info("fulfillment worker started", slog.String("queue", rabbitmq.QueueFulfillment))

	<-ctx.Done()
	a.logger.Info("fulfillment worker shutting down gracefully")
	select {
	case <-done:
	case <-time.After(drainTimeout):
		a.logger.Warn("in-flight messages not finished before timeout")
	}
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
