// Package sender запускает воркер отправки кодов подтверждения почты.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/resource-store/internal/config"
	"github.com/magabrotheeeer/resource-store/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/resource-store/internal/services/sender"
)

const drainTimeout = 15 * time.Second

// App воркер очереди писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к брокеру и объявляет очередь писем.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	newTransport := smtp.NewTransport(cfg.SMTP, logger)
	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.New(newTransport, logger),
		logger:        logger,
	}, nil
}

// Run отправляет письма до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	done, err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueVerification, a.senderService.SendVerificationCode, a.logger)
	if err != nil {
		a.logger.Error("failed to start verification consumer", sl.Err(err))
		a.close()
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")
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
}
