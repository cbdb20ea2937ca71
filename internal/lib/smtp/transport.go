package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/magabrotheeeer/resource-store/internal/config"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
)

const dialTimeout = 10 * time.Second

// Transport отправляет письма через почтовый сервер по STARTTLS
// с PLAIN-авторизацией.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// Send открывает соединение, отправляет письмо и закрывает соединение.
// Сервер без STARTTLS отвергается.
func (t *Transport) Send(ctx context.Context, msg *mail.Msg) error {
	const op = "smtp.Send"
	log := t.log.With(slog.String("op", op), slog.String("host", t.cfg.Host))

	client, err := t.client()
	if err != nil {
		log.Error("failed to configure SMTP client", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		log.Error("failed to send email", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (t *Transport) client() (*mail.Client, error) {
	port, err := strconv.Atoi(t.cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", t.cfg.Port, err)
	}
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(dialTimeout),
	}
	if t.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.User),
			mail.WithPassword(t.cfg.Pass),
		)
	}
	return mail.NewClient(t.cfg.Host, opts...)
}

// GetSMTPUser возвращает адрес отправителя.
func (t *Transport) GetSMTPUser() string {
	return t.cfg.User
}
