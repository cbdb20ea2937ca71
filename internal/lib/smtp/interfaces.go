// Package smtp предоставляет SMTP-транспорт для отправки писем.
package smtp

import (
	"context"

	"github.com/wneessen/go-mail"
)

// TransportInterface интерфейс для SMTP транспорта.
type TransportInterface interface {
	Send(ctx context.Context, msg *mail.Msg) error
	GetSMTPUser() string
}
