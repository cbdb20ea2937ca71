// Package sender отправляет письма с кодами подтверждения, полученные из
// очереди уведомлений.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/lib/smtp"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/obs"
)

// Service отправляет письма через SMTP.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
	now       func() time.Time
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
		now:       time.Now,
	}
}

// SendVerificationCode отправляет код подтверждения из тела сообщения.
// Просроченный код не отправляется, сообщение подтверждается.
func (s *Service) SendVerificationCode(ctx context.Context, body []byte) error {
	const op = "sender.SendVerificationCode"
	log := s.log.With(slog.String("op", op))

	var message models.VerificationMessage
	if err := json.Unmarshal(body, &message); err != nil {
		log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	if !message.ExpiresAt.IsZero() && !s.now().Before(message.ExpiresAt) {
		log.Info("verification code expired before sending, skipped")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	minutes := int(message.ExpiresAt.Sub(s.now()).Round(time.Minute).Minutes())
	subject := "Код подтверждения регистрации"
	bodyText := fmt.Sprintf("Здравствуйте!\n\nВаш код подтверждения: %s\n\nКод действует %d мин. Если вы не регистрировались, просто проигнорируйте это письмо.",
		message.Code, max(minutes, 1))

	err := s.sendEmail(ctx, []string{message.Email}, subject, bodyText)
	obs.ObserveMail(err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) sendEmail(ctx context.Context, to []string, subject, bodyText string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("invalid sender address", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}
	if err := msg.To(to...); err != nil {
		s.log.Error("invalid recipient address", sl.Err(err))
		return err
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, bodyText)

	if err := s.transport.Send(ctx, msg); err != nil {
		s.log.Error("failed to send email", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Int("recipients", len(to)))
	return nil
}
