// Package auth содержит логику учётных записей пользователей сайта:
// регистрацию по коду из письма, вход, профиль и заказы.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/magabrotheeeer/resource-store/internal/lib/jwt"
	"github.com/magabrotheeeer/resource-store/internal/lib/password"
	"github.com/magabrotheeeer/resource-store/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

// Ошибки, которые обработчики отображают как ошибки валидации.
var (
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	ErrAlreadyRegistered  = errors.New("username or email already registered")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")
)

// CodeTTL время жизни кода подтверждения.
const CodeTTL = 10 * time.Minute

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	GetUserByLogin(ctx context.Context, identifier string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CheckUserTaken(ctx context.Context, username, email string) (*bool, *bool, error)
	RegisterUser(ctx context.Context, user models.User, verificationID int64) (int64, error)
	CreateVerification(ctx context.Context, v models.EmailVerification) (int64, error)
	FindVerification(ctx context.Context, email, code string) (*models.EmailVerification, error)
	UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
}

// Publisher публикует задания воркерам.
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, message any) error
}

// Session выпущенный сессионный токен.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// RegisterInput данные формы регистрации.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Code     string
}

// Service сервис учётных записей пользователей.
type Service struct {
	users     UserRepository
	maker     jwt.Maker
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// New создает новый экземпляр Service.
func New(users UserRepository, maker jwt.Maker, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		users:     users,
		maker:     maker,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Login проверяет пароль по имени или адресу и выпускает токен site_token.
// Неизвестный пользователь и неверный пароль неразличимы для клиента.
func (s *Service) Login(ctx context.Context, identifier, rawPassword string) (*models.User, *Session, error) {
	const op = "auth.Login"
	user, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(identifier))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.Warn("stored password hash is unusable", slog.Int64("user_id", user.ID), sl.Err(err))
		}
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, session, nil
}

func (s *Service) issue(user *models.User) (*Session, error) {
	token, exp, err := s.maker.GenerateToken(user.ID, user.Username, jwt.RoleUser)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp}, nil
}

// CheckAvailability сообщает, заняты ли имя и адрес. Пустые значения дают nil.
func (s *Service) CheckAvailability(ctx context.Context, username, email string) (*bool, *bool, error) {
	const op = "auth.CheckAvailability"
	usernameTaken, emailTaken, err := s.users.CheckUserTaken(ctx, strings.TrimSpace(username), strings.TrimSpace(email))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return usernameTaken, emailTaken, nil
}

// SendCode сохраняет новый код подтверждения и ставит письмо в очередь.
func (s *Service) SendCode(ctx context.Context, email string) (time.Time, error) {
	const op = "auth.SendCode"
	email = strings.TrimSpace(email)

	_, emailTaken, err := s.users.CheckUserTaken(ctx, "", email)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if emailTaken != nil && *emailTaken {
		return time.Time{}, ErrAlreadyRegistered
	}

	code, err := newCode()
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	expiresAt := s.now().Add(CodeTTL)
	if _, err := s.users.CreateVerification(ctx, models.EmailVerification{
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
	}); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	msg := models.VerificationMessage{Email: email, Code: code, ExpiresAt: expiresAt}
	if err := s.publisher.Publish(ctx, rabbitmq.ExchangeNotifications, rabbitmq.RoutingVerification, msg); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return expiresAt, nil
}

// Register создаёт пользователя с подтверждённым адресом и гасит код.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "auth.Register"
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	usernameTaken, emailTaken, err := s.users.CheckUserTaken(ctx, in.Username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if (usernameTaken != nil && *usernameTaken) || (emailTaken != nil && *emailTaken) {
		return nil, ErrAlreadyRegistered
	}

	ev, err := s.users.FindVerification(ctx, in.Email, strings.TrimSpace(in.Code))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ev.ExpiresAt.Before(s.now()) {
		return nil, ErrCodeExpired
	}

	hashed, err := password.GetHash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{Username: in.Username, Email: in.Email, PasswordHash: hashed, EmailVerified: true}
	id, err := s.users.RegisterUser(ctx, user, ev.ID)
	switch {
	case errors.Is(err, storage.ErrAlreadyExists):
		return nil, ErrAlreadyRegistered
	case errors.Is(err, storage.ErrNotFound):
		// код погасили параллельной регистрацией
		return nil, ErrInvalidCode
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.ID = id
	return &user, nil
}

// Me возвращает пользователя текущей сессии.
func (s *Service) Me(ctx context.Context, userID int64) (*models.User, error) {
	const op = "auth.Me"
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdateAvatar сохраняет адрес аватара пользователя.
func (s *Service) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error {
	const op = "auth.UpdateAvatar"
	if err := s.users.UpdateAvatar(ctx, userID, strings.TrimSpace(avatarURL)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Orders возвращает заказы пользователя, новые первыми.
func (s *Service) Orders(ctx context.Context, userID int64) ([]models.Order, error) {
	const op = "auth.Orders"
	orders, err := s.users.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

// newCode возвращает шестизначный код подтверждения.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
