// Package admin содержит логику административной панели: вход
// администратора, его учётную запись и правку каталога, пользователей и
// заказов.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/resource-store/internal/cache"
	"github.com/magabrotheeeer/resource-store/internal/config"
	"github.com/magabrotheeeer/resource-store/internal/lib/jwt"
	"github.com/magabrotheeeer/resource-store/internal/lib/password"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

// Ошибки, которые обработчики отображают как ошибки валидации.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrNothingToUpdate    = errors.New("no fields to update")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidStatus      = errors.New("status must be one of pending, success, closed")
	ErrEmptyName          = errors.New("name must not be empty")
)

// Параметры пагинации списков админки.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// minUserPasswordLength пароль пользователя короче этого значения при правке
// администратором не меняется.
const minUserPasswordLength = 6

// RoleSuper роль администратора, созданного при первом запуске.
const RoleSuper = "super"

// Repository описывает контракт хранилища для админки.
type Repository interface {
	GetAdminByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	GetAdminByID(ctx context.Context, id int64) (*models.AdminUser, error)
	CountAdmins(ctx context.Context) (int, error)
	CreateAdmin(ctx context.Context, admin models.AdminUser) (int64, error)
	UpdateAdminAccount(ctx context.Context, id int64, username, passwordHash *string) (*models.AdminUser, error)
	TouchAdminLogin(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string, sort int) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string, sort *int) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListSubcategories(ctx context.Context, categoryID int64) ([]models.Subcategory, error)
	CreateSubcategory(ctx context.Context, categoryID int64, name string, sort int) (*models.Subcategory, error)
	UpdateSubcategory(ctx context.Context, id int64, name string, sort *int) (*models.Subcategory, error)
	DeleteSubcategory(ctx context.Context, id int64) error
	ListTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, name string) (*models.Tag, error)
	UpdateTag(ctx context.Context, id int64, name string) (*models.Tag, error)
	DeleteTag(ctx context.Context, id int64) error

	ListUsers(ctx context.Context, q string, page, size int) ([]models.UserSummary, int, error)
	UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (*models.UserSummary, error)
	DeleteUser(ctx context.Context, id int64) error

	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrderAdmin(ctx context.Context, id int64, upd models.OrderAdminUpdate) (*models.Order, error)
}

// Invalidator сбрасывает ключи кэша по префиксу.
type Invalidator interface {
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Session выпущенный сессионный токен администратора.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AccountUpdate изменение учётной записи администратора.
type AccountUpdate struct {
	NewUsername string
	OldPassword string
	NewPassword string
}

// UserUpdateInput правка пользователя. nil означает «не менять».
type UserUpdateInput struct {
	Username      *string
	Email         *string
	EmailVerified *bool
	Password      *string
}

// Service сервис админки.
type Service struct {
	repo        Repository
	invalidator Invalidator
	maker       jwt.Maker
	log         *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, invalidator Invalidator, maker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		invalidator: invalidator,
		maker:       maker,
		log:         log,
	}
}

// Bootstrap создаёт первого администратора из конфигурации, если в базе нет
// ни одного. Без пароля в конфигурации ничего не делает.
func (s *Service) Bootstrap(ctx context.Context, cfg config.AdminBootstrap) error {
	const op = "admin.Bootstrap"
	log := s.log.With(slog.String("op", op))

	n, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n > 0 {
		return nil
	}
	if cfg.Password == "" || strings.TrimSpace(cfg.Username) == "" {
		log.Warn("no administrators and no bootstrap credentials configured")
		return nil
	}
	hash, err := password.GetAdminHash(cfg.Password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.repo.CreateAdmin(ctx, models.AdminUser{
		Username:     strings.TrimSpace(cfg.Username),
		PasswordHash: hash,
		Role:         RoleSuper,
		Status:       models.AdminStatusActive,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("bootstrap administrator created", slog.Int64("admin_id", id))
	return nil
}

// Login проверяет учётные данные администратора и выпускает сессию.
func (s *Service) Login(ctx context.Context, username, pass string) (*models.AdminUser, *Session, error) {
	const op = "admin.Login"
	log := s.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(ctx)))

	a, err := s.repo.GetAdminByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareAdminHash(a.PasswordHash, pass); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if a.Status == models.AdminStatusDisabled {
		return nil, nil, ErrAccountDisabled
	}
	if err := s.repo.TouchAdminLogin(ctx, a.ID); err != nil {
		log.Warn("failed to record login time", slog.Int64("admin_id", a.ID), sl.Err(err))
	}
	session, err := s.issue(a)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("admin logged in", slog.Int64("admin_id", a.ID))
	return a, session, nil
}

// Account возвращает учётную запись администратора.
func (s *Service) Account(ctx context.Context, adminID int64) (*models.AdminUser, error) {
	const op = "admin.Account"
	a, err := s.repo.GetAdminByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// UpdateAccount меняет имя и/или пароль администратора. Для смены пароля
// нужен текущий пароль. При смене имени выпускается новая сессия.
func (s *Service) UpdateAccount(ctx context.Context, adminID int64, upd AccountUpdate) (*models.AdminUser, *Session, error) {
	const op = "admin.UpdateAccount"

	a, err := s.repo.GetAdminByID(ctx, adminID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	var username, hash *string
	newUsername := strings.TrimSpace(upd.NewUsername)
	if newUsername != "" && newUsername != a.Username {
		_, err := s.repo.GetAdminByUsername(ctx, newUsername)
		if err == nil {
			return nil, nil, ErrUsernameTaken
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		username = &newUsername
	}
	if upd.NewPassword != "" {
		if err := password.CompareAdminHash(a.PasswordHash, upd.OldPassword); err != nil {
			if errors.Is(err, password.ErrMismatch) {
				return nil, nil, ErrWrongPassword
			}
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		h, err := password.GetAdminHash(upd.NewPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		hash = &h
	}
	if username == nil && hash == nil {
		return nil, nil, ErrNothingToUpdate
	}

	updated, err := s.repo.UpdateAdminAccount(ctx, adminID, username, hash)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil, nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if username == nil {
		return updated, nil, nil
	}
	session, err := s.issue(updated)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, session, nil
}

func (s *Service) issue(a *models.AdminUser) (*Session, error) {
	token, expiresAt, err := s.maker.GenerateToken(a.ID, a.Username, jwt.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt}, nil
}

// ListCategories возвращает категории.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	const op = "admin.ListCategories"
	c, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// CreateCategory создаёт категорию.
func (s *Service) CreateCategory(ctx context.Context, name string, sort int) (*models.Category, error) {
	const op = "admin.CreateCategory"
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.CreateCategory(ctx, name, sort)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return c, nil
}

// UpdateCategory переименовывает категорию.
func (s *Service) UpdateCategory(ctx context.Context, id int64, name string, sort *int) (*models.Category, error) {
	const op = "admin.UpdateCategory"
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.UpdateCategory(ctx, id, name, sort)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return c, nil
}

// DeleteCategory удаляет категорию.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	const op = "admin.DeleteCategory"
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return nil
}

// ListSubcategories возвращает подкатегории категории.
func (s *Service) ListSubcategories(ctx context.Context, categoryID int64) ([]models.Subcategory, error) {
	const op = "admin.ListSubcategories"
	list, err := s.repo.ListSubcategories(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// CreateSubcategory создаёт подкатегорию.
func (s *Service) CreateSubcategory(ctx context.Context, categoryID int64, name string, sort int) (*models.Subcategory, error) {
	const op = "admin.CreateSubcategory"
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	sc, err := s.repo.CreateSubcategory(ctx, categoryID, name, sort)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return sc, nil
}

// UpdateSubcategory переименовывает подкатегорию.
func (s *Service) UpdateSubcategory(ctx context.Context, id int64, name string, sort *int) (*models.Subcategory, error) {
	const op = "admin.UpdateSubcategory"
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	sc, err := s.repo.UpdateSubcategory(ctx, id, name, sort)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return sc, nil
}

// DeleteSubcategory удаляет подкатегорию.
func (s *Service) DeleteSubcategory(ctx context.Context, id int64) error {
	const op = "admin.DeleteSubcategory"
	if err := s.repo.DeleteSubcategory(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return nil
}

// ListTags возвращает метки.
func (s *Service) ListTags(ctx context.Context) ([]models.Tag, error) {
	const op = "admin.ListTags"
	tags, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tags, nil
}

// CreateTag создаёт метку.
func (s *Service) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	const op = "admin.CreateTag"
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	tag, err := s.repo.CreateTag(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return tag, nil
}

// UpdateTag переименовывает метку.
func (s *Service) UpdateTag(ctx context.Context, id int64, name string) (*models.Tag, error) {
	const op = "admin.UpdateTag"
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	tag, err := s.repo.UpdateTag(ctx, id, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return tag, nil
}

// DeleteTag удаляет метку.
func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	const op = "admin.DeleteTag"
	if err := s.repo.DeleteTag(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return nil
}

// ListUsers возвращает страницу пользователей.
func (s *Service) ListUsers(ctx context.Context, q string, page, size int) (*models.Page[models.UserSummary], error) {
	const op = "admin.ListUsers"
	page, size = normalizePage(page, size)
	items, total, err := s.repo.ListUsers(ctx, q, page, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Page[models.UserSummary]{Items: items, Total: total, Page: page, Size: size}, nil
}

// UpdateUser правит пользователя. Пароль короче шести символов игнорируется.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UserUpdateInput) (*models.UserSummary, error) {
	const op = "admin.UpdateUser"

	upd := models.UserUpdate{
		Username:      trimmed(in.Username),
		Email:         trimmed(in.Email),
		EmailVerified: in.EmailVerified,
	}
	if in.Password != nil && len(*in.Password) >= minUserPasswordLength {
		hash, err := password.GetHash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		upd.PasswordHash = &hash
	}
	u, err := s.repo.UpdateUser(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// DeleteUser удаляет пользователя.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	const op = "admin.DeleteUser"
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListOrders возвращает страницу заказов.
func (s *Service) ListOrders(ctx context.Context, f models.OrderFilter) (*models.Page[models.Order], error) {
	const op = "admin.ListOrders"
	if f.Status != "" && !validStatus(f.Status) {
		return nil, ErrInvalidStatus
	}
	f.Page, f.Size = normalizePage(f.Page, f.Size)
	items, total, err := s.repo.ListOrders(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Page[models.Order]{Items: items, Total: total, Page: f.Page, Size: f.Size}, nil
}

// GetOrder возвращает заказ.
func (s *Service) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	const op = "admin.GetOrder"
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// UpdateOrder правит заказ вручную.
func (s *Service) UpdateOrder(ctx context.Context, id int64, upd models.OrderAdminUpdate) (*models.Order, error) {
	const op = "admin.UpdateOrder"
	log := s.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(ctx)))

	if upd.Status != nil && !validStatus(*upd.Status) {
		return nil, ErrInvalidStatus
	}
	o, err := s.repo.UpdateOrderAdmin(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("order edited by admin", slog.Int64("order_id", id), slog.String("status", o.Status))
	return o, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.invalidator.InvalidatePrefix(ctx, cache.CatalogPrefix); err != nil {
		s.log.Warn("failed to invalidate catalog cache", slog.String("request_id", middleware.GetReqID(ctx)), sl.Err(err))
	}
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func validStatus(status string) bool {
	switch status {
	case models.OrderStatusPending, models.OrderStatusSuccess, models.OrderStatusClosed:
		return true
	}
	return false
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	return page, min(size, MaxPageSize)
}
