// Package catalog отдаёт витрину магазина: списки и карточки ресурсов,
// категории, метки, настройки сайта и тарифы VIP. Справочники читаются через
// кэш, решение о скачивании принимает пакет access.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/resource-store/internal/access"
	"github.com/magabrotheeeer/resource-store/internal/cache"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

// Параметры пагинации списка ресурсов.
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// ErrInvalidSort неизвестный порядок сортировки.
var ErrInvalidSort = errors.New("sort must be one of latest, downloads, views")

// Repository описывает контракт хранилища каталога.
type Repository interface {
	GetResource(ctx context.Context, id int64) (*models.Resource, error)
	ListResources(ctx context.Context, f models.ResourceFilter) ([]models.ResourceSummary, int, error)
	ResourceNeighbours(ctx context.Context, id int64) (*models.Neighbours, error)
	IncrementResourceViews(ctx context.Context, id int64) (int, error)
	ListCategoryTree(ctx context.Context) ([]models.Category, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetSiteSettings(ctx context.Context) (*models.SiteSettings, error)
	ListVipPlans(ctx context.Context) ([]models.VipPlan, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	HasResourceAccess(ctx context.Context, userID, resourceID int64) (bool, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш.
	Set(ctx context.Context, key string, value any) error
}

// AccessInfo сохранённый доступ пользователя к ресурсу.
type AccessInfo struct {
	HasAccess bool `json:"hasAccess"`
	IsVip     bool `json:"isVip"`
}

// Service сервис витрины.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
	now   func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

// NormalizeFilter приводит параметры страницы к допустимым значениям и
// проверяет сортировку. Пустая сортировка означает latest.
func NormalizeFilter(f models.ResourceFilter) (models.ResourceFilter, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 {
		f.Size = DefaultPageSize
	}
	if f.Size > MaxPageSize {
		f.Size = MaxPageSize
	}
	switch f.Sort {
	case "":
		f.Sort = models.SortLatest
	case models.SortLatest, models.SortDownloads, models.SortViews:
	default:
		return f, ErrInvalidSort
	}
	return f, nil
}

func filterKey(f models.ResourceFilter) string {
	id := func(p *int64) string {
		if p == nil {
			return "-"
		}
		return strconv.FormatInt(*p, 10)
	}
	return fmt.Sprintf("c=%s:s=%s:t=%s:%s:%d:%d", id(f.CategoryID), id(f.SubcategoryID), id(f.TagID), f.Sort, f.Page, f.Size)
}

// ListResources возвращает страницу ресурсов.
func (s *Service) ListResources(ctx context.Context, f models.ResourceFilter) (*models.Page[models.ResourceSummary], error) {
	const op = "catalog.ListResources"
	f, err := NormalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cache.KeyResourceList(filterKey(f)), func() (*models.Page[models.ResourceSummary], error) {
		items, total, err := s.repo.ListResources(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &models.Page[models.ResourceSummary]{Items: items, Total: total, Page: f.Page, Size: f.Size}, nil
	})
}

// GetResource возвращает карточку ресурса со ссылками и учитывает просмотр.
// Карточка берётся из кэша, счётчик просмотров в ней всегда свежий.
func (s *Service) GetResource(ctx context.Context, id int64) (*models.Resource, error) {
	const op = "catalog.GetResource"
	log := s.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(ctx)))

	res, err := s.resource(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.repo.IncrementResourceViews(ctx, id)
	if err != nil {
		log.Warn("failed to count view", slog.Int64("resource_id", id), sl.Err(err))
		return res, nil
	}
	card := *res
	card.ViewCount = views
	return &card, nil
}

// Neighbours возвращает соседние ресурсы.
func (s *Service) Neighbours(ctx context.Context, id int64) (*models.Neighbours, error) {
	const op = "catalog.Neighbours"
	n, err := s.repo.ResourceNeighbours(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// Categories возвращает дерево категорий.
func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	const op = "catalog.Categories"
	return cached(ctx, s, cache.KeyCategoryTree, func() ([]models.Category, error) {
		tree, err := s.repo.ListCategoryTree(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return tree, nil
	})
}

// Tags возвращает все метки.
func (s *Service) Tags(ctx context.Context) ([]models.Tag, error) {
	const op = "catalog.Tags"
	return cached(ctx, s, cache.KeyTags, func() ([]models.Tag, error) {
		tags, err := s.repo.ListTags(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return tags, nil
	})
}

// SiteSettings возвращает метаданные сайта.
func (s *Service) SiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	const op = "catalog.SiteSettings"
	return cached(ctx, s, cache.KeySiteSettings, func() (*models.SiteSettings, error) {
		settings, err := s.repo.GetSiteSettings(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return settings, nil
	})
}

// VipPlans возвращает тарифы VIP.
func (s *Service) VipPlans(ctx context.Context) ([]models.VipPlan, error) {
	const op = "catalog.VipPlans"
	return cached(ctx, s, cache.KeyVipPlans, func() ([]models.VipPlan, error) {
		plans, err := s.repo.ListVipPlans(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return plans, nil
	})
}

// Restrictions вычисляет право скачать ресурс. userID == nil означает
// анонимного посетителя.
func (s *Service) Restrictions(ctx context.Context, resourceID int64, userID *int64) (*access.Restrictions, error) {
	res, user, err := s.subject(ctx, resourceID, userID)
	if err != nil {
		return nil, err
	}
	r := access.Check(res, user, s.now())
	return &r, nil
}

// Download повторно проверяет доступ и оформляет скачивание.
func (s *Service) Download(ctx context.Context, resourceID int64, userID *int64) (*access.DownloadResult, error) {
	const op = "catalog.Download"
	log := s.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(ctx)))

	res, user, err := s.subject(ctx, resourceID, userID)
	if err != nil {
		return nil, err
	}
	result := access.ProcessDownload(res, user, s.now())
	if result.Success {
		log.Info("download granted", slog.Int64("resource_id", resourceID), slog.String("transaction_id", result.TransactionID))
	}
	return &result, nil
}

// Quota возвращает дневную квоту пользователя.
func (s *Service) Quota(ctx context.Context, userID int64) (models.QuotaInfo, error) {
	user, err := s.user(ctx, &userID)
	if err != nil {
		return models.QuotaInfo{}, err
	}
	return access.Quota(user, s.now()), nil
}

// CheckAccess сообщает, действует ли у пользователя VIP или выданный доступ к
// ресурсу. Пользователь берётся из сессии, иначе ищется по имени. Неизвестный
// пользователь доступа не имеет.
func (s *Service) CheckAccess(ctx context.Context, resourceID int64, userID *int64, username string) (AccessInfo, error) {
	const op = "catalog.CheckAccess"

	var (
		user *models.User
		err  error
	)
	if userID != nil {
		user, err = s.user(ctx, userID)
	} else if username != "" {
		user, err = s.repo.GetUserByUsername(ctx, username)
		if errors.Is(err, storage.ErrNotFound) {
			user, err = nil, nil
		}
	}
	if err != nil {
		return AccessInfo{}, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return AccessInfo{}, nil
	}
	if user.EffectiveVip(s.now()) {
		return AccessInfo{HasAccess: true, IsVip: true}, nil
	}
	ok, err := s.repo.HasResourceAccess(ctx, user.ID, resourceID)
	if err != nil {
		return AccessInfo{}, fmt.Errorf("%s: %w", op, err)
	}
	return AccessInfo{HasAccess: ok}, nil
}

func (s *Service) subject(ctx context.Context, resourceID int64, userID *int64) (*models.Resource, *models.User, error) {
	res, err := s.resource(ctx, resourceID)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return res, user, nil
}

func (s *Service) resource(ctx context.Context, id int64) (*models.Resource, error) {
	const op = "catalog.resource"
	return cached(ctx, s, cache.KeyResource(id), func() (*models.Resource, error) {
		res, err := s.repo.GetResource(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return res, nil
	})
}

// user загружает пользователя сессии. Удалённый пользователь считается
// анонимным.
func (s *Service) user(ctx context.Context, id *int64) (*models.User, error) {
	const op = "catalog.user"
	if id == nil {
		return nil, nil
	}
	user, err := s.repo.GetUserByID(ctx, *id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// cached читает значение из кэша, а при промахе вызывает load и сохраняет
// результат. Ошибки кэша только логируются.
func cached[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	log := s.log.With(slog.String("key", key), slog.String("request_id", middleware.GetReqID(ctx)))

	var result T
	found, err := s.cache.Get(ctx, key, &result)
	if err != nil {
		log.Warn("failed to read from cache", sl.Err(err))
	}
	if found && err == nil {
		return result, nil
	}

	result, err = load()
	if err != nil {
		return result, err
	}
	if err := s.cache.Set(ctx, key, result); err != nil {
		log.Warn("failed to add to cache", sl.Err(err))
	}
	return result, nil
}
