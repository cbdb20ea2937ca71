// Package meta отдаёт справочные данные каталога: категории, метки,
// настройки сайта и тарифы VIP.
package meta

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/models"
)

// Service определяет интерфейс справочников каталога.
type Service interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Tags(ctx context.Context) ([]models.Tag, error)
	SiteSettings(ctx context.Context) (*models.SiteSettings, error)
	VipPlans(ctx context.Context) ([]models.VipPlan, error)
}

// Handler отдаёт один справочник.
type Handler struct {
	log  *slog.Logger
	name string
	load func(ctx context.Context) (any, error)
}

// Categories создает Handler дерева категорий.
// @Summary Дерево категорий
// @Tags Catalog
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.Category}
// @Failure 500 {object} response.ErrorResponse
// @Router /api/categories [get]
func Categories(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, name: "categories", load: func(ctx context.Context) (any, error) {
		return service.Categories(ctx)
	}}
}

// Tags создает Handler списка меток.
// @Summary Метки
// @Tags Catalog
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.Tag}
// @Failure 500 {object} response.ErrorResponse
// @Router /api/tags [get]
func Tags(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, name: "tags", load: func(ctx context.Context) (any, error) {
		return service.Tags(ctx)
	}}
}

// SiteSettings создает Handler настроек сайта.
// @Summary Настройки сайта
// @Tags Catalog
// @Produce  json
// @Success 200 {object} response.Response{data=models.SiteSettings}
// @Failure 500 {object} response.ErrorResponse
// @Router /api/site/settings [get]
func SiteSettings(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, name: "site settings", load: func(ctx context.Context) (any, error) {
		return service.SiteSettings(ctx)
	}}
}

// VipPlans создает Handler тарифов VIP.
// @Summary Тарифы VIP
// @Tags Catalog
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.VipPlan}
// @Failure 500 {object} response.ErrorResponse
// @Router /api/vip/plans [get]
func VipPlans(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, name: "vip plans", load: func(ctx context.Context) (any, error) {
		return service.VipPlans(ctx)
	}}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.meta"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	data, err := h.load(r.Context())
	if err != nil {
		log.Error("failed to load "+h.name, sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "failed to load "+h.name)
		return
	}
	render.JSON(w, r, response.OKWithData(data))
}
