// Package list обрабатывает постраничный список ресурсов каталога.
package list

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/services/catalog"
)

// Service определяет интерфейс выборки ресурсов.
type Service interface {
	ListResources(ctx context.Context, f models.ResourceFilter) (*models.Page[models.ResourceSummary], error)
}

// Handler обрабатывает запросы списка ресурсов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список ресурсов
// @Tags Resources
// @Produce  json
// @Param page query int false "Номер страницы" default(1)
// @Param size query int false "Размер страницы" default(12)
// @Param categoryId query int false "Категория"
// @Param subcategoryId query int false "Подкатегория"
// @Param tagId query int false "Метка"
// @Param sort query string false "Сортировка" Enums(latest, downloads, views)
// @Success 200 {object} response.Response{data=models.Page[models.ResourceSummary]}
// @Failure 400 {object} response.ErrorResponse "Неизвестная сортировка"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/resources [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.resource.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	filter := models.ResourceFilter{
		CategoryID:    response.QueryID(r, "categoryId"),
		SubcategoryID: response.QueryID(r, "subcategoryId"),
		TagID:         response.QueryID(r, "tagId"),
		Sort:          r.URL.Query().Get("sort"),
		Page:          response.QueryInt(r, "page", 1),
		Size:          response.QueryInt(r, "size", catalog.DefaultPageSize),
	}

	page, err := h.service.ListResources(r.Context(), filter)
	if errors.Is(err, catalog.ErrInvalidSort) {
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Error("failed to list resources", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "failed to list resources")
		return
	}
	render.JSON(w, r, response.OKWithData(page))
}
