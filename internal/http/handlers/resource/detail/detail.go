// Package detail обрабатывает получение карточки ресурса со ссылками на скачивание.
package detail

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
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

// Service определяет интерфейс получения ресурса.
type Service interface {
	GetResource(ctx context.Context, id int64) (*models.Resource, error)
}

// Handler обрабатывает запросы карточки ресурса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Карточка ресурса
// @Tags Resources
// @Produce  json
// @Param id path int true "ID ресурса"
// @Success 200 {object} response.Response{data=models.Resource}
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Ресурс не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/resources/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.resource.detail"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := response.ParseID(r, "id")
	if !ok {
		response.Fail(w, r, http.StatusBadRequest, "invalid resource id")
		return
	}

	res, err := h.service.GetResource(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		response.Fail(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if err != nil {
		log.Error("failed to get resource", slog.Int64("id", id), sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}
