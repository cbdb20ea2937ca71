// Package restrictions возвращает решение о праве скачать ресурс для текущей сессии.
package restrictions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/access"
	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

// Service определяет интерфейс проверки доступа.
type Service interface {
	Restrictions(ctx context.Context, resourceID int64, userID *int64) (*access.Restrictions, error)
}

// Handler обрабатывает запросы ограничений.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Ограничения на скачивание
// @Description Анонимный посетитель получает отказ с причиной входа.
// @Tags Resources
// @Produce  json
// @Param id path int true "ID ресурса"
// @Success 200 {object} response.Response{data=access.Restrictions}
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Ресурс не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/resources/{id}/restrictions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.resource.restrictions"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := response.ParseID(r, "id")
	if !ok {
		response.Fail(w, r, http.StatusBadRequest, "invalid resource id")
		return
	}

	restr, err := h.service.Restrictions(r.Context(), id, middlewarectx.UserID(r.Context()))
	if errors.Is(err, storage.ErrNotFound) {
		response.Fail(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if err != nil {
		log.Error("failed to check restrictions", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	render.JSON(w, r, response.OKWithData(restr))
}
