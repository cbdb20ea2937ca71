// Package download оформляет скачивание ресурса после повторной проверки доступа.
package download

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/resource-store/internal/access"
	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

// Service определяет интерфейс скачивания.
type Service interface {
	Download(ctx context.Context, resourceID int64, userID *int64) (*access.DownloadResult, error)
}

// Handler обрабатывает запросы скачивания.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Скачать ресурс
// @Description Отказ возвращается с кодом 403 и причиной в поле message.
// @Tags Resources
// @Produce  json
// @Param id path int true "ID ресурса"
// @Success 200 {object} access.DownloadResult
// @Failure 403 {object} access.DownloadResult "Доступ запрещён"
// @Failure 404 {object} response.ErrorResponse "Ресурс не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/resources/{id}/download [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.resource.download"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := response.ParseID(r, "id")
	if !ok {
		response.Fail(w, r, http.StatusBadRequest, "invalid resource id")
		return
	}

	result, err := h.service.Download(r.Context(), id, middlewarectx.UserID(r.Context()))
	if errors.Is(err, storage.ErrNotFound) {
		response.Fail(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if err != nil {
		log.Error("download failed", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusForbidden
	}
	response.JSON(w, r, status, result)
}
