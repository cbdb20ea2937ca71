// Package neighbours возвращает предыдущий и следующий ресурсы по ID.
package neighbours

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

// Service определяет интерфейс поиска соседей.
type Service interface {
	Neighbours(ctx context.Context, id int64) (*models.Neighbours, error)
}

// Handler обрабатывает запросы соседних ресурсов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Предыдущий и следующий ресурсы
// @Tags Resources
// @Produce  json
// @Param id query int true "ID ресурса"
// @Success 200 {object} response.Response{data=models.Neighbours}
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/resources/prev-next [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.resource.neighbours"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := response.QueryID(r, "id")
	if id == nil {
		response.Fail(w, r, http.StatusBadRequest, "invalid resource id")
		return
	}
	n, err := h.service.Neighbours(r.Context(), *id)
	if err != nil {
		log.Error("failed to get neighbours", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	render.JSON(w, r, response.OKWithData(n))
}
