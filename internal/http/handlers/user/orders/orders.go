// Package orders отдаёт заказы пользователя текущей сессии.
package orders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/models"
)

// Service определяет интерфейс получения заказов.
type Service interface {
	Orders(ctx context.Context, userID int64) ([]models.Order, error)
}

// Handler обрабатывает запросы списка заказов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Заказы пользователя
// @Description Новые заказы идут первыми.
// @Tags User
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.Order}
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/user/orders [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.orders"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	claims, ok := middlewarectx.ClaimsFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}
	list, err := h.service.Orders(r.Context(), claims.UserID)
	if err != nil {
		log.Error("failed to list orders", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Response{
			Success: false,
			Message: err.Error(),
			Data:    []models.Order{},
		})
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	render.JSON(w, r, response.OKWithData(list))
}
