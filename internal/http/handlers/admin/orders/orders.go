// Package orders реализует просмотр и ручную правку заказов в админке.
package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/http/handlers/admin/adminresp"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/services/admin"
)

// UpdateRequest правка заказа. paidAt: null сбрасывает время оплаты.
type UpdateRequest struct {
	Status      *string         `json:"status"`
	TradeNo     *string         `json:"tradeNo"`
	ProductName *string         `json:"productName"`
	PaidAt      json.RawMessage `json:"paidAt" swaggertype:"string"`
}

// Service описывает операции над заказами.
type Service interface {
	ListOrders(ctx context.Context, f models.OrderFilter) (*models.Page[models.Order], error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	UpdateOrder(ctx context.Context, id int64, upd models.OrderAdminUpdate) (*models.Order, error)
}

// Handler обрабатывает /api/admin/orders.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// List godoc
// @Summary Заказы
// @Tags Admin
// @Produce  json
// @Param status query string false "Статус" Enums(pending, success, closed)
// @Param userId query int false "Пользователь"
// @Param page query int false "Страница" default(1)
// @Param size query int false "Размер страницы" default(20)
// @Success 200 {object} response.Response{data=models.Page[models.Order]}
// @Failure 400 {object} response.ErrorResponse "Неизвестный статус"
// @Router /api/admin/orders [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListOrders(r.Context(), models.OrderFilter{
		Status: r.URL.Query().Get("status"),
		UserID: response.QueryID(r, "userId"),
		Page:   response.QueryInt(r, "page", 1),
		Size:   response.QueryInt(r, "size", admin.DefaultPageSize),
	})
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.orders.list"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(page))
}

// Get godoc
// @Summary Заказ
// @Tags Admin
// @Produce  json
// @Param id path int true "ID заказа"
// @Success 200 {object} response.Response{data=models.Order}
// @Failure 404 {object} response.ErrorResponse
// @Router /api/admin/orders/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := adminresp.ID(w, r)
	if !ok {
		return
	}
	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.orders.get"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(o))
}

// Update godoc
// @Summary Изменить заказ
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID заказа"
// @Param request body UpdateRequest true "Изменения"
// @Success 200 {object} response.Response{data=models.Order}
// @Failure 400 {object} response.ErrorResponse "Неизвестный статус"
// @Failure 404 {object} response.ErrorResponse
// @Router /api/admin/orders/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := adminresp.ID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if !adminresp.Decode(w, r, &req) {
		return
	}
	o, err := h.service.UpdateOrder(r.Context(), id, models.OrderAdminUpdate{
		Status:      req.Status,
		TradeNo:     req.TradeNo,
		ProductName: req.ProductName,
		ClearPaidAt: string(req.PaidAt) == "null",
	})
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.orders.update"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(o))
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
