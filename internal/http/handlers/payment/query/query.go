// Package query обрабатывает запрос статуса сделки Alipay.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/http/handlers/payment/precreate"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/services/payment"
)

// Request номер заказа.
type Request struct {
	OutTradeNo string `json:"outTradeNo"`
}

// Service определяет интерфейс запроса статуса.
type Service interface {
	Query(ctx context.Context, outTradeNo string) (*payment.QueryResult, error)
}

// Handler обрабатывает запросы статуса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статус сделки Alipay
// @Description Возвращает статус сделки. Проверенный ответ шлюза синхронизирует заказ.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Номер заказа"
// @Success 200 {object} response.Response{data=payment.QueryResult}
// @Failure 400 {object} response.ErrorResponse "Не указан номер заказа"
// @Failure 500 {object} precreate.ProviderFailure "Ошибка шлюза"
// @Router /api/pay/alipay/query [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.query"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.service.Query(r.Context(), req.OutTradeNo)
	var providerErr *payment.ProviderError
	switch {
	case errors.Is(err, payment.ErrMissingOutTradeNo):
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.As(err, &providerErr):
		log.Error("provider query failed", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, precreate.ProviderFailure{
			Message: providerErr.Message,
			Data:    providerErr.Raw,
		})
		return
	case err != nil:
		log.Error("query failed", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.JSON(w, r, response.OKWithData(res))
}
