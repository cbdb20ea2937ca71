// Package notify принимает асинхронные уведомления Alipay об оплате.
//
// Шлюз ожидает текстовый ответ: "success" подтверждает приём, всё остальное
// приводит к повторной отправке уведомления.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/services/payment"
)

const (
	ackSuccess = "success"
	ackFail    = "fail"
)

// Service обрабатывает проверенные уведомления.
type Service interface {
	HandleNotify(ctx context.Context, params url.Values) error
}

// Handler принимает уведомления шлюза.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Уведомление Alipay
// @Description Проверяет подпись RSA2 и применяет статус сделки к заказу.
// @Tags Payments
// @Accept  x-www-form-urlencoded
// @Produce  plain
// @Success 200 {string} string "success"
// @Failure 400 {string} string "fail"
// @Failure 500 {string} string "fail"
// @Router /api/pay/alipay/notify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.notify"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseForm(); err != nil {
		log.Error("failed to parse notification form", sl.Err(err))
		write(w, r, http.StatusBadRequest, ackFail)
		return
	}

	err := h.service.HandleNotify(r.Context(), r.PostForm)
	switch {
	case errors.Is(err, payment.ErrInvalidSignature):
		write(w, r, http.StatusBadRequest, ackFail)
	case err != nil:
		log.Error("failed to process notification", sl.Err(err))
		write(w, r, http.StatusInternalServerError, ackFail)
	default:
		write(w, r, http.StatusOK, ackSuccess)
	}
}

func write(w http.ResponseWriter, r *http.Request, status int, body string) {
	render.Status(r, status)
	render.PlainText(w, r, body)
}
