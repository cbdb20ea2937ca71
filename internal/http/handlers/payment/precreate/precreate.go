// Package precreate обрабатывает создание заказа и получение QR-кода оплаты Alipay.
package precreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/services/payment"
)

// Request представляет запрос на создание заказа.
type Request struct {
	Amount    float64 `json:"amount"`
	Subject   string  `json:"subject"`
	OrderID   string  `json:"orderId" validate:"max=64"`
	UserID    *int64  `json:"userId"`
	OrderType string  `json:"orderType"`
	ProductID *int64  `json:"productId"`
}

// ProviderFailure тело ответа при отказе платёжного шлюза.
type ProviderFailure struct {
	Success bool            `json:"success" example:"false"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty" swaggertype:"object"`
}

// Service определяет интерфейс создания заказа.
type Service interface {
	Precreate(ctx context.Context, in payment.PrecreateInput) (*payment.PrecreateResult, error)
}

// Handler обрабатывает запросы на создание заказа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать заказ Alipay
// @Description Сохраняет заказ в статусе pending и возвращает QR-код оплаты.
// @Description Пользователь берётся из сессии, при её отсутствии из поля userId.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Параметры заказа"
// @Success 200 {object} response.Response{data=payment.PrecreateResult}
// @Failure 400 {object} response.ErrorResponse "Некорректная сумма, тема или тип заказа"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} ProviderFailure "Ошибка шлюза или хранилища"
// @Router /api/pay/alipay/precreate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.precreate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userID := req.UserID
	if sessionUser := middlewarectx.UserID(r.Context()); sessionUser != nil {
		userID = sessionUser
	}

	res, err := h.service.Precreate(r.Context(), payment.PrecreateInput{
		Amount:    req.Amount,
		Subject:   req.Subject,
		OrderID:   req.OrderID,
		UserID:    userID,
		OrderType: req.OrderType,
		ProductID: req.ProductID,
	})
	var providerErr *payment.ProviderError
	switch {
	case errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, payment.ErrEmptySubject),
		errors.Is(err, payment.ErrInvalidOrderType):
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.As(err, &providerErr):
		log.Error("provider rejected precreate", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, ProviderFailure{
			Message: providerErr.Message,
			Data:    providerErr.Raw,
		})
		return
	case err != nil:
		log.Error("failed to create order", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info("order created", slog.String("out_trade_no", res.OutTradeNo))
	render.JSON(w, r, response.OKWithData(res))
}
