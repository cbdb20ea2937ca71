// Package sendcode реализует HTTP-обработчик выдачи кода подтверждения e-mail.
package sendcode

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/services/auth"
)

// Request адрес, на который отправляется код.
type Request struct {
	Email string `json:"email" validate:"required,email"`
}

// Data срок действия выданного кода.
type Data struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service описывает интерфейс выдачи кода.
type Service interface {
	SendCode(ctx context.Context, email string) (time.Time, error)
}

// Handler обрабатывает запросы на отправку кода.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Отправка кода подтверждения
// @Description Сохраняет шестизначный код и ставит письмо в очередь отправки.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Адрес e-mail"
// @Success 200 {object} response.Response{data=Data}
// @Failure 400 {object} response.ErrorResponse "Некорректный адрес или адрес уже зарегистрирован"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/send-code [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.sendcode"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	expiresAt, err := h.service.SendCode(r.Context(), req.Email)
	if errors.Is(err, auth.ErrAlreadyRegistered) {
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Error("failed to issue verification code", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "failed to send verification code")
		return
	}

	render.JSON(w, r, response.OKWithData(Data{ExpiresAt: expiresAt}))
}
