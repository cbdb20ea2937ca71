// Package check реализует HTTP-обработчик проверки занятости имени и e-mail.
package check

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
)

// Request проверяемые значения. Хотя бы одно должно быть задано.
type Request struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Data результат проверки. null означает, что значение не проверялось.
type Data struct {
	UsernameTaken *bool `json:"usernameTaken"`
	EmailTaken    *bool `json:"emailTaken"`
}

// Service описывает интерфейс проверки.
type Service interface {
	CheckAvailability(ctx context.Context, username, email string) (*bool, *bool, error)
}

// Handler обрабатывает запросы проверки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проверка имени и e-mail
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Имя и/или e-mail"
// @Success 200 {object} response.Response{data=Data}
// @Failure 400 {object} response.ErrorResponse "Не передано ни одно значение"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/check [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.check"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" && req.Email == "" {
		response.Fail(w, r, http.StatusBadRequest, "username or email is required")
		return
	}

	usernameTaken, emailTaken, err := h.service.CheckAvailability(r.Context(), req.Username, req.Email)
	if err != nil {
		log.Error("availability check failed", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "check failed")
		return
	}
	render.JSON(w, r, response.OKWithData(Data{UsernameTaken: usernameTaken, EmailTaken: emailTaken}))
}
