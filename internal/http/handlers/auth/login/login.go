// Package login реализует HTTP-обработчик входа пользователя сайта.
//
// Пользователь указывает имя или e-mail и пароль. При успехе выпускается
// cookie site_token, а в ответе возвращаются id, имя и адрес.
package login

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
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/services/auth"
)

// Request структура входных данных для входа.
type Request struct {
	Identifier string `json:"identifier" validate:"required,max=100"`
	Password   string `json:"password" validate:"required"`
}

// Data данные пользователя в успешном ответе.
type Data struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Service описывает интерфейс бизнес-логики входа.
type Service interface {
	Login(ctx context.Context, identifier, password string) (*models.User, *auth.Session, error)
}

// Handler обрабатывает HTTP-запросы входа.
type Handler struct {
	log          *slog.Logger
	service      Service
	validate     *validator.Validate
	secureCookie bool
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, secureCookie bool) *Handler {
	return &Handler{
		log:          log,
		service:      service,
		validate:     validator.New(),
		secureCookie: secureCookie,
	}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Проверяет имя или e-mail и пароль, устанавливает cookie site_token.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные пользователя"
// @Success 200 {object} response.Response{data=Data}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос или неверные учетные данные"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, session, err := h.service.Login(r.Context(), req.Identifier, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		log.Info("login rejected")
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Error("login failed", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "login failed")
		return
	}

	middlewarectx.SetCookie(w, middlewarectx.CookieSite, session.Token, session.ExpiresAt, h.secureCookie)
	log.Info("login success", slog.Int64("user_id", user.ID))
	render.JSON(w, r, response.OKWithData(Data{ID: user.ID, Username: user.Username, Email: user.Email}))
}
