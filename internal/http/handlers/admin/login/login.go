// Package login реализует вход администратора. При успехе выпускается
// cookie admin_token.
package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/resource-store/internal/http/handlers/admin/adminresp"
	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/services/admin"
)

// Request учётные данные администратора.
type Request struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Data данные администратора в ответе.
type Data struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Service описывает интерфейс входа администратора.
type Service interface {
	Login(ctx context.Context, username, password string) (*models.AdminUser, *admin.Session, error)
}

// Handler обрабатывает вход администратора.
type Handler struct {
	log          *slog.Logger
	service      Service
	validate     *validator.Validate
	secureCookie bool
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, secureCookie bool) *Handler {
	return &Handler{log: log, service: service, validate: validator.New(), secureCookie: secureCookie}
}

// ServeHTTP godoc
// @Summary Вход администратора
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные"
// @Success 200 {object} response.Response{data=Data}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 403 {object} response.ErrorResponse "Учетная запись отключена"
// @Router /api/admin/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if !adminresp.Decode(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	a, session, err := h.service.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, admin.ErrInvalidCredentials):
		log.Info("admin login rejected", slog.String("username", req.Username))
		response.Fail(w, r, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, admin.ErrAccountDisabled):
		response.Fail(w, r, http.StatusForbidden, err.Error())
		return
	case err != nil:
		log.Error("admin login failed", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "login failed")
		return
	}

	middlewarectx.SetCookie(w, middlewarectx.CookieAdmin, session.Token, session.ExpiresAt, h.secureCookie)
	log.Info("admin logged in", slog.Int64("admin_id", a.ID))
	render.JSON(w, r, response.OKWithData(Data{ID: a.ID, Username: a.Username, Role: a.Role}))
}
