// Package avatar обновляет адрес аватара пользователя текущей сессии.
package avatar

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
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

// Request новый адрес аватара.
type Request struct {
	AvatarURL string `json:"avatarUrl" validate:"required,max=500"`
}

// Data ответ после обновления.
type Data struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

// Service определяет интерфейс обновления аватара.
type Service interface {
	UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error
}

// Handler обрабатывает запросы обновления аватара.
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
// @Summary Обновить аватар
// @Tags User
// @Accept  json
// @Produce  json
// @Param request body Request true "Адрес аватара"
// @Success 200 {object} response.Response{data=Data}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 404 {object} response.ErrorResponse "Пользователь удалён"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/user/avatar [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.avatar"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	claims, ok := middlewarectx.ClaimsFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	err := h.service.UpdateAvatar(r.Context(), claims.UserID, req.AvatarURL)
	if errors.Is(err, storage.ErrNotFound) {
		response.Fail(w, r, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		log.Error("failed to update avatar", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	render.JSON(w, r, response.OKWithData(Data{Username: claims.Username, AvatarURL: req.AvatarURL}))
}
