// Package users реализует просмотр и правку пользователей сайта в админке.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/http/handlers/admin/adminresp"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/services/admin"
)

// UpdateRequest изменяемые поля. Отсутствующее поле не меняется,
// пароль короче шести символов игнорируется.
type UpdateRequest struct {
	Username      *string `json:"username"`
	Email         *string `json:"email"`
	EmailVerified *bool   `json:"emailVerified"`
	Password      *string `json:"password"`
}

// Service описывает операции над пользователями.
type Service interface {
	ListUsers(ctx context.Context, q string, page, size int) (*models.Page[models.UserSummary], error)
	UpdateUser(ctx context.Context, id int64, in admin.UserUpdateInput) (*models.UserSummary, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Handler обрабатывает /api/admin/users.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// List godoc
// @Summary Пользователи
// @Tags Admin
// @Produce  json
// @Param q query string false "Подстрока имени или e-mail"
// @Param page query int false "Страница" default(1)
// @Param size query int false "Размер страницы" default(20)
// @Success 200 {object} response.Response{data=models.Page[models.UserSummary]}
// @Router /api/admin/users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListUsers(r.Context(),
		r.URL.Query().Get("q"),
		response.QueryInt(r, "page", 1),
		response.QueryInt(r, "size", admin.DefaultPageSize),
	)
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.users.list"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(page))
}

// Update godoc
// @Summary Изменить пользователя
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID пользователя"
// @Param request body UpdateRequest true "Изменения"
// @Success 200 {object} response.Response{data=models.UserSummary}
// @Failure 400 {object} response.ErrorResponse "Имя или e-mail заняты"
// @Failure 404 {object} response.ErrorResponse
// @Router /api/admin/users/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := adminresp.ID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if !adminresp.Decode(w, r, &req) {
		return
	}
	u, err := h.service.UpdateUser(r.Context(), id, admin.UserUpdateInput{
		Username:      req.Username,
		Email:         req.Email,
		EmailVerified: req.EmailVerified,
		Password:      req.Password,
	})
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.users.update"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(u))
}

// Delete godoc
// @Summary Удалить пользователя
// @Tags Admin
// @Produce  json
// @Param id path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/admin/users/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.users.delete")
	id, ok := adminresp.ID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		adminresp.Fail(w, r, log, err)
		return
	}
	log.Info("user deleted", slog.Int64("user_id", id))
	render.JSON(w, r, response.OK())
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
