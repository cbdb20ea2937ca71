// Package account отдаёт и изменяет учётную запись администратора сессии.
package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/http/handlers/admin/adminresp"
	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/models"
	"github.com/magabrotheeeer/resource-store/internal/services/admin"
)

// UpdateRequest новое имя и/или пароль. Для смены пароля нужен текущий.
type UpdateRequest struct {
	NewUsername string `json:"newUsername"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UpdateData данные после изменения.
type UpdateData struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Service описывает интерфейс учётной записи.
type Service interface {
	Account(ctx context.Context, adminID int64) (*models.AdminUser, error)
	UpdateAccount(ctx context.Context, adminID int64, upd admin.AccountUpdate) (*models.AdminUser, *admin.Session, error)
}

// Handler обрабатывает /api/admin/account.
type Handler struct {
	log          *slog.Logger
	service      Service
	secureCookie bool
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, secureCookie bool) *Handler {
	return &Handler{log: log, service: service, secureCookie: secureCookie}
}

// Get godoc
// @Summary Учётная запись администратора
// @Tags Admin
// @Produce  json
// @Success 200 {object} response.Response{data=models.AdminUser}
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/admin/account [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.account.get")
	id, ok := adminresp.AdminID(w, r)
	if !ok {
		return
	}
	a, err := h.service.Account(r.Context(), id)
	if err != nil {
		adminresp.Fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(a))
}

// Update godoc
// @Summary Изменить имя или пароль администратора
// @Description При смене имени выпускается новая cookie admin_token.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body UpdateRequest true "Изменения"
// @Success 200 {object} response.Response{data=UpdateData}
// @Failure 400 {object} response.ErrorResponse "Имя занято, неверный пароль или нечего менять"
// @Failure 401 {object} response.ErrorResponse
// @Router /api/admin/account [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.account.update")
	id, ok := adminresp.AdminID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if !adminresp.Decode(w, r, &req) {
		return
	}

	a, session, err := h.service.UpdateAccount(r.Context(), id, admin.AccountUpdate{
		NewUsername: req.NewUsername,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		adminresp.Fail(w, r, log, err)
		return
	}
	if session != nil {
		middlewarectx.SetCookie(w, middlewarectx.CookieAdmin, session.Token, session.ExpiresAt, h.secureCookie)
	}
	log.Info("admin account updated", slog.Int64("admin_id", a.ID))
	render.JSON(w, r, response.OKWithData(UpdateData{ID: a.ID, Username: a.Username}))
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
