// Package access сообщает, есть ли у пользователя VIP или купленный доступ к ресурсу.
package access

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/services/catalog"
)

// Request ресурс и, без сессии, имя пользователя.
type Request struct {
	ResourceID int64  `json:"resourceId"`
	Username   string `json:"username"`
}

// Service определяет интерфейс проверки доступа.
type Service interface {
	CheckAccess(ctx context.Context, resourceID int64, userID *int64, username string) (catalog.AccessInfo, error)
}

// Handler обрабатывает запросы проверки доступа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Проверка доступа к ресурсу
// @Description Пользователь берётся из сессии, иначе из поля username.
// @Tags Resources
// @Accept  json
// @Produce  json
// @Param request body Request true "Ресурс и пользователь"
// @Success 200 {object} response.Response{data=catalog.AccessInfo}
// @Failure 400 {object} response.ErrorResponse "Нет ресурса или пользователя"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/resources/access [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.resource.access"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := middlewarectx.UserID(r.Context())
	username := strings.TrimSpace(req.Username)
	if req.ResourceID <= 0 || (userID == nil && username == "") {
		response.Fail(w, r, http.StatusBadRequest, "resourceId and user are required")
		return
	}

	info, err := h.service.CheckAccess(r.Context(), req.ResourceID, userID, username)
	if err != nil {
		log.Error("access check failed", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	render.JSON(w, r, response.OKWithData(info))
}
