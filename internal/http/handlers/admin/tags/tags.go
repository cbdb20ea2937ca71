// Package tags реализует управление метками в админке.
package tags

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/http/handlers/admin/adminresp"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/models"
)

// Request название метки.
type Request struct {
	Name string `json:"name"`
}

// Service описывает операции над метками.
type Service interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, name string) (*models.Tag, error)
	UpdateTag(ctx context.Context, id int64, name string) (*models.Tag, error)
	DeleteTag(ctx context.Context, id int64) error
}

// Handler обрабатывает /api/admin/tags.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// List godoc
// @Summary Метки
// @Tags Admin
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.Tag}
// @Router /api/admin/tags [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListTags(r.Context())
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.tags.list"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Create godoc
// @Summary Создать метку
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Метка"
// @Success 200 {object} response.Response{data=models.Tag}
// @Failure 400 {object} response.ErrorResponse "Пустое или занятое название"
// @Router /api/admin/tags [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !adminresp.Decode(w, r, &req) {
		return
	}
	tag, err := h.service.CreateTag(r.Context(), req.Name)
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.tags.create"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(tag))
}

// Update godoc
// @Summary Переименовать метку
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID метки"
// @Param request body Request true "Метка"
// @Success 200 {object} response.Response{data=models.Tag}
// @Router /api/admin/tags/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := adminresp.ID(w, r)
	if !ok {
		return
	}
	var req Request
	if !adminresp.Decode(w, r, &req) {
		return
	}
	tag, err := h.service.UpdateTag(r.Context(), id, req.Name)
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.tags.update"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(tag))
}

// Delete godoc
// @Summary Удалить метку
// @Tags Admin
// @Produce  json
// @Param id path int true "ID метки"
// @Success 200 {object} response.Response
// @Router /api/admin/tags/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := adminresp.ID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteTag(r.Context(), id); err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.tags.delete"), err)
		return
	}
	render.JSON(w, r, response.OK())
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
