// Package categories реализует управление категориями каталога в админке.
package categories

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

// Request название и порядок категории.
type Request struct {
	Name string `json:"name"`
	Sort *int   `json:"sort"`
}

// Service описывает операции над категориями.
type Service interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, name string, sort int) (*models.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string, sort *int) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// Handler обрабатывает /api/admin/categories.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// List godoc
// @Summary Категории
// @Tags Admin
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.Category}
// @Router /api/admin/categories [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListCategories(r.Context())
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.categories.list"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Create godoc
// @Summary Создать категорию
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Категория"
// @Success 200 {object} response.Response{data=models.Category}
// @Failure 400 {object} response.ErrorResponse "Пустое или занятое название"
// @Router /api/admin/categories [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !adminresp.Decode(w, r, &req) {
		return
	}
	sort := 0
	if req.Sort != nil {
		sort = *req.Sort
	}
	c, err := h.service.CreateCategory(r.Context(), req.Name, sort)
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.categories.create"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(c))
}

// Update godoc
// @Summary Изменить категорию
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID категории"
// @Param request body Request true "Категория"
// @Success 200 {object} response.Response{data=models.Category}
// @Failure 404 {object} response.ErrorResponse
// @Router /api/admin/categories/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := adminresp.ID(w, r)
	if !ok {
		return
	}
	var req Request
	if !adminresp.Decode(w, r, &req) {
		return
	}
	c, err := h.service.UpdateCategory(r.Context(), id, req.Name, req.Sort)
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.categories.update"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(c))
}

// Delete godoc
// @Summary Удалить категорию
// @Description Подкатегории удаляются вместе с категорией.
// @Tags Admin
// @Produce  json
// @Param id path int true "ID категории"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/admin/categories/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := adminresp.ID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.categories.delete"), err)
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
