// Package subcategories реализует управление подкатегориями в админке.
package subcategories

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

// Request данные подкатегории. CategoryID нужен только при создании.
type Request struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
	Sort       *int   `json:"sort"`
}

// Service описывает операции над подкатегориями.
type Service interface {
	ListSubcategories(ctx context.Context, categoryID int64) ([]models.Subcategory, error)
	CreateSubcategory(ctx context.Context, categoryID int64, name string, sort int) (*models.Subcategory, error)
	UpdateSubcategory(ctx context.Context, id int64, name string, sort *int) (*models.Subcategory, error)
	DeleteSubcategory(ctx context.Context, id int64) error
}

// Handler обрабатывает /api/admin/subcategories.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// List godoc
// @Summary Подкатегории категории
// @Tags Admin
// @Produce  json
// @Param categoryId query int true "ID категории"
// @Success 200 {object} response.Response{data=[]models.Subcategory}
// @Failure 400 {object} response.ErrorResponse "Нет categoryId"
// @Router /api/admin/subcategories [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	categoryID := response.QueryID(r, "categoryId")
	if categoryID == nil {
		response.Fail(w, r, http.StatusBadRequest, "categoryId is required")
		return
	}
	list, err := h.service.ListSubcategories(r.Context(), *categoryID)
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.subcategories.list"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(list))
}

// Create godoc
// @Summary Создать подкатегорию
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Подкатегория"
// @Success 200 {object} response.Response{data=models.Subcategory}
// @Failure 400 {object} response.ErrorResponse
// @Router /api/admin/subcategories [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !adminresp.Decode(w, r, &req) {
		return
	}
	if req.CategoryID <= 0 {
		response.Fail(w, r, http.StatusBadRequest, "categoryId is required")
		return
	}
	sort := 0
	if req.Sort != nil {
		sort = *req.Sort
	}
	s, err := h.service.CreateSubcategory(r.Context(), req.CategoryID, req.Name, sort)
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.subcategories.create"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(s))
}

// Update godoc
// @Summary Изменить подкатегорию
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID подкатегории"
// @Param request body Request true "Подкатегория"
// @Success 200 {object} response.Response{data=models.Subcategory}
// @Router /api/admin/subcategories/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := adminresp.ID(w, r)
	if !ok {
		return
	}
	var req Request
	if !adminresp.Decode(w, r, &req) {
		return
	}
	s, err := h.service.UpdateSubcategory(r.Context(), id, req.Name, req.Sort)
	if err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.subcategories.update"), err)
		return
	}
	render.JSON(w, r, response.OKWithData(s))
}

// Delete godoc
// @Summary Удалить подкатегорию
// @Tags Admin
// @Produce  json
// @Param id path int true "ID подкатегории"
// @Success 200 {object} response.Response
// @Router /api/admin/subcategories/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := adminresp.ID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSubcategory(r.Context(), id); err != nil {
		adminresp.Fail(w, r, h.logger(r, "handlers.admin.subcategories.delete"), err)
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
