// Package logout реализует выход из сессии: cookie с токеном затирается.
package logout

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
)

// Handler очищает cookie сессии.
type Handler struct {
	cookieName   string
	secureCookie bool
}

// New создает Handler для cookie cookieName.
func New(cookieName string, secureCookie bool) *Handler {
	return &Handler{cookieName: cookieName, secureCookie: secureCookie}
}

// ServeHTTP godoc
// @Summary Выход
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response
// @Router /api/auth/logout [post]
// @Router /api/admin/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	middlewarectx.ClearCookie(w, h.cookieName, h.secureCookie)
	render.JSON(w, r, response.OK())
}
