// Package me сообщает, есть ли у запроса действующая сессия пользователя.
// Данные берутся только из токена, без обращения к базе.
package me

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
)

// User данные пользователя из токена.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Response ответ проверки сессии.
type Response struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

// Handler отвечает на /api/auth/me.
type Handler struct{}

// New создает новый экземпляр Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP godoc
// @Summary Текущая сессия
// @Tags Auth
// @Produce  json
// @Success 200 {object} Response
// @Router /api/auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := middlewarectx.ClaimsFrom(r.Context())
	if !ok {
		render.JSON(w, r, Response{Authenticated: false})
		return
	}
	render.JSON(w, r, Response{
		Authenticated: true,
		User:          &User{ID: claims.UserID, Username: claims.Username},
	})
}
