// Package adminresp содержит общие для обработчиков админки разбор
// запроса и сопоставление ошибок сервиса с кодами ответа.
package adminresp

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
	"github.com/magabrotheeeer/resource-store/internal/services/admin"
	"github.com/magabrotheeeer/resource-store/internal/storage"
)

// Fail записывает ответ по ошибке сервиса админки.
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		response.Fail(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		response.Fail(w, r, http.StatusBadRequest, conflictMessage(err))
	case errors.Is(err, admin.ErrEmptyName),
		errors.Is(err, admin.ErrInvalidStatus),
		errors.Is(err, admin.ErrNothingToUpdate),
		errors.Is(err, admin.ErrUsernameTaken),
		errors.Is(err, admin.ErrWrongPassword):
		response.Fail(w, r, http.StatusBadRequest, err.Error())
	default:
		log.Error("admin operation failed", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, err.Error())
	}
}

// conflictMessage называет поле, чья уникальность нарушена. Имена
// ограничений postgres строит как <таблица>_<колонка>_key.
func conflictMessage(err error) string {
	var unique *storage.UniqueError
	if errors.As(err, &unique) {
		switch unique.Constraint {
		case "users_username_key", "admin_users_username_key":
			return "username already exists"
		case "users_email_key":
			return "email already exists"
		}
	}
	return "name already exists"
}

// Decode читает JSON-тело запроса. При ошибке ответ уже записан.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// ID читает параметр маршрута id. При ошибке ответ уже записан.
func ID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := response.ParseID(r, "id")
	if !ok {
		response.Fail(w, r, http.StatusBadRequest, "invalid id")
	}
	return id, ok
}

// AdminID возвращает администратора сессии. При ошибке ответ уже записан.
func AdminID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	claims, ok := middlewarectx.ClaimsFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}
	return claims.UserID, true
}
