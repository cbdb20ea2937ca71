// Package middlewarectx содержит HTTP middleware для сессий на cookie и
// ограничения частоты запросов.
//
// Session читает JWT из cookie, проверяет его Maker нужного домена
// (пользователи сайта или администраторы) и кладёт claims в контекст.
// В обязательном режиме запрос без действующей сессии получает 401.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/resource-store/internal/http/response"
	"github.com/magabrotheeeer/resource-store/internal/lib/jwt"
	"github.com/magabrotheeeer/resource-store/internal/lib/sl"
)

// Имена cookie сессий.
const (
	CookieSite  = "site_token"
	CookieAdmin = "admin_token"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// ClaimsKey ключ claims сессии в контексте.
const ClaimsKey Key = "claims"

// Session возвращает middleware, которое проверяет cookie cookieName.
// Токен с ролью, отличной от role, считается недействительным.
// Если required, запрос без действующей сессии завершается с 401.
func Session(maker jwt.Maker, cookieName, role string, required bool, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Session"

			claims := readClaims(r, maker, cookieName, role, log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			))
			if claims == nil {
				if required {
					response.Fail(w, r, http.StatusUnauthorized, "Unauthorized")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func readClaims(r *http.Request, maker jwt.Maker, cookieName, role string, log *slog.Logger) *jwt.Claims {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := maker.ParseToken(cookie.Value)
	if err != nil {
		log.Debug("session cookie rejected", sl.Err(err))
		return nil
	}
	if claims.Role != role {
		log.Warn("session cookie has unexpected role", slog.String("role", claims.Role))
		return nil
	}
	return claims
}

// WithClaims кладёт claims сессии в контекст.
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// ClaimsFrom возвращает claims сессии из контекста.
func ClaimsFrom(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims)
	return claims, ok && claims != nil
}

// UserID возвращает идентификатор владельца сессии или nil.
func UserID(ctx context.Context) *int64 {
	claims, ok := ClaimsFrom(ctx)
	if !ok {
		return nil
	}
	id := claims.UserID
	return &id
}

// SetCookie записывает HTTP-only cookie сессии.
func SetCookie(w http.ResponseWriter, name, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie удаляет cookie сессии.
func ClearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
