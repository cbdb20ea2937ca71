// Package resourcestore собирает HTTP API магазина ресурсов.
package resourcestore

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	adminaccount "github.com/magabrotheeeer/resource-store/internal/http/handlers/admin/account"
	admincategories "github.com/magabrotheeeer/resource-store/internal/http/handlers/admin/categories"
	adminlogin "github.com/magabrotheeeer/resource-store/internal/http/handlers/admin/login"
	adminorders "github.com/magabrotheeeer/resource-store/internal/http/handlers/admin/orders"
	adminsubcategories "github.com/magabrotheeeer/resource-store/internal/http/handlers/admin/subcategories"
	admintags "github.com/magabrotheeeer/resource-store/internal/http/handlers/admin/tags"
	adminusers "github.com/magabrotheeeer/resource-store/internal/http/handlers/admin/users"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/auth/check"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/auth/sendcode"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/catalog/meta"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/payment/notify"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/payment/precreate"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/payment/query"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/resource/access"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/resource/detail"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/resource/download"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/resource/list"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/resource/neighbours"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/resource/restrictions"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/user/avatar"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/user/orders"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/user/profile"
	"github.com/magabrotheeeer/resource-store/internal/http/handlers/user/quota"
	"github.com/magabrotheeeer/resource-store/internal/http/middlewarectx"
	"github.com/magabrotheeeer/resource-store/internal/lib/jwt"
	"github.com/magabrotheeeer/resource-store/internal/obs"
	adminservice "github.com/magabrotheeeer/resource-store/internal/services/admin"
	authservice "github.com/magabrotheeeer/resource-store/internal/services/auth"
	catalogservice "github.com/magabrotheeeer/resource-store/internal/services/catalog"
	paymentservice "github.com/magabrotheeeer/resource-store/internal/services/payment"
)

// Deps зависимости маршрутов.
type Deps struct {
	Auth         *authservice.Service
	Catalog      *catalogservice.Service
	Payment      *paymentservice.Service
	Admin        *adminservice.Service
	SiteMaker    jwt.Maker
	AdminMaker   jwt.Maker
	Limiter      *middlewarectx.Limiter
	SecureCookie bool
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		obs.Instrument,
	)

	limited := middlewarectx.RateLimitMiddleware(d.Limiter, logger)

	r.Route("/api", func(r chi.Router) {
		// Уведомления шлюза приходят без cookie и проверяются подписью.
		r.Post("/pay/alipay/notify", notify.New(logger, d.Payment).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Session(d.SiteMaker, middlewarectx.CookieSite, jwt.RoleUser, false, logger))

			r.Route("/auth", func(r chi.Router) {
				r.With(limited).Post("/login", login.New(logger, d.Auth, d.SecureCookie).ServeHTTP)
				r.With(limited).Post("/register", register.New(logger, d.Auth).ServeHTTP)
				r.With(limited).Post("/send-code", sendcode.New(logger, d.Auth).ServeHTTP)
				r.Post("/check", check.New(logger, d.Auth).ServeHTTP)
				r.Post("/logout", logout.New(middlewarectx.CookieSite, d.SecureCookie).ServeHTTP)
				r.Get("/me", me.New().ServeHTTP)
			})

			r.Route("/resources", func(r chi.Router) {
				r.Get("/", list.New(logger, d.Catalog).ServeHTTP)
				r.Get("/prev-next", neighbours.New(logger, d.Catalog).ServeHTTP)
				r.Post("/access", access.New(logger, d.Catalog).ServeHTTP)
				r.Get("/{id}", detail.New(logger, d.Catalog).ServeHTTP)
				r.Get("/{id}/restrictions", restrictions.New(logger, d.Catalog).ServeHTTP)
				r.Post("/{id}/download", download.New(logger, d.Catalog).ServeHTTP)
			})

			r.Get("/categories", meta.Categories(logger, d.Catalog).ServeHTTP)
			r.Get("/tags", meta.Tags(logger, d.Catalog).ServeHTTP)
			r.Get("/site/settings", meta.SiteSettings(logger, d.Catalog).ServeHTTP)
			r.Get("/vip/plans", meta.VipPlans(logger, d.Catalog).ServeHTTP)

			r.With(limited).Post("/pay/alipay/precreate", precreate.New(logger, d.Payment).ServeHTTP)
			r.Post("/pay/alipay/query", query.New(logger, d.Payment).ServeHTTP)

			// Личный кабинет доступен только с действующей сессией
			r.Route("/user", func(r chi.Router) {
				r.Use(middlewarectx.Session(d.SiteMaker, middlewarectx.CookieSite, jwt.RoleUser, true, logger))
				r.Get("/me", profile.New(logger, d.Auth).ServeHTTP)
				r.Get("/orders", orders.New(logger, d.Auth).ServeHTTP)
				r.Get("/quota", quota.New(logger, d.Catalog).ServeHTTP)
				r.Post("/avatar", avatar.New(logger, d.Auth).ServeHTTP)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(limited).Post("/login", adminlogin.New(logger, d.Admin, d.SecureCookie).ServeHTTP)
			r.Post("/logout", logout.New(middlewarectx.CookieAdmin, d.SecureCookie).ServeHTTP)

			// Группа с сессией администратора
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.Session(d.AdminMaker, middlewarectx.CookieAdmin, jwt.RoleAdmin, true, logger))

				account := adminaccount.New(logger, d.Admin, d.SecureCookie)
				r.Get("/account", account.Get)
				r.Put("/account", account.Update)

				categories := admincategories.New(logger, d.Admin)
				r.Get("/categories", categories.List)
				r.Post("/categories", categories.Create)
				r.Put("/categories/{id}", categories.Update)
				r.Delete("/categories/{id}", categories.Delete)

				subcategories := adminsubcategories.New(logger, d.Admin)
				r.Get("/subcategories", subcategories.List)
				r.Post("/subcategories", subcategories.Create)
				r.Put("/subcategories/{id}", subcategories.Update)
				r.Delete("/subcategories/{id}", subcategories.Delete)

				tags := admintags.New(logger, d.Admin)
				r.Get("/tags", tags.List)
				r.Post("/tags", tags.Create)
				r.Put("/tags/{id}", tags.Update)
				r.Delete("/tags/{id}", tags.Delete)

				users := adminusers.New(logger, d.Admin)
				r.Get("/users", users.List)
				r.Put("/users/{id}", users.Update)
				r.Delete("/users/{id}", users.Delete)

				ordersAdmin := adminorders.New(logger, d.Admin)
				r.Get("/orders", ordersAdmin.List)
				r.Get("/orders/{id}", ordersAdmin.Get)
				r.Put("/orders/{id}", ordersAdmin.Update)
			})
		})
	})

	r.Handle("/metrics", obs.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
