package gpttools

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/auth/login"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/auth/logout"
	gpthandler "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/gpt"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/health"
	servicecreate "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/service/create"
	serviceforuser "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/service/foruser"
	servicelist "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/service/list"
	serviceread "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/service/read"
	serviceupdate "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/service/update"
	trackerhandler "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/tracker"
	usercreate "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/user/create"
	userlist "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/user/list"
	userread "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/user/read"
	usersetactive "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/user/setactive"
	userupdate "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/user/update"
	userupdateadmin "github.com/ldavidflorez/gpt-tools-api/internal/http/handlers/user/updateadmin"
	"github.com/ldavidflorez/gpt-tools-api/internal/http/middlewarectx"
	authservice "github.com/ldavidflorez/gpt-tools-api/internal/services/auth"
	catalogservice "github.com/ldavidflorez/gpt-tools-api/internal/services/catalog"
	completionservice "github.com/ldavidflorez/gpt-tools-api/internal/services/completion"
	trackerservice "github.com/ldavidflorez/gpt-tools-api/internal/services/tracker"
	userservice "github.com/ldavidflorez/gpt-tools-api/internal/services/user"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.Service,
	userService *userservice.Service,
	catalogService *catalogservice.Service,
	completionService *completionservice.Service,
	trackerService *trackerservice.Service,
	serviceIDs gpthandler.ServiceIDs,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Get("/ping", health.Ping)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/login", login.New(logger, authService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/logout", logout.New(logger, authService).ServeHTTP)

			r.Post("/users", usercreate.New(logger, userService).ServeHTTP)
			r.Get("/users", userlist.New(logger, userService).ServeHTTP)
			r.Get("/users/{user_id}", userread.New(logger, userService).ServeHTTP)
			r.Put("/users/{user_id}", userupdate.New(logger, userService).ServeHTTP)
			r.Put("/users/{user_id}/admin", userupdateadmin.New(logger, userService).ServeHTTP)
			r.Patch("/users/{user_id}/active", usersetactive.New(logger, userService).ServeHTTP)

			r.Post("/services", servicecreate.New(logger, catalogService).ServeHTTP)
			r.Get("/services", servicelist.New(logger, catalogService).ServeHTTP)
			r.Get("/services/user/{user_id}", serviceforuser.New(logger, catalogService).ServeHTTP)
			r.Get("/services/{service_id}", serviceread.New(logger, catalogService).ServeHTTP)
			r.Put("/services/{service_id}", serviceupdate.New(logger, catalogService).ServeHTTP)

			gptHandler := gpthandler.New(logger, completionService, serviceIDs)
			r.Post("/services/gpt-3/lang-detection", gptHandler.LangDetection)
			r.Post("/services/gpt-3/lang-translation", gptHandler.Translation)
			r.Post("/services/gpt-3/sentiment-detect", gptHandler.Sentiment)
			r.Post("/services/gpt-3/intent-detection", gptHandler.Intent)
			r.Post("/services/gpt-3/summarize", gptHandler.Summarize)
			r.Post("/services/gpt-3/writer", gptHandler.Writer)

			tracker := trackerhandler.New(logger, trackerService)
			r.Get("/tracker/historical", tracker.All)
			r.Get("/tracker/historical/user/{user_id}", tracker.ByUser)
			r.Get("/tracker/historical/service/{service_id}", tracker.ByService)
			r.Get("/tracker/historical/{user_id}/{service_id}", tracker.ByUserService)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
