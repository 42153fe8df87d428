package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taskbridge/cloudtasks/internal/api"
	apiMiddleware "github.com/taskbridge/cloudtasks/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Only POST is routed for the execute path, so chi answers
// other methods with 405.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	executeHandler := api.NewExecuteTaskHandler(app.executor, app.logger)
	oidcAuth := apiMiddleware.NewOIDCAuthMiddleware(app.verifier, app.config.Auth.OIDCAudience, app.logger)

	r.Group(func(r chi.Router) {
		r.Use(oidcAuth.Authenticate)
		r.Post(app.config.Backend.TaskHandlerPath, executeHandler.ExecuteTask)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
