package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (app *application) registerRoutes(router *chi.Mux) {
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/v1/health", http.StatusSeeOther)
	})

	router.Route("/v1", func(route chi.Router) {
		route.Get("/health", app.healthCheckHandler)

		route.Route("/assets", func(route chi.Router) {
			route.Use(app.AuthTokenMiddleware)

			route.Post("/remote", app.uploadRemoteAssetHandler)
			route.Post("/{kind}", app.uploadAssetHandler)
			route.Get("/{assetID}", app.getAssetHandler)
			route.Delete("/{assetID}", app.deleteAssetHandler)
		})
	})
}
