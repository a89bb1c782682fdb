package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Get("/catalog", c.getCatalog)
		r.Post("/catalog/reload", c.reloadCatalog)
		r.Get("/presets", c.getPresets)

		r.Route("/configs", func(r chi.Router) {
			r.Get("/", c.listConfigs)
			r.Delete("/{config-id}", c.deleteConfig)
		})

		r.Route("/walls", func(r chi.Router) {
			r.Post("/", c.createWall)
			r.Route("/{wall-id}", func(r chi.Router) {
				r.Get("/", c.getWall)
				r.Delete("/", c.removeWall)
				r.Get("/ws", c.connectWall)
			})
		})
	})

	return r
}
