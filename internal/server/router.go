package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-labs/postmind/internal/api"
	"github.com/inkwell-labs/postmind/internal/api/handlers"
	"github.com/inkwell-labs/postmind/internal/api/middleware"
)

type RouterConfig struct {
	PostHandler *handlers.PostHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/posts/{slug}", func(r chi.Router) {
		r.Post("/ask", cfg.PostHandler.Ask)
		r.Get("/chat", cfg.PostHandler.Chat)
		r.Post("/augment", cfg.PostHandler.Augment)
	})

	return r
}
