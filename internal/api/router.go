package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Post("/upload", h.Upload)
		r.Post("/clear", h.ClearIndex)
		r.Post("/chat", h.Chat)
		r.Get("/history/{sessionID}", h.ChatHistory)
		r.Post("/extract", h.Extract)
	})

	// messaging gateway webhook
	r.Post("/twilio", h.TwilioWebhook)

	return r
}
