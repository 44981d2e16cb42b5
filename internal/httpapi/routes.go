package httpapi

import (
	"net/http"

	"github.com/DoyleJ11/duel-draft-backend/internal/hub"
	"github.com/DoyleJ11/duel-draft-backend/internal/store"
	"github.com/DoyleJ11/duel-draft-backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func SetupRoutes(h *hub.Hub, rec store.Recorder, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Post("/lobbies", CreateLobby(h, logger))
	r.Route("/lobbies/{code}", func(r chi.Router) {
		r.Get("/", GetLobby(h))
		r.Delete("/", DeleteLobby(h))
		r.Get("/drafts", ListDrafts(rec, logger))
	})
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, logger))

	// Ops
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}
