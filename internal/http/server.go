package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	Router *chi.Mux
}

func NewServer(handler *Handler, feed *FeedHandler) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.CreateOrder)
		r.Get("/", handler.BrowseOrders)
		r.Get("/{orderId}", handler.GetOrder)
		r.Get("/{orderId}/contributions", handler.ListContributions)
		r.Post("/{orderId}/accept", handler.AcceptOrder)
		r.Post("/{orderId}/contributions", handler.Contribute)
		r.Post("/{orderId}/complete", handler.CompleteOrder)
		r.Post("/{orderId}/cancel", handler.CancelOrder)
		r.Post("/{orderId}/incomplete", handler.MarkIncomplete)
		r.Post("/{orderId}/collect", handler.CollectOrder)
		r.Post("/{orderId}/reclaim", handler.ReclaimOrder)
	})

	r.Route("/players/{playerId}", func(r chi.Router) {
		r.Get("/orders", handler.PlayerOrders)
		r.Get("/claimed", handler.PlayerClaimed)
		r.Delete("/orders", handler.DelistPlayer)
	})

	r.Route("/container", func(r chi.Router) {
		r.Get("/", handler.ListContainer)
		r.Post("/{slotId}/withdraw", handler.WithdrawContainer)
	})

	r.Post("/mail/claim", handler.ClaimMail)

	r.Route("/notifier", func(r chi.Router) {
		r.Put("/", handler.SetNotifier)
		r.Get("/subscriptions", handler.ListSubscriptions)
		r.Post("/subscriptions", handler.Subscribe)
		r.Delete("/subscriptions", handler.Unsubscribe)
	})

	r.Get("/feed", feed.Serve)

	return &Server{Router: r}
}
