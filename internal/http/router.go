package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cartHandler *CartHandler, orderHandler *OrderHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Patch("/items/{key}", cartHandler.UpdateQuantity)
			r.Delete("/items/{key}", cartHandler.RemoveItem)
			r.Post("/note", cartHandler.SetNote)
			r.Post("/conflict/confirm", cartHandler.ConfirmConflict)
			r.Post("/conflict/cancel", cartHandler.CancelConflict)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.Checkout)
			r.Get("/", orderHandler.ListOrders)
			r.Get("/{id}", orderHandler.GetOrder)
			r.Post("/{id}/modify", orderHandler.Modify)
		})
	})

	// kitchen side; fronted by the hotel's staff auth proxy
	r.Put("/admin/orders/{id}/status", orderHandler.SetStatus)

	return r
}
