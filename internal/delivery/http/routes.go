package http

import (
	"net/http"

	wsDelivery "grievchat/internal/delivery/websocket"

	"github.com/go-chi/chi/v5"
)

func MapHttpRoutes(r *chi.Mux, httpHandler *HttpHandler, websocketHandler *wsDelivery.WebsocketHandler, authMiddleware *AuthMiddleware) {
	r.Handle("/ws/chat", http.HandlerFunc(websocketHandler.HandleWebSocket))

	r.Route("/api/complaints", func(r chi.Router) {
		// Public tracking read, used by the replay fallback path too.
		r.Get("/track/{complaintNumber}", http.HandlerFunc(httpHandler.TrackComplaint))

		// Citizen chat and closure routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(authMiddleware.RequireUser)
			r.Get("/{complaintNumber}/chat", http.HandlerFunc(httpHandler.GetChatMessages))
			r.Post("/{complaintNumber}/chat", http.HandlerFunc(httpHandler.SaveChatMessage))
			r.Post("/{complaintNumber}/close-response", http.HandlerFunc(httpHandler.HandleCloseResponse))
		})
	})

	// Department chat and closure routes
	r.Route("/api/departments/complaints", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Use(authMiddleware.RequireDepartment)
		r.Get("/{complaintNumber}/chat", http.HandlerFunc(httpHandler.GetChatMessages))
		r.Post("/{complaintNumber}/chat", http.HandlerFunc(httpHandler.SaveChatMessage))
		r.Post("/{complaintNumber}/request-close", http.HandlerFunc(httpHandler.RequestCloseComplaint))
	})
}
