package websocket

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"hamkae-backend/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Restrict in production
		return true
	},
}

// HandleWebSocket upgrades HTTP connections to the live marker feed.
// Browsers cannot set headers on WebSocket requests, so the token comes
// in a query parameter instead of the Authorization header.
func HandleWebSocket(hub *Hub, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := middleware.ParseToken(tokenString, jwtSecret)
		if err != nil {
			log.Printf("❌ Invalid token on websocket connect: %v", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(claims.UserID, conn, hub)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
