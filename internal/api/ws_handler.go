package api

import (
	"log"
	"net/http"

	"github.com/Safyd-Zey/backend-shelter/internal/chat"
	"github.com/Safyd-Zey/backend-shelter/internal/middleware"
	"github.com/Safyd-Zey/backend-shelter/internal/repository"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades an authenticated request to a WebSocket connection and
// registers it with the hub. The connection's identity is fixed here; every
// message the client later sends is attributed to it.
func ServeWS(h *chat.Hub, chats repository.ChatRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFrom(r.Context())
		if !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := chat.NewClient(h, conn, chats, identity)
		h.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
