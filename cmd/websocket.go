package main

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"controlhub/internal/models"
)

// WebSocketManager keeps one connection per user and fans notifications
// out to their owner.
type WebSocketManager struct {
	clients    map[string]*websocket.Conn
	broadcast  chan models.Notification
	register   chan Client
	unregister chan string
}

type Client struct {
	ID     string
	Socket *websocket.Conn
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[string]*websocket.Conn),
		broadcast:  make(chan models.Notification),
		register:   make(chan Client),
		unregister: make(chan string),
	}
}

func (ws *WebSocketManager) Run() {
	for {
		select {
		case client := <-ws.register:
			ws.clients[client.ID] = client.Socket
		case clientID := <-ws.unregister:
			if conn, ok := ws.clients[clientID]; ok {
				conn.Close()
				delete(ws.clients, clientID)
			}
		case n := <-ws.broadcast:
			if conn, ok := ws.clients[n.UserID]; ok {
				if err := conn.WriteJSON(n); err != nil {
					// Drop the client inline; sending to unregister from
					// here would block the loop on its own channel.
					log.Println("Error sending notification:", err)
					conn.Close()
					delete(ws.clients, n.UserID)
				}
			}
		}
	}
}

func (app *application) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	app.wsManager.register <- Client{ID: userID, Socket: conn}

	go func() {
		defer func() {
			app.wsManager.unregister <- userID
		}()
		for {
			// Clients do not send messages; reading only detects the close.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
