package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

// Event is one push notification: lesson_booked, lesson_cancelled,
// lesson_rescheduled or lesson_reminder.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		}
	}
}

// NotifyUser pushes an event to one connected user. Users without an open
// socket are skipped silently; email remains the reliable channel.
func NotifyUser(userID uuid.UUID, event Event) {
	clientsMu.RLock()
	conn, ok := clients[userID]
	clientsMu.RUnlock()
	if !ok {
		return
	}

	if err := conn.WriteJSON(event); err != nil {
		log.Printf("Error pushing event to client %s: %v", userID, err)
		conn.Close()
		clientsMu.Lock()
		if cur, ok := clients[userID]; ok && cur == conn {
			delete(clients, userID)
		}
		clientsMu.Unlock()
	}
}
