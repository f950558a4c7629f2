package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"wastecycle/pkg/logger"
)

// Client represents a WebSocket connection client
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// Manager manages all active WebSocket connections and their room
// subscriptions. The channel is push-only and advisory: dropping a frame
// never fails the HTTP request that produced it.
type Manager struct {
	clients    map[string]*Client
	rooms      map[string]map[string]bool // roomID -> set of userIDs
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the manager's main loop in a goroutine
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				logger.Info("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if _, ok := m.clients[client.UserID]; ok {
					delete(m.clients, client.UserID)
					for _, members := range m.rooms {
						delete(members, client.UserID)
					}
					close(client.Send)
				}
				m.mutex.Unlock()
				logger.Info("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// JoinRoom subscribes a connected user to a room's fan-out.
func (m *Manager) JoinRoom(roomID, userID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.rooms[roomID] == nil {
		m.rooms[roomID] = make(map[string]bool)
	}
	m.rooms[roomID][userID] = true
}

func (m *Manager) LeaveRoom(roomID, userID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.rooms[roomID], userID)
}

// SendToUser sends a message to a specific user if connected.
func (m *Manager) SendToUser(userID string, message []byte) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()

	if ok {
		select {
		case client.Send <- message:
		default:
			// Slow consumer; drop the frame rather than block the sender.
		}
	}
}

// SendToChatRoom broadcasts to every subscribed member of a room except
// excludeUserID.
func (m *Manager) SendToChatRoom(roomID string, message []byte, excludeUserID string) {
	m.mutex.RLock()
	var targets []*Client
	for userID := range m.rooms[roomID] {
		if userID == excludeUserID {
			continue
		}
		if client, ok := m.clients[userID]; ok {
			targets = append(targets, client)
		}
	}
	m.mutex.RUnlock()

	for _, client := range targets {
		select {
		case client.Send <- message:
		default:
		}
	}
}

type inboundFrame struct {
	Type       string `json:"type"`
	ChatRoomID string `json:"chatRoomId"`
}

// ReadPump reads frames from the connection. Clients only send room
// subscription control frames; everything else is ignored.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("websocket read error for %s: %v", c.UserID, err)
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case "join_room":
			if frame.ChatRoomID != "" {
				m.JoinRoom(frame.ChatRoomID, c.UserID)
			}
		case "leave_room":
			if frame.ChatRoomID != "" {
				m.LeaveRoom(frame.ChatRoomID, c.UserID)
			}
		}
	}
}

// WritePump sends messages to the WebSocket connection
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Error("websocket write error for %s: %v", c.UserID, err)
			return
		}
	}
}
