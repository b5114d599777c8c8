package services

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/VP171097/vitality/models"
)

// WSClient is one websocket subscriber of a user's push stream.
type WSClient struct {
	ID     string
	UserID uint
	Conn   *websocket.Conn

	writeMu sync.Mutex
}

func NewWSClient(userID uint, conn *websocket.Conn) *WSClient {
	return &WSClient{ID: uuid.NewString(), UserID: userID, Conn: conn}
}

func (c *WSClient) send(msgType int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(msgType, payload)
}

// Ping writes a control ping, serialized with broadcasts.
func (c *WSClient) Ping() error {
	return c.send(websocket.PingMessage, nil)
}

// RealtimeHub fans document snapshots and alert toasts out to every open
// websocket of a user. Each push carries the whole document, never a diff.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*WSClient]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{clients: make(map[uint]map[*WSClient]struct{})}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
	logrus.WithFields(logrus.Fields{"clientID": c.ID, "userID": c.UserID}).Debug("websocket client registered")
}

func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
	logrus.WithFields(logrus.Fields{"clientID": c.ID, "userID": c.UserID}).Debug("websocket client unregistered")
}

// BroadcastDocument pushes a fresh document snapshot to the user's sockets.
func (h *RealtimeHub) BroadcastDocument(userID uint, snap Snapshot) {
	h.broadcast(userID, map[string]any{
		"kind":     "document.updated",
		"document": snap,
	})
}

// BroadcastAlert pushes a toast notification.
func (h *RealtimeHub) BroadcastAlert(userID uint, alert *models.Alert) {
	h.broadcast(userID, map[string]any{
		"kind":  "alert.created",
		"alert": alert,
	})
}

func (h *RealtimeHub) broadcast(userID uint, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		_ = c.send(websocket.TextMessage, msg)
	}
}
