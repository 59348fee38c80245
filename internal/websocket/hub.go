package websocket

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageType is the "type" field of every frame.
type MessageType string

const (
	TypeMessage     MessageType = "message"
	TypeMessageRead MessageType = "message_read"
	TypeAck         MessageType = "ack"
	TypeError       MessageType = "error"
)

// Message is the frame exchanged in both directions.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Hub tracks live connections per username. One user may hold several.
type Hub struct {
	clients     map[uuid.UUID]*Client
	userClients map[string]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Stop ends Run and closes every connection.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.Send)
		_ = client.Conn.Close()
	}
	h.userClients = make(map[string]map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		_ = client.Conn.Close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if _, ok := h.userClients[client.Username]; !ok {
		h.userClients[client.Username] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.Username][client.ID] = client

	h.logger.Debugw("client registered", "client", client.ID, "username", client.Username)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if userClients, ok := h.userClients[client.Username]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.Username)
		}
	}
	delete(h.clients, client.ID)
	close(client.Send)

	h.logger.Debugw("client unregistered", "client", client.ID, "username", client.Username)
}

// SendToUser queues a raw frame on every connection of username.
// A full queue drops the frame for that connection only.
func (h *Hub) SendToUser(username string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.userClients[username] {
		select {
		case client.Send <- message:
		default:
			h.logger.Warnw("client send queue full", "client", client.ID, "username", username)
		}
	}
}

// sendToClient queues a frame for one registered client. Send is closed
// once the client leaves the hub, so the check happens under the lock.
func (h *Hub) sendToClient(client *Client, frame []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client.ID]; !ok {
		return ErrClientGone
	}
	select {
	case client.Send <- frame:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// Notify wraps payload in a frame of the given type and sends it to username.
func (h *Hub) Notify(username, event string, payload interface{}) {
	frame, err := encode(MessageType(event), payload)
	if err != nil {
		h.logger.Errorw("encode event", "event", event, "err", err)
		return
	}
	h.SendToUser(username, frame)
}

// OnlineUsers lists usernames with at least one live connection.
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.userClients))
	for username := range h.userClients {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

func encode(msgType MessageType, data interface{}) ([]byte, error) {
	msg := Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}
