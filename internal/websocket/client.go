package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// ClientMessageHandler processes frames a client sends. The reply, if any,
// goes back to that client only.
type ClientMessageHandler interface {
	HandleMessage(client *Client, msg *Message) (MessageType, interface{}, error)
}

type Client struct {
	ID       uuid.UUID
	Username string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
	logger   *zap.SugaredLogger
}

func NewClient(hub *Hub, conn *websocket.Conn, username string, logger *zap.SugaredLogger) *Client {
	return &Client{
		ID:       uuid.New(),
		Username: username,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Hub:      hub,
		logger:   logger,
	}
}

// ReadPump reads frames until the connection drops. With a nil handler
// incoming frames are discarded.
func (c *Client) ReadPump(handler ClientMessageHandler) {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, r, err := c.Conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warnw("websocket read", "client", c.ID, "err", err)
			}
			return
		}

		// a malformed frame is reported, the connection stays up
		var msg Message
		if err := json.NewDecoder(r).Decode(&msg); err != nil {
			c.SendError(ErrInvalidMessage.Error())
			continue
		}
		if handler == nil {
			continue
		}

		replyType, reply, err := handler.HandleMessage(c, &msg)
		if err != nil {
			c.SendError(err.Error())
			continue
		}
		if replyType != "" {
			if err := c.SendMessage(replyType, reply); err != nil {
				c.logger.Warnw("websocket reply", "client", c.ID, "err", err)
			}
		}
	}
}

// WritePump drains Send into the connection and keeps it alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendMessage(msgType MessageType, data interface{}) error {
	frame, err := encode(msgType, data)
	if err != nil {
		return err
	}
	return c.Hub.sendToClient(c, frame)
}

func (c *Client) SendError(errorMsg string) {
	_ = c.SendMessage(TypeError, map[string]string{"error": errorMsg})
}
