package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thereayou/messagely/internal/handlers/dto"
	"github.com/thereayou/messagely/internal/policy"
	"github.com/thereayou/messagely/internal/services"
	ws "github.com/thereayou/messagely/internal/websocket"
)

const frameTimeout = 5 * time.Second

var errInternal = errors.New("internal server error")

type markReadFrame struct {
	ID string `json:"id"`
}

// FrameHandler lets a connected client send and mark messages over the socket
// with the same rules as the HTTP routes.
type FrameHandler struct {
	messages *services.Messages
	logger   *zap.SugaredLogger
}

func NewFrameHandler(messages *services.Messages, logger *zap.SugaredLogger) *FrameHandler {
	return &FrameHandler{messages: messages, logger: logger}
}

func (h *FrameHandler) HandleMessage(client *ws.Client, msg *ws.Message) (ws.MessageType, interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	actor := policy.Identity(client.Username)

	switch msg.Type {
	case ws.TypeMessage:
		var req dto.SendMessageRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.ToUsername == "" {
			return "", nil, ws.ErrInvalidMessage
		}
		sent, err := h.messages.Send(ctx, actor, req.ToUsername, req.Body)
		if err != nil {
			return "", nil, h.public(err)
		}
		return ws.TypeAck, sent, nil

	case ws.TypeMessageRead:
		var req markReadFrame
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return "", nil, ws.ErrInvalidMessage
		}
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return "", nil, ws.ErrInvalidMessage
		}
		receipt, err := h.messages.MarkRead(ctx, actor, id)
		if err != nil {
			return "", nil, h.public(err)
		}
		return ws.TypeAck, receipt, nil

	default:
		return "", nil, ws.ErrUnknownType
	}
}

// public hides unexpected failures from the client.
func (h *FrameHandler) public(err error) error {
	if StatusFor(err) == http.StatusInternalServerError {
		h.logger.Errorw("websocket frame failed", "err", err)
		return errInternal
	}
	return err
}
