package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thereayou/messagely/internal/common"
	"github.com/thereayou/messagely/internal/handlers/dto"
	"github.com/thereayou/messagely/internal/services"
)

type MessageHandler struct {
	messages *services.Messages
	logger   *zap.SugaredLogger
}

func NewMessageHandler(messages *services.Messages, logger *zap.SugaredLogger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

func parseMessageID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed message id", common.ErrInvalidArgument)
	}
	return id, nil
}

// Get returns a message to its sender or recipient.
func (h *MessageHandler) Get(c *gin.Context) {
	actor, ok := identity(c, h.logger)
	if !ok {
		return
	}
	id, err := parseMessageID(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	msg, err := h.messages.Get(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *MessageHandler) Send(c *gin.Context) {
	actor, ok := identity(c, h.logger)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), actor, req.ToUsername, req.Body)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// MarkRead is only allowed for the recipient.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	actor, ok := identity(c, h.logger)
	if !ok {
		return
	}
	id, err := parseMessageID(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	receipt, err := h.messages.MarkRead(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": receipt})
}
