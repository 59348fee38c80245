package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thereayou/messagely/internal/services"
)

type UserHandler struct {
	users  *services.Users
	logger *zap.SugaredLogger
}

func NewUserHandler(users *services.Users, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// List returns every user as a summary.
func (h *UserHandler) List(c *gin.Context) {
	actor, ok := identity(c, h.logger)
	if !ok {
		return
	}

	users, err := h.users.List(c.Request.Context(), actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UserHandler) Get(c *gin.Context) {
	actor, ok := identity(c, h.logger)
	if !ok {
		return
	}

	user, err := h.users.Detail(c.Request.Context(), actor, c.Param("username"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// MessagesTo lists what the user received.
func (h *UserHandler) MessagesTo(c *gin.Context) {
	actor, ok := identity(c, h.logger)
	if !ok {
		return
	}

	messages, err := h.users.MessagesTo(c.Request.Context(), actor, c.Param("username"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// MessagesFrom lists what the user sent.
func (h *UserHandler) MessagesFrom(c *gin.Context) {
	actor, ok := identity(c, h.logger)
	if !ok {
		return
	}

	messages, err := h.users.MessagesFrom(c.Request.Context(), actor, c.Param("username"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
