package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thereayou/messagely/internal/common"
	"github.com/thereayou/messagely/internal/handlers/dto"
	"github.com/thereayou/messagely/internal/middleware"
	"github.com/thereayou/messagely/internal/models"
	"github.com/thereayou/messagely/internal/services"
)

type AuthHandler struct {
	users  *services.Users
	logger *zap.SugaredLogger
}

func NewAuthHandler(users *services.Users, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	token, err := h.users.Register(c.Request.Context(), models.NewUser{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TokenResponse{Token: token})
}

// Login answers every credential problem with the same message.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(c, h.logger, common.ErrInvalidCredentials)
		return
	}

	token, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{Token: token})
}

// Logout puts the caller's token on the denylist until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.users.Logout(c.Request.Context(), middleware.TokenFrom(c)); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
