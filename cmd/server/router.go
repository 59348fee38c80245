package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thereayou/messagely/internal/handlers"
	"github.com/thereayou/messagely/internal/middleware"
	"github.com/thereayou/messagely/internal/services"
)

func newRouter(d deps, logger *zap.SugaredLogger) *gin.Engine {
	users := services.NewUsers(d.users, d.messages, d.jwt, d.revoker, logger)
	messages := services.NewMessages(d.messages, d.hub, logger)

	var checkOrigin func(r *http.Request) bool
	if d.dev {
		checkOrigin = func(*http.Request) bool { return true }
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(logger), gin.Recovery())

	APIEndpoints(r, endpoints{
		auth:     handlers.NewAuthHandler(users, logger),
		users:    handlers.NewUserHandler(users, logger),
		messages: handlers.NewMessageHandler(messages, logger),
		ws:       handlers.NewWebSocketHandler(d.hub, handlers.NewFrameHandler(messages, logger), checkOrigin, logger),
		authMW:   middleware.AuthMiddleware(d.jwt, d.revoker, logger),
		wsAuthMW: middleware.WSAuthMiddleware(d.jwt, d.revoker, logger),
	})
	return r
}

type endpoints struct {
	auth     *handlers.AuthHandler
	users    *handlers.UserHandler
	messages *handlers.MessageHandler
	ws       *handlers.WebSocketHandler
	authMW   gin.HandlerFunc
	wsAuthMW gin.HandlerFunc
}

func APIEndpoints(r *gin.Engine, e endpoints) {
	jsonBody := middleware.EnforceJSON()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", jsonBody, e.auth.Register)
		auth.POST("/login", jsonBody, e.auth.Login)
		auth.POST("/logout", e.authMW, e.auth.Logout)
	}

	users := r.Group("/users", e.authMW)
	{
		users.GET("", e.users.List)
		users.GET("/:username", e.users.Get)
		users.GET("/:username/to", e.users.MessagesTo)
		users.GET("/:username/from", e.users.MessagesFrom)
	}

	messages := r.Group("/messages", e.authMW)
	{
		messages.POST("", jsonBody, e.messages.Send)
		messages.GET("/:id", e.messages.Get)
		messages.POST("/:id/read", e.messages.MarkRead)
	}

	r.GET("/ws", e.wsAuthMW, e.ws.HandleWebSocket)
}
