package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/thereayou/messagely/internal/config"
	"github.com/thereayou/messagely/internal/database"
	"github.com/thereayou/messagely/internal/database/memory"
	"github.com/thereayou/messagely/internal/services"
	ws "github.com/thereayou/messagely/internal/websocket"
	"github.com/thereayou/messagely/pkg/auth"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Router        *gin.Engine
	httpServer    *http.Server
	hub           *ws.Hub
	logger        *zap.SugaredLogger
	afterShutdown []func()
}

type Option func(s *Server)

func ReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.httpServer.ReadTimeout = d }
}

// RegisterAfterShutdown adds f to the functions run once the HTTP server stopped.
func RegisterAfterShutdown(f func()) Option {
	return func(s *Server) { s.afterShutdown = append(s.afterShutdown, f) }
}

// deps is everything the router needs, assembled by NewServer or by tests.
type deps struct {
	users    services.CredentialStore
	messages services.MessageStore
	jwt      *auth.JWTManager
	revoker  auth.Revoker
	hub      *ws.Hub
	dev      bool
}

func NewServer(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*Server, error) {
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	d := deps{
		jwt: auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL),
		hub: ws.NewHub(logger),
		dev: cfg.Dev,
	}
	opts := []Option{ReadTimeout(cfg.ReadTimeout)}

	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		store := memory.New(hasher)
		d.users, d.messages = store.Users(), store.Messages()
	default:
		db, err := database.Connect(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		d.users, d.messages = db.Users(hasher), db.Messages()
		opts = append(opts, RegisterAfterShutdown(func() {
			if err := db.Close(); err != nil {
				logger.Errorf("db.Close: %v", err)
			}
		}))
	}

	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		d.revoker = auth.NewRedisRevoker(rdb)
		opts = append(opts, RegisterAfterShutdown(func() { _ = rdb.Close() }))
	} else {
		logger.Warn("REDIS_URL is not set, logged out tokens are tracked in memory")
		d.revoker = auth.NewMemoryRevoker()
	}

	return newServer(cfg.Addr(), d, logger, opts...), nil
}

func newServer(addr string, d deps, logger *zap.SugaredLogger, opts ...Option) *Server {
	router := newRouter(d, logger)
	s := &Server{
		Router: router,
		httpServer: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		hub:    d.hub,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting HTTP server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			s.hub.Stop()
			s.runAfterShutdown()
			return fmt.Errorf("listen: %w", err)
		}
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// hijacked websocket connections are not tracked by Shutdown
	s.hub.Stop()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.runAfterShutdown()
	s.logger.Info("HTTP server is stopped")
	return err
}

func (s *Server) runAfterShutdown() {
	for _, f := range s.afterShutdown {
		f()
	}
}
