package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thereayou/messagely/internal/common"
	"github.com/thereayou/messagely/internal/models"
	"github.com/thereayou/messagely/internal/policy"
	"github.com/thereayou/messagely/pkg/auth"
)

type Users struct {
	users    CredentialStore
	messages MessageStore
	sessions SessionIssuer
	revoker  auth.Revoker
	logger   *zap.SugaredLogger
}

func NewUsers(users CredentialStore, messages MessageStore, sessions SessionIssuer, revoker auth.Revoker, logger *zap.SugaredLogger) *Users {
	return &Users{
		users:    users,
		messages: messages,
		sessions: sessions,
		revoker:  revoker,
		logger:   logger,
	}
}

// Register creates the account and returns a session token for it.
func (s *Users) Register(ctx context.Context, nu models.NewUser) (string, error) {
	user, err := s.users.Register(ctx, nu)
	if err != nil {
		return "", err
	}
	s.logger.Infow("user registered", "username", user.Username)
	return s.sessions.Issue(user.Username)
}

// Login returns ErrInvalidCredentials for an unknown user and for a wrong password alike.
func (s *Users) Login(ctx context.Context, username, password string) (string, error) {
	if !s.users.VerifyCredentials(ctx, username, password) {
		return "", common.ErrInvalidCredentials
	}
	if err := s.users.TouchLogin(ctx, username); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", err
	}
	return s.sessions.Issue(username)
}

func (s *Users) Logout(ctx context.Context, token string) error {
	exp, err := s.sessions.Expiry(token)
	if err != nil {
		return err
	}
	if err := s.revoker.Revoke(ctx, token, time.Until(exp)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *Users) List(ctx context.Context, actor policy.Identity) ([]models.UserSummary, error) {
	if !actor.Valid() {
		return nil, common.ErrUnauthorized
	}
	return s.users.List(ctx)
}

func (s *Users) Detail(ctx context.Context, actor policy.Identity, username string) (*models.User, error) {
	if !policy.CanViewUserDetail(actor, username) {
		return nil, common.ErrUnauthorized
	}
	return s.users.Get(ctx, username)
}

func (s *Users) MessagesFrom(ctx context.Context, actor policy.Identity, username string) ([]models.OutboundMessage, error) {
	if !policy.CanViewUserDetail(actor, username) {
		return nil, common.ErrUnauthorized
	}
	return s.messages.ListFrom(ctx, username)
}

func (s *Users) MessagesTo(ctx context.Context, actor policy.Identity, username string) ([]models.InboundMessage, error) {
	if !policy.CanViewUserDetail(actor, username) {
		return nil, common.ErrUnauthorized
	}
	return s.messages.ListTo(ctx, username)
}
