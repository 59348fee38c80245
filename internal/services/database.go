package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/messagely/internal/models"
)

type CredentialStore interface {
	Register(ctx context.Context, user models.NewUser) (*models.User, error)
	VerifyCredentials(ctx context.Context, username, password string) bool
	TouchLogin(ctx context.Context, username string) error
	Get(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.UserSummary, error)
}

type MessageStore interface {
	Create(ctx context.Context, from, to, body string) (*models.Message, error)
	Get(ctx context.Context, id uuid.UUID) (*models.MessageDetail, error)
	// MarkRead reports whether this call is the one that marked the message read.
	MarkRead(ctx context.Context, id uuid.UUID) (*models.Message, bool, error)
	ListFrom(ctx context.Context, username string) ([]models.OutboundMessage, error)
	ListTo(ctx context.Context, username string) ([]models.InboundMessage, error)
}

type SessionIssuer interface {
	Issue(username string) (string, error)
	Expiry(token string) (time.Time, error)
}

// Event names pushed to connected clients.
const (
	EventMessage     = "message"
	EventMessageRead = "message_read"
)

// Notifier pushes an event to every live connection of username. Delivery is best effort.
type Notifier interface {
	Notify(username, event string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, interface{}) {}
