package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thereayou/messagely/internal/common"
	"github.com/thereayou/messagely/internal/models"
	"github.com/thereayou/messagely/internal/policy"
)

// ReadReceipt is what a sender learns when the recipient reads a message.
type ReadReceipt struct {
	ID     uuid.UUID  `json:"id"`
	ReadAt *time.Time `json:"read_at"`
}

type Messages struct {
	store    MessageStore
	notifier Notifier
	logger   *zap.SugaredLogger
}

func NewMessages(store MessageStore, notifier Notifier, logger *zap.SugaredLogger) *Messages {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Messages{store: store, notifier: notifier, logger: logger}
}

// Send stores a message from actor and pushes it to the recipient if they are connected.
func (s *Messages) Send(ctx context.Context, actor policy.Identity, to, body string) (*models.Message, error) {
	if !actor.Valid() {
		return nil, common.ErrUnauthorized
	}
	msg, err := s.store.Create(ctx, actor.String(), to, body)
	if err != nil {
		return nil, err
	}

	detail, err := s.store.Get(ctx, msg.ID)
	if err != nil {
		s.logger.Warnw("message stored but not pushed", "id", msg.ID, "err", err)
		return msg, nil
	}
	s.notifier.Notify(msg.ToUsername, EventMessage, models.InboundMessage{
		ID:       detail.ID,
		FromUser: detail.FromUser,
		Body:     detail.Body,
		SentAt:   detail.SentAt,
		ReadAt:   detail.ReadAt,
	})
	return msg, nil
}

func (s *Messages) Get(ctx context.Context, actor policy.Identity, id uuid.UUID) (*models.MessageDetail, error) {
	detail, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewMessage(actor, detail.Message()) {
		return nil, common.ErrUnauthorized
	}
	return detail, nil
}

// MarkRead records that the recipient read the message. Repeated calls keep the first timestamp.
func (s *Messages) MarkRead(ctx context.Context, actor policy.Identity, id uuid.UUID) (*ReadReceipt, error) {
	detail, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanMarkRead(actor, detail.Message()) {
		return nil, common.ErrUnauthorized
	}

	msg, changed, err := s.store.MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}

	receipt := &ReadReceipt{ID: msg.ID, ReadAt: msg.ReadAt}
	if changed {
		s.notifier.Notify(msg.FromUsername, EventMessageRead, receipt)
	}
	return receipt, nil
}
