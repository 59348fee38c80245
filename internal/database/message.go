package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/thereayou/messagely/internal/common"
	"github.com/thereayou/messagely/internal/models"
)

const messageDetailSQL = `
SELECT m.id, m.body, m.sent_at, m.read_at,
       f.username AS from_username, f.first_name AS from_first_name,
       f.last_name AS from_last_name, f.phone AS from_phone,
       t.username AS to_username, t.first_name AS to_first_name,
       t.last_name AS to_last_name, t.phone AS to_phone
  FROM messages m
  JOIN users f ON f.username = m.from_username
  JOIN users t ON t.username = m.to_username
 WHERE m.id = ?`

const messagesFromSQL = `
SELECT m.id, m.body, m.sent_at, m.read_at,
       u.username, u.first_name, u.last_name, u.phone
  FROM messages m
  JOIN users u ON u.username = m.to_username
 WHERE m.from_username = ?
 ORDER BY m.sent_at, m.id`

const messagesToSQL = `
SELECT m.id, m.body, m.sent_at, m.read_at,
       u.username, u.first_name, u.last_name, u.phone
  FROM messages m
  JOIN users u ON u.username = m.from_username
 WHERE m.to_username = ?
 ORDER BY m.sent_at, m.id`

type messageDetailRow struct {
	ID            uuid.UUID
	Body          string
	SentAt        time.Time
	ReadAt        *time.Time
	FromUsername  string
	FromFirstName string
	FromLastName  string
	FromPhone     string
	ToUsername    string
	ToFirstName   string
	ToLastName    string
	ToPhone       string
}

// threadRow is one message joined with the other participant.
type threadRow struct {
	ID        uuid.UUID
	Body      string
	SentAt    time.Time
	ReadAt    *time.Time
	Username  string
	FirstName string
	LastName  string
	Phone     string
}

func (r threadRow) peer() models.UserSummary {
	return models.UserSummary{Username: r.Username, FirstName: r.FirstName, LastName: r.LastName, Phone: r.Phone}
}

type MessageStore struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func (s *MessageStore) Create(ctx context.Context, from, to, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: message body is empty", common.ErrInvalidArgument)
	}

	msg := &models.Message{
		ID:           uuid.New(),
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		switch {
		case isForeignKeyViolation(err):
			s.logger.Debugw("message to unknown user", "from", from, "to", to)
			return nil, fmt.Errorf("%w: sender or recipient does not exist", common.ErrNotFound)
		case isCheckViolation(err):
			return nil, fmt.Errorf("%w: message body is empty", common.ErrInvalidArgument)
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

func (s *MessageStore) Get(ctx context.Context, id uuid.UUID) (*models.MessageDetail, error) {
	var rows []messageDetailRow
	if err := s.db.WithContext(ctx).Raw(messageDetailSQL, id).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: message %s", common.ErrNotFound, id)
	}

	r := rows[0]
	return &models.MessageDetail{
		ID:     r.ID,
		Body:   r.Body,
		SentAt: r.SentAt,
		ReadAt: r.ReadAt,
		FromUser: models.UserSummary{
			Username:  r.FromUsername,
			FirstName: r.FromFirstName,
			LastName:  r.FromLastName,
			Phone:     r.FromPhone,
		},
		ToUser: models.UserSummary{
			Username:  r.ToUsername,
			FirstName: r.ToFirstName,
			LastName:  r.ToLastName,
			Phone:     r.ToPhone,
		},
	}, nil
}

// MarkRead sets read_at once. Later calls leave it untouched and return the stored value.
// The bool reports whether this call made the unread to read transition.
func (s *MessageStore) MarkRead(ctx context.Context, id uuid.UUID) (*models.Message, bool, error) {
	db := s.db.WithContext(ctx)

	res := db.Model(&models.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", time.Now().UTC())
	if res.Error != nil {
		return nil, false, fmt.Errorf("mark read: %w", res.Error)
	}

	var msg models.Message
	if err := db.Where("id = ?", id).Take(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("%w: message %s", common.ErrNotFound, id)
		}
		return nil, false, fmt.Errorf("mark read: %w", err)
	}
	return &msg, res.RowsAffected == 1, nil
}

func (s *MessageStore) ListFrom(ctx context.Context, username string) ([]models.OutboundMessage, error) {
	var rows []threadRow
	if err := s.db.WithContext(ctx).Raw(messagesFromSQL, username).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list messages from %s: %w", username, err)
	}

	out := make([]models.OutboundMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.OutboundMessage{
			ID:     r.ID,
			ToUser: r.peer(),
			Body:   r.Body,
			SentAt: r.SentAt,
			ReadAt: r.ReadAt,
		})
	}
	return out, nil
}

func (s *MessageStore) ListTo(ctx context.Context, username string) ([]models.InboundMessage, error) {
	var rows []threadRow
	if err := s.db.WithContext(ctx).Raw(messagesToSQL, username).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list messages to %s: %w", username, err)
	}

	out := make([]models.InboundMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.InboundMessage{
			ID:       r.ID,
			FromUser: r.peer(),
			Body:     r.Body,
			SentAt:   r.SentAt,
			ReadAt:   r.ReadAt,
		})
	}
	return out, nil
}
