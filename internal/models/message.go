package models

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FromUsername string     `gorm:"not null;index" json:"from_username"`
	ToUsername   string     `gorm:"not null;index" json:"to_username"`
	Body         string     `gorm:"not null" json:"body"`
	SentAt       time.Time  `gorm:"not null" json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`
}

func (Message) TableName() string { return "messages" }

// MessageDetail is a message joined with both participants.
type MessageDetail struct {
	ID       uuid.UUID   `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserSummary `json:"from_user"`
	ToUser   UserSummary `json:"to_user"`
}

func (d *MessageDetail) Message() *Message {
	return &Message{
		ID:           d.ID,
		FromUsername: d.FromUser.Username,
		ToUsername:   d.ToUser.Username,
		Body:         d.Body,
		SentAt:       d.SentAt,
		ReadAt:       d.ReadAt,
	}
}

// OutboundMessage is a sent message as seen by its sender.
type OutboundMessage struct {
	ID     uuid.UUID   `json:"id"`
	ToUser UserSummary `json:"to_user"`
	Body   string      `json:"body"`
	SentAt time.Time   `json:"sent_at"`
	ReadAt *time.Time  `json:"read_at"`
}

// InboundMessage is a received message as seen by its recipient.
type InboundMessage struct {
	ID       uuid.UUID   `json:"id"`
	FromUser UserSummary `json:"from_user"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
}
