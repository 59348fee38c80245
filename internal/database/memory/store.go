// Package memory keeps users and messages in process memory. It backs
// STORAGE_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thereayou/messagely/internal/common"
	"github.com/thereayou/messagely/internal/models"
	"github.com/thereayou/messagely/pkg/auth"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	messages map[uuid.UUID]*models.Message
	order    []uuid.UUID
	hasher   auth.Hasher
	now      func() time.Time
}

func New(hasher auth.Hasher) *Store {
	return &Store{
		users:    make(map[string]*models.User),
		messages: make(map[uuid.UUID]*models.Message),
		hasher:   hasher,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() *UserStore { return &UserStore{s} }

func (s *Store) Messages() *MessageStore { return &MessageStore{s} }

type UserStore struct {
	s *Store
}

func (u *UserStore) Register(_ context.Context, nu models.NewUser) (*models.User, error) {
	if nu.Username == "" || nu.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrInvalidArgument)
	}

	// hash outside the lock, bcrypt is slow
	hash, err := u.s.hasher.Hash(nu.Password)
	if err != nil {
		return nil, err
	}

	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if _, ok := u.s.users[nu.Username]; ok {
		return nil, fmt.Errorf("%w: %s", common.ErrDuplicateUsername, nu.Username)
	}
	now := u.s.now()
	user := &models.User{
		Username:    nu.Username,
		Password:    hash,
		FirstName:   nu.FirstName,
		LastName:    nu.LastName,
		Phone:       nu.Phone,
		JoinAt:      now,
		LastLoginAt: now,
	}
	u.s.users[user.Username] = user

	out := *user
	out.Password = ""
	return &out, nil
}

func (u *UserStore) VerifyCredentials(_ context.Context, username, password string) bool {
	u.s.mu.RLock()
	user, ok := u.s.users[username]
	var hash string
	if ok {
		hash = user.Password
	}
	u.s.mu.RUnlock()

	if !ok {
		return u.s.hasher.CompareMissing(password)
	}
	return u.s.hasher.Compare(hash, password)
}

func (u *UserStore) TouchLogin(_ context.Context, username string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	user, ok := u.s.users[username]
	if !ok {
		return fmt.Errorf("%w: user %s", common.ErrNotFound, username)
	}
	user.LastLoginAt = u.s.now()
	return nil
}

func (u *UserStore) Get(_ context.Context, username string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", common.ErrNotFound, username)
	}
	out := *user
	out.Password = ""
	return &out, nil
}

func (u *UserStore) List(_ context.Context) ([]models.UserSummary, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	out := make([]models.UserSummary, 0, len(u.s.users))
	for _, user := range u.s.users {
		out = append(out, user.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

type MessageStore struct {
	s *Store
}

func (m *MessageStore) Create(_ context.Context, from, to, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: message body is empty", common.ErrInvalidArgument)
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.users[from]; !ok {
		return nil, fmt.Errorf("%w: sender or recipient does not exist", common.ErrNotFound)
	}
	if _, ok := m.s.users[to]; !ok {
		return nil, fmt.Errorf("%w: sender or recipient does not exist", common.ErrNotFound)
	}

	msg := &models.Message{
		ID:           uuid.New(),
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       m.s.now(),
	}
	m.s.messages[msg.ID] = msg
	m.s.order = append(m.s.order, msg.ID)

	out := *msg
	return &out, nil
}

func (m *MessageStore) Get(_ context.Context, id uuid.UUID) (*models.MessageDetail, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	msg, ok := m.s.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: message %s", common.ErrNotFound, id)
	}
	return &models.MessageDetail{
		ID:       msg.ID,
		Body:     msg.Body,
		SentAt:   msg.SentAt,
		ReadAt:   copyTime(msg.ReadAt),
		FromUser: m.s.summary(msg.FromUsername),
		ToUser:   m.s.summary(msg.ToUsername),
	}, nil
}

func (m *MessageStore) MarkRead(_ context.Context, id uuid.UUID) (*models.Message, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	msg, ok := m.s.messages[id]
	if !ok {
		return nil, false, fmt.Errorf("%w: message %s", common.ErrNotFound, id)
	}
	changed := msg.ReadAt == nil
	if changed {
		now := m.s.now()
		msg.ReadAt = &now
	}

	out := *msg
	out.ReadAt = copyTime(msg.ReadAt)
	return &out, changed, nil
}

func (m *MessageStore) ListFrom(_ context.Context, username string) ([]models.OutboundMessage, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := make([]models.OutboundMessage, 0)
	for _, msg := range m.s.sorted() {
		if msg.FromUsername != username {
			continue
		}
		out = append(out, models.OutboundMessage{
			ID:     msg.ID,
			ToUser: m.s.summary(msg.ToUsername),
			Body:   msg.Body,
			SentAt: msg.SentAt,
			ReadAt: copyTime(msg.ReadAt),
		})
	}
	return out, nil
}

func (m *MessageStore) ListTo(_ context.Context, username string) ([]models.InboundMessage, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := make([]models.InboundMessage, 0)
	for _, msg := range m.s.sorted() {
		if msg.ToUsername != username {
			continue
		}
		out = append(out, models.InboundMessage{
			ID:       msg.ID,
			FromUser: m.s.summary(msg.FromUsername),
			Body:     msg.Body,
			SentAt:   msg.SentAt,
			ReadAt:   copyTime(msg.ReadAt),
		})
	}
	return out, nil
}

// sorted returns messages by sent_at, ties kept in insertion order. Caller holds mu.
func (s *Store) sorted() []*models.Message {
	out := make([]*models.Message, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.messages[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out
}

// Caller holds mu.
func (s *Store) summary(username string) models.UserSummary {
	if user, ok := s.users[username]; ok {
		return user.Summary()
	}
	return models.UserSummary{Username: username}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
