package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/thereayou/messagely/internal/common"
	"github.com/thereayou/messagely/internal/models"
	"github.com/thereayou/messagely/pkg/auth"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s := New(auth.NewBcryptHasher(bcrypt.MinCost))
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func register(t *testing.T, s *Store, username string) {
	t.Helper()
	_, err := s.Users().Register(context.Background(), models.NewUser{
		Username:  username,
		Password:  "pw-" + username,
		FirstName: username + "-first",
	})
	require.NoError(t, err)
}

type countingHasher struct {
	auth.Hasher
	missing atomic.Int32
}

func (h *countingHasher) CompareMissing(password string) bool {
	h.missing.Add(1)
	return h.Hasher.CompareMissing(password)
}

func TestUnknownUserRunsDecoyComparison(t *testing.T) {
	ctx := context.Background()
	hasher := &countingHasher{Hasher: auth.NewBcryptHasher(bcrypt.MinCost)}
	s := New(hasher)
	register(t, s, "bob")

	require.False(t, s.Users().VerifyCredentials(ctx, "bob", "wrong"))
	require.Equal(t, int32(0), hasher.missing.Load())

	require.False(t, s.Users().VerifyCredentials(ctx, "ghost", "pw-bob"))
	require.Equal(t, int32(1), hasher.missing.Load())
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	users := s.Users()

	user, err := users.Register(ctx, models.NewUser{Username: "bob", Password: "pw", FirstName: "Bob"})
	require.NoError(t, err)
	require.Empty(t, user.Password)
	require.Equal(t, user.JoinAt, user.LastLoginAt)

	_, err = users.Register(ctx, models.NewUser{Username: "bob", Password: "other"})
	require.ErrorIs(t, err, common.ErrDuplicateUsername)

	_, err = users.Register(ctx, models.NewUser{Username: "", Password: "pw"})
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	require.True(t, users.VerifyCredentials(ctx, "bob", "pw"))
	require.False(t, users.VerifyCredentials(ctx, "bob", "other"))
	require.False(t, users.VerifyCredentials(ctx, "ghost", "pw"))

	require.NoError(t, users.TouchLogin(ctx, "bob"))
	got, err := users.Get(ctx, "bob")
	require.NoError(t, err)
	require.True(t, got.LastLoginAt.After(got.JoinAt))
	require.Empty(t, got.Password)

	require.ErrorIs(t, users.TouchLogin(ctx, "ghost"), common.ErrNotFound)
	_, err = users.Get(ctx, "ghost")
	require.ErrorIs(t, err, common.ErrNotFound)

	register(t, s, "alice")
	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "alice", list[0].Username)
	require.Equal(t, "bob", list[1].Username)
}

func TestMessages(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	register(t, s, "alice")
	register(t, s, "bob")
	messages := s.Messages()

	_, err := messages.Create(ctx, "alice", "bob", "")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
	_, err = messages.Create(ctx, "alice", "ghost", "hi")
	require.ErrorIs(t, err, common.ErrNotFound)

	first, err := messages.Create(ctx, "alice", "bob", "hi")
	require.NoError(t, err)
	require.Nil(t, first.ReadAt)
	second, err := messages.Create(ctx, "alice", "bob", "again")
	require.NoError(t, err)

	detail, err := messages.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", detail.FromUser.Username)
	require.Equal(t, "bob-first", detail.ToUser.FirstName)

	_, err = messages.Get(ctx, uuid.New())
	require.ErrorIs(t, err, common.ErrNotFound)

	out, err := messages.ListFrom(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, first.ID, out[0].ID)
	require.Equal(t, second.ID, out[1].ID)
	require.Equal(t, "bob", out[0].ToUser.Username)

	in, err := messages.ListTo(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, in, 2)
	require.Equal(t, "alice", in[0].FromUser.Username)

	none, err := messages.ListTo(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestMarkReadIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	register(t, s, "alice")
	register(t, s, "bob")
	messages := s.Messages()

	msg, err := messages.Create(ctx, "alice", "bob", "hi")
	require.NoError(t, err)

	read, changed, err := messages.MarkRead(ctx, msg.ID)
	require.NoError(t, err)
	require.True(t, changed)
	require.NotNil(t, read.ReadAt)

	again, changed, err := messages.MarkRead(ctx, msg.ID)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, *read.ReadAt, *again.ReadAt)

	_, _, err = messages.MarkRead(ctx, uuid.New())
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestConcurrentMarkRead(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	register(t, s, "alice")
	register(t, s, "bob")
	msg, err := s.Messages().Create(ctx, "alice", "bob", "hi")
	require.NoError(t, err)

	var (
		wg          sync.WaitGroup
		transitions atomic.Int32
	)
	results := make([]time.Time, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, changed, err := s.Messages().MarkRead(ctx, msg.ID)
			if err == nil {
				results[i] = *m.ReadAt
			}
			if changed {
				transitions.Add(1)
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.Equal(t, results[0], r)
	}
	require.Equal(t, int32(1), transitions.Load())
}
