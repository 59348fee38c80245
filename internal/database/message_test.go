package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/messagely/internal/common"
)

var detailColumns = []string{
	"id", "body", "sent_at", "read_at",
	"from_username", "from_first_name", "from_last_name", "from_phone",
	"to_username", "to_first_name", "to_last_name", "to_phone",
}

var threadColumns = []string{"id", "body", "sent_at", "read_at", "username", "first_name", "last_name", "phone"}

func TestMessageStore_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		s, mock := newMockMessages(t)
		mock.ExpectExec(`INSERT INTO "messages"`).WillReturnResult(sqlmock.NewResult(0, 1))

		msg, err := s.Create(ctx, "alice", "bob", "hi")
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, msg.ID)
		require.Equal(t, "alice", msg.FromUsername)
		require.Equal(t, "bob", msg.ToUsername)
		require.Nil(t, msg.ReadAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty body never reaches the database", func(t *testing.T) {
		s, mock := newMockMessages(t)

		_, err := s.Create(ctx, "alice", "bob", "  ")
		require.ErrorIs(t, err, common.ErrInvalidArgument)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown recipient", func(t *testing.T) {
		s, mock := newMockMessages(t)
		mock.ExpectExec(`INSERT INTO "messages"`).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

		_, err := s.Create(ctx, "alice", "ghost", "hi")
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestMessageStore_Get(t *testing.T) {
	ctx := context.Background()
	query := `FROM messages m\s+JOIN users f ON f.username = m.from_username\s+JOIN users t`

	t.Run("ok", func(t *testing.T) {
		s, mock := newMockMessages(t)
		id := uuid.New()
		sent := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery(query).
			WithArgs(id.String()).
			WillReturnRows(sqlmock.NewRows(detailColumns).
				AddRow(id.String(), "hi", sent, nil, "alice", "Alice", "L", "1", "bob", "Bob", "B", "2"))

		d, err := s.Get(ctx, id)
		require.NoError(t, err)
		require.Equal(t, id, d.ID)
		require.Equal(t, "alice", d.FromUser.Username)
		require.Equal(t, "Bob", d.ToUser.FirstName)
		require.Nil(t, d.ReadAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockMessages(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows(detailColumns))

		_, err := s.Get(ctx, uuid.New())
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestMessageStore_MarkRead(t *testing.T) {
	ctx := context.Background()
	update := `UPDATE "messages" SET "read_at"=\$1 WHERE id = \$2 AND read_at IS NULL`
	selectOne := `SELECT \* FROM "messages" WHERE id = \$1`
	columns := []string{"id", "from_username", "to_username", "body", "sent_at", "read_at"}

	t.Run("first call sets read_at", func(t *testing.T) {
		s, mock := newMockMessages(t)
		id := uuid.New()
		read := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(selectOne).WillReturnRows(sqlmock.NewRows(columns).
			AddRow(id.String(), "alice", "bob", "hi", read.Add(-time.Hour), read))

		msg, changed, err := s.MarkRead(ctx, id)
		require.NoError(t, err)
		require.True(t, changed)
		require.NotNil(t, msg.ReadAt)
		require.Equal(t, read, *msg.ReadAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second call returns stored read_at", func(t *testing.T) {
		s, mock := newMockMessages(t)
		id := uuid.New()
		read := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(selectOne).WillReturnRows(sqlmock.NewRows(columns).
			AddRow(id.String(), "alice", "bob", "hi", read.Add(-time.Hour), read))

		msg, changed, err := s.MarkRead(ctx, id)
		require.NoError(t, err)
		require.False(t, changed)
		require.Equal(t, read, *msg.ReadAt)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockMessages(t)
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(selectOne).WillReturnRows(sqlmock.NewRows(columns))

		_, _, err := s.MarkRead(ctx, uuid.New())
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestMessageStore_ListFromAndTo(t *testing.T) {
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	t.Run("from", func(t *testing.T) {
		s, mock := newMockMessages(t)
		mock.ExpectQuery(`JOIN users u ON u.username = m.to_username\s+WHERE m.from_username = \$1\s+ORDER BY m.sent_at`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(threadColumns).
				AddRow(uuid.NewString(), "one", first, nil, "bob", "Bob", "B", "2").
				AddRow(uuid.NewString(), "two", second, second, "bob", "Bob", "B", "2"))

		out, err := s.ListFrom(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, out, 2)
		require.Equal(t, "bob", out[0].ToUser.Username)
		require.Equal(t, "one", out[0].Body)
		require.NotNil(t, out[1].ReadAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("to", func(t *testing.T) {
		s, mock := newMockMessages(t)
		mock.ExpectQuery(`JOIN users u ON u.username = m.from_username\s+WHERE m.to_username = \$1`).
			WithArgs("bob").
			WillReturnRows(sqlmock.NewRows(threadColumns).
				AddRow(uuid.NewString(), "one", first, nil, "alice", "Alice", "L", "1"))

		out, err := s.ListTo(ctx, "bob")
		require.NoError(t, err)
		require.Len(t, out, 1)
		require.Equal(t, "alice", out[0].FromUser.Username)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty", func(t *testing.T) {
		s, mock := newMockMessages(t)
		mock.ExpectQuery(`WHERE m.to_username = \$1`).WillReturnRows(sqlmock.NewRows(threadColumns))

		out, err := s.ListTo(ctx, "carol")
		require.NoError(t, err)
		require.NotNil(t, out)
		require.Empty(t, out)
	})
}
