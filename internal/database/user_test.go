package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/thereayou/messagely/internal/common"
	"github.com/thereayou/messagely/internal/models"
	"github.com/thereayou/messagely/pkg/auth"
)

func TestUserStore_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		s, mock := newMockUsers(t)
		mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

		user, err := s.Register(ctx, models.NewUser{Username: "alice", Password: "secret", FirstName: "Alice"})
		require.NoError(t, err)
		require.Equal(t, "alice", user.Username)
		require.Empty(t, user.Password)
		require.False(t, user.JoinAt.IsZero())
		require.Equal(t, user.JoinAt, user.LastLoginAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate", func(t *testing.T) {
		s, mock := newMockUsers(t)
		mock.ExpectExec(`INSERT INTO "users"`).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		_, err := s.Register(ctx, models.NewUser{Username: "alice", Password: "secret"})
		require.ErrorIs(t, err, common.ErrDuplicateUsername)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty password", func(t *testing.T) {
		s, mock := newMockUsers(t)

		_, err := s.Register(ctx, models.NewUser{Username: "alice"})
		require.ErrorIs(t, err, common.ErrInvalidArgument)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error", func(t *testing.T) {
		s, mock := newMockUsers(t)
		mock.ExpectExec(`INSERT INTO "users"`).WillReturnError(errors.New("connection reset"))

		_, err := s.Register(ctx, models.NewUser{Username: "alice", Password: "secret"})
		require.Error(t, err)
		require.NotErrorIs(t, err, common.ErrDuplicateUsername)
	})
}

func TestUserStore_VerifyCredentials(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	query := `SELECT "password" FROM "users" WHERE username = \$1`

	t.Run("match", func(t *testing.T) {
		s, mock := newMockUsers(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"password"}).AddRow(string(hash)))

		require.True(t, s.VerifyCredentials(ctx, "alice", "secret"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong password", func(t *testing.T) {
		s, mock := newMockUsers(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"password"}).AddRow(string(hash)))

		require.False(t, s.VerifyCredentials(ctx, "alice", "nope"))
	})

	t.Run("unknown user still pays for a comparison", func(t *testing.T) {
		d, mock := newMockDatabase(t)
		hasher := &countingHasher{Hasher: auth.NewBcryptHasher(bcrypt.MinCost)}
		s := d.Users(hasher)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"password"}))

		require.False(t, s.VerifyCredentials(ctx, "ghost", "secret"))
		require.Equal(t, int32(1), hasher.missing.Load())
		require.Equal(t, int32(0), hasher.compared.Load())
	})

	t.Run("driver error", func(t *testing.T) {
		s, mock := newMockUsers(t)
		mock.ExpectQuery(query).WillReturnError(errors.New("connection reset"))

		require.False(t, s.VerifyCredentials(ctx, "alice", "secret"))
	})
}

func TestUserStore_TouchLogin(t *testing.T) {
	ctx := context.Background()
	query := `UPDATE "users" SET "last_login_at"=\$1 WHERE username = \$2`

	t.Run("ok", func(t *testing.T) {
		s, mock := newMockUsers(t)
		mock.ExpectExec(query).
			WithArgs(sqlmock.AnyArg(), "alice").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.TouchLogin(ctx, "alice"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockUsers(t)
		mock.ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 0))

		require.ErrorIs(t, s.TouchLogin(ctx, "ghost"), common.ErrNotFound)
	})
}

func TestUserStore_Get(t *testing.T) {
	ctx := context.Background()
	query := `SELECT .+ FROM "users" WHERE username = \$1`
	columns := []string{"username", "first_name", "last_name", "phone", "join_at", "last_login_at"}

	t.Run("ok", func(t *testing.T) {
		s, mock := newMockUsers(t)
		joined := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows(columns).
			AddRow("alice", "Alice", "Liddell", "555", joined, joined))

		user, err := s.Get(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, "Liddell", user.LastName)
		require.Equal(t, joined, user.JoinAt)
		require.Empty(t, user.Password)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockUsers(t)
		mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows(columns))

		_, err := s.Get(ctx, "ghost")
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestUserStore_List(t *testing.T) {
	s, mock := newMockUsers(t)
	mock.ExpectQuery(`SELECT username, first_name, last_name, phone FROM "users" ORDER BY username`).
		WillReturnRows(sqlmock.NewRows([]string{"username", "first_name", "last_name", "phone"}).
			AddRow("alice", "Alice", "Liddell", "555").
			AddRow("bob", "Bob", "Builder", "556"))

	users, err := s.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.UserSummary{
		{Username: "alice", FirstName: "Alice", LastName: "Liddell", Phone: "555"},
		{Username: "bob", FirstName: "Bob", LastName: "Builder", Phone: "556"},
	}, users)
	require.NoError(t, mock.ExpectationsWereMet())
}
