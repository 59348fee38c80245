package database

import (
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/thereayou/messagely/pkg/auth"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	return NewDatabase(db, zap.NewNop().Sugar()), mock
}

func newMockUsers(t *testing.T) (*UserStore, sqlmock.Sqlmock) {
	t.Helper()
	d, mock := newMockDatabase(t)
	return d.Users(auth.NewBcryptHasher(bcrypt.MinCost)), mock
}

// countingHasher tracks which comparison path VerifyCredentials took.
type countingHasher struct {
	auth.Hasher
	compared atomic.Int32
	missing  atomic.Int32
}

func (h *countingHasher) Compare(hash, password string) bool {
	h.compared.Add(1)
	return h.Hasher.Compare(hash, password)
}

func (h *countingHasher) CompareMissing(password string) bool {
	h.missing.Add(1)
	return h.Hasher.CompareMissing(password)
}

func newMockMessages(t *testing.T) (*MessageStore, sqlmock.Sqlmock) {
	t.Helper()
	d, mock := newMockDatabase(t)
	return d.Messages(), mock
}
