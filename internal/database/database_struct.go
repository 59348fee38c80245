package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/thereayou/messagely/pkg/auth"
)

// Database owns the gorm handle. Users and Messages hand out the two stores built on it.
type Database struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewDatabase(db *gorm.DB, logger *zap.SugaredLogger) *Database {
	return &Database{db: db, logger: logger}
}

func (d *Database) Users(hasher auth.Hasher) *UserStore {
	return &UserStore{db: d.db, hasher: hasher, logger: d.logger}
}

func (d *Database) Messages() *MessageStore {
	return &MessageStore{db: d.db, logger: d.logger}
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
