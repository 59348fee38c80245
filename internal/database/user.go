package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/thereayou/messagely/internal/common"
	"github.com/thereayou/messagely/internal/models"
	"github.com/thereayou/messagely/pkg/auth"
)

// detail columns, the password hash is only ever read by VerifyCredentials
var userColumns = []string{"username", "first_name", "last_name", "phone", "join_at", "last_login_at"}

type UserStore struct {
	db     *gorm.DB
	hasher auth.Hasher
	logger *zap.SugaredLogger
}

func (s *UserStore) Register(ctx context.Context, nu models.NewUser) (*models.User, error) {
	if nu.Username == "" || nu.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrInvalidArgument)
	}

	hash, err := s.hasher.Hash(nu.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		Username:    nu.Username,
		Password:    hash,
		FirstName:   nu.FirstName,
		LastName:    nu.LastName,
		Phone:       nu.Phone,
		JoinAt:      now,
		LastLoginAt: now,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrDuplicateUsername, nu.Username)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	user.Password = ""
	return user, nil
}

// VerifyCredentials fails closed: any lookup problem is a false.
func (s *UserStore) VerifyCredentials(ctx context.Context, username, password string) bool {
	var hashes []string
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Limit(1).
		Pluck("password", &hashes).Error
	if err != nil {
		s.logger.Errorw("verify credentials", "username", username, "err", err)
		return false
	}
	if len(hashes) == 0 {
		return s.hasher.CompareMissing(password)
	}
	return s.hasher.Compare(hashes[0], password)
}

func (s *UserStore) TouchLogin(ctx context.Context, username string) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Update("last_login_at", time.Now().UTC())
	if res.Error != nil {
		return fmt.Errorf("touch login: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", common.ErrNotFound, username)
	}
	return nil
}

func (s *UserStore) Get(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Select(userColumns).
		Where("username = ?", username).
		Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", common.ErrNotFound, username)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (s *UserStore) List(ctx context.Context) ([]models.UserSummary, error) {
	users := make([]models.UserSummary, 0)
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("username, first_name, last_name, phone").
		Order("username").
		Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
