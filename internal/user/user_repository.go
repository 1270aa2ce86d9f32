package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"portalchat/internal/dbmysql"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("username already taken")
)

//go:generate mockgen -destination=mocks/mock_user_repository.go -package=mocks portalchat/internal/user UserRepository

// UserRepository stores accounts. Names are unique regardless of case.
type UserRepository interface {
	CreateUser(ctx context.Context, user *dbmysql.User) error
	GetUser(ctx context.Context, username string) (*dbmysql.User, error)
	UpdateUser(ctx context.Context, user *dbmysql.User) error
	DeleteUser(ctx context.Context, username string) error
	ListUsers(ctx context.Context) ([]*dbmysql.User, error)
}

// usernameKey is the case-insensitive identity of a name.
func usernameKey(username string) string {
	return strings.ToLower(username)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *dbmysql.User) error {
	user.UsernameKey = usernameKey(user.Username)
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrUserExists, user.Username)
	}
	return err
}

func (r *userRepository) GetUser(ctx context.Context, username string) (*dbmysql.User, error) {
	var user dbmysql.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *dbmysql.User) error {
	res := r.db.WithContext(ctx).Model(&dbmysql.User{}).
		Where("username = ?", user.Username).
		Updates(map[string]interface{}{
			"password_hash": user.PasswordHash,
			"banned":        user.Banned,
			"last_message":  user.LastMessage,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero rows when nothing changed, so check the row exists.
		if _, err := r.GetUser(ctx, user.Username); err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepository) DeleteUser(ctx context.Context, username string) error {
	res := r.db.WithContext(ctx).Where("username = ?", username).Delete(&dbmysql.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return nil
}

func (r *userRepository) ListUsers(ctx context.Context) ([]*dbmysql.User, error) {
	var users []*dbmysql.User
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
