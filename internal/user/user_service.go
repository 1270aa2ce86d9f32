package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"portalchat/internal/common"
	"portalchat/internal/config"
	"portalchat/internal/dbmysql"
	"portalchat/internal/logging"
)

//go:generate mockgen -destination=mocks/mock_user_service.go -package=mocks portalchat/internal/user UserService

type UserService interface {
	Register(ctx context.Context, username, password string) (*dbmysql.User, string, error)
	Login(ctx context.Context, username, password string) (*dbmysql.User, string, error)
	AdminLogin(ctx context.Context, username, password string) (string, error)
	CheckActive(ctx context.Context, id common.Identity) error

	Ban(ctx context.Context, username string) error
	Unban(ctx context.Context, username string) error
	Delete(ctx context.Context, username string) error
	SetLastMessage(ctx context.Context, username, text string) error
	List(ctx context.Context) ([]*dbmysql.User, error)
}

type userService struct {
	userRepo UserRepository
	issuer   *common.TokenIssuer
	auth     config.AuthConfig
	now      func() time.Time

	// serializes read-modify-write of a single account
	mu sync.Mutex
}

func NewUserService(userRepo UserRepository, issuer *common.TokenIssuer, auth config.AuthConfig) UserService {
	return &userService{userRepo: userRepo, issuer: issuer, auth: auth, now: time.Now}
}

func storeFailure(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return common.NotFound("user not found")
	case errors.Is(err, ErrUserExists):
		return common.Invalid("username_taken", "that name is already in use")
	default:
		logging.Error().Err(err).Msg("account store failure")
		return common.ResourceFailure("account store unavailable", err)
	}
}

func (s *userService) isAdminName(username string) bool {
	return s.auth.AdminUser != "" && strings.EqualFold(username, s.auth.AdminUser)
}

func (s *userService) Register(ctx context.Context, username, password string) (*dbmysql.User, string, error) {
	username = strings.TrimSpace(username)
	if err := common.ValidateUsername(username); err != nil {
		return nil, "", err
	}
	if err := common.ValidatePassword(password); err != nil {
		return nil, "", err
	}
	if s.isAdminName(username) {
		return nil, "", common.Invalid("username_taken", "that name is already in use")
	}

	hashed, err := common.HashPassword(password)
	if err != nil {
		return nil, "", common.ResourceFailure("could not hash password", err)
	}
	user := &dbmysql.User{
		Username:     username,
		PasswordHash: hashed,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, "", storeFailure(err)
	}

	token, err := s.issuer.GenerateToken(common.Identity{Username: user.Username})
	if err != nil {
		return nil, "", common.ResourceFailure("could not issue session", err)
	}
	logging.Info().Str("user", user.Username).Msg("user registered")
	return user, token, nil
}

func (s *userService) Login(ctx context.Context, username, password string) (*dbmysql.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", common.Invalid("missing_fields", "username and password are required")
	}

	user, err := s.userRepo.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", common.NotFound("user not found, have you registered?")
		}
		return nil, "", storeFailure(err)
	}
	if user.Banned {
		return nil, "", common.Forbidden("your access has been revoked")
	}
	if err := common.CheckPassword(password, user.PasswordHash); err != nil {
		return nil, "", common.Unauthorized("wrong password")
	}

	token, err := s.issuer.GenerateToken(common.Identity{Username: user.Username})
	if err != nil {
		return nil, "", common.ResourceFailure("could not issue session", err)
	}
	return user, token, nil
}

func (s *userService) AdminLogin(ctx context.Context, username, password string) (string, error) {
	if s.auth.AdminUser == "" || s.auth.AdminPasswordHash == "" {
		return "", common.Unauthorized("admin login is disabled")
	}
	if username != s.auth.AdminUser || common.CheckPassword(password, s.auth.AdminPasswordHash) != nil {
		return "", common.Unauthorized("invalid admin credentials")
	}

	token, err := s.issuer.GenerateToken(common.Identity{Username: s.auth.AdminUser, Admin: true})
	if err != nil {
		return "", common.ResourceFailure("could not issue session", err)
	}
	logging.Info().Str("user", username).Msg("admin logged in")
	return token, nil
}

// CheckActive rejects sessions of banned or deleted accounts.
func (s *userService) CheckActive(ctx context.Context, id common.Identity) error {
	if id.Admin {
		if id.Username != s.auth.AdminUser || s.auth.AdminUser == "" {
			return common.Unauthorized("invalid or expired session")
		}
		return nil
	}

	user, err := s.userRepo.GetUser(ctx, id.Username)
	if errors.Is(err, ErrUserNotFound) {
		return common.Unauthorized("account no longer exists")
	}
	if err != nil {
		return storeFailure(err)
	}
	if user.Banned {
		return common.Forbidden("your access has been revoked")
	}
	return nil
}

func (s *userService) modify(ctx context.Context, username string, fn func(u *dbmysql.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.userRepo.GetUser(ctx, username)
	if err != nil {
		return storeFailure(err)
	}
	fn(user)
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return storeFailure(err)
	}
	return nil
}

func (s *userService) Ban(ctx context.Context, username string) error {
	return s.modify(ctx, username, func(u *dbmysql.User) { u.Banned = true })
}

func (s *userService) Unban(ctx context.Context, username string) error {
	return s.modify(ctx, username, func(u *dbmysql.User) { u.Banned = false })
}

func (s *userService) SetLastMessage(ctx context.Context, username, text string) error {
	return s.modify(ctx, username, func(u *dbmysql.User) { u.LastMessage = &text })
}

func (s *userService) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.userRepo.DeleteUser(ctx, username); err != nil {
		return storeFailure(err)
	}
	return nil
}

func (s *userService) List(ctx context.Context) ([]*dbmysql.User, error) {
	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}
	return users, nil
}
