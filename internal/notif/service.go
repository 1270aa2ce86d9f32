package notif

import (
	"context"
	"strings"

	"portalchat/internal/common"
	"portalchat/internal/dbmysql"
	"portalchat/internal/logging"
)

// AccountModerator is the account store side of moderation.
type AccountModerator interface {
	Ban(ctx context.Context, username string) error
	Unban(ctx context.Context, username string) error
	Delete(ctx context.Context, username string) error
	SetLastMessage(ctx context.Context, username, text string) error
	List(ctx context.Context) ([]*dbmysql.User, error)
}

// NotificationService carries out admin moderation actions.
type NotificationService interface {
	SendMessage(ctx context.Context, username, text string) error
	Kick(ctx context.Context, username string) error
	Unban(ctx context.Context, username string) error
	DeleteUser(ctx context.Context, username string) error
	Users(ctx context.Context) ([]*dbmysql.User, error)
}

type notificationService struct {
	registry *Registry
	accounts AccountModerator
}

func NewNotificationService(registry *Registry, accounts AccountModerator) NotificationService {
	return &notificationService{registry: registry, accounts: accounts}
}

// SendMessage pushes text to the user's stream and keeps it as their last admin message.
// Users without an account still get the push, as mailboxes are keyed by name only.
func (s *notificationService) SendMessage(ctx context.Context, username, text string) error {
	text = strings.TrimSpace(text)
	if username == "" || text == "" {
		return common.Invalid("missing_fields", "username and text are required")
	}

	s.registry.Push(username, text)
	if err := s.accounts.SetLastMessage(ctx, username, text); err != nil && !common.IsKind(err, common.KindNotFound) {
		return err
	}
	logging.Info().Str("user", username).Msg("admin message sent")
	return nil
}

// Kick signals a forced logout and bans the account.
func (s *notificationService) Kick(ctx context.Context, username string) error {
	if username == "" {
		return common.Invalid("missing_fields", "username is required")
	}

	s.registry.Kick(username)
	if err := s.accounts.Ban(ctx, username); err != nil && !common.IsKind(err, common.KindNotFound) {
		return err
	}
	logging.Info().Str("user", username).Msg("user kicked and banned")
	return nil
}

func (s *notificationService) Unban(ctx context.Context, username string) error {
	if username == "" {
		return common.Invalid("missing_fields", "username is required")
	}
	if err := s.accounts.Unban(ctx, username); err != nil {
		return err
	}
	logging.Info().Str("user", username).Msg("user unbanned")
	return nil
}

func (s *notificationService) DeleteUser(ctx context.Context, username string) error {
	if username == "" {
		return common.Invalid("missing_fields", "username is required")
	}
	if err := s.accounts.Delete(ctx, username); err != nil {
		return err
	}
	logging.Info().Str("user", username).Msg("user deleted")
	return nil
}

func (s *notificationService) Users(ctx context.Context) ([]*dbmysql.User, error) {
	return s.accounts.List(ctx)
}
