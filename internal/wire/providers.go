package wire

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"portalchat/internal/chat/broadcast"
	"portalchat/internal/chat/handler"
	"portalchat/internal/chat/repository"
	"portalchat/internal/chat/retention"
	"portalchat/internal/chat/service"
	"portalchat/internal/common"
	"portalchat/internal/config"
	"portalchat/internal/dbmongo"
	"portalchat/internal/dbmysql"
	"portalchat/internal/logging"
	"portalchat/internal/media"
	"portalchat/internal/notif"
	"portalchat/internal/user"
)

// Application is everything cmd/chat-svc needs to serve.
type Application struct {
	Config              *config.Config
	Auth                *common.Authenticator
	Hub                 *broadcast.Hub
	ChatHandler         *handler.ChatHandler
	NotificationHandler *notif.NotificationHandler
	UserHandler         *user.Handler
	MediaServer         *media.HTTPServer
}

// Backends holds the external connections the configured storage needs.
// Fields stay nil when no store uses them.
type Backends struct {
	DB    *gorm.DB
	Mongo *dbmongo.MongoClient
}

func ProvideConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ProvideBackends(cfg *config.Config) (*Backends, func(), error) {
	b := &Backends{}
	if cfg.Storage.Backend == "mysql" {
		db, err := dbmysql.NewMySQL(cfg)
		if err != nil {
			return nil, nil, err
		}
		b.DB = db
	}
	if cfg.Storage.ImageBackend == "gridfs" {
		mc, err := dbmongo.NewMongoConnection(cfg)
		if err != nil {
			b.close()
			return nil, nil, err
		}
		b.Mongo = mc
	}
	return b, b.close, nil
}

func (b *Backends) close() {
	if b.DB != nil {
		if sqlDB, err := b.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logging.Warn().Err(err).Msg("closing MySQL")
			}
		}
	}
	if b.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.Mongo.Close(ctx); err != nil {
			logging.Warn().Err(err).Msg("closing MongoDB")
		}
	}
}

func ProvideMessageStore(cfg *config.Config, b *Backends) (repository.MessageStore, func(), error) {
	var (
		store repository.MessageStore
		err   error
	)
	switch cfg.Storage.Backend {
	case "memory":
		store = repository.NewMemoryStore()
	case "file":
		store, err = repository.NewFileStore(filepath.Join(cfg.Storage.DataDir, "chat_messages.json"))
	case "badger":
		store, err = repository.OpenBadgerStore(filepath.Join(cfg.Storage.DataDir, "chat"))
	case "mysql":
		store = repository.NewGormStore(b.DB)
	default:
		err = fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, nil, err
	}
	logging.Info().Str("backend", cfg.Storage.Backend).Msg("message store ready")
	return store, func() {
		if err := store.Close(); err != nil {
			logging.Warn().Err(err).Msg("closing message store")
		}
	}, nil
}

func ProvideUserRepository(cfg *config.Config, b *Backends) (user.UserRepository, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return user.NewMemoryRepository(), nil
	case "mysql":
		return user.NewUserRepository(b.DB), nil
	default:
		// badger keeps only the chat; accounts stay in the flat users file
		return user.NewFileRepository(filepath.Join(cfg.Storage.DataDir, "users.json"))
	}
}

func ProvideImageStore(cfg *config.Config, b *Backends) (media.ImageStore, error) {
	if cfg.Storage.ImageBackend == "gridfs" {
		return dbmongo.NewGridFSImageStore(b.Mongo), nil
	}
	return media.NewDiskStore(cfg.Storage.UploadDir)
}

func ProvideHub(cfg *config.Config) *broadcast.Hub {
	return broadcast.NewHub(cfg.Chat.StreamQueueSize)
}

func ProvideRegistry(cfg *config.Config) *notif.Registry {
	return notif.NewRegistry(cfg.Chat.NotifyQueueSize)
}

func ProvideTokenIssuer(cfg *config.Config) *common.TokenIssuer {
	return common.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.SessionTTL())
}

func ProvideUserService(repo user.UserRepository, issuer *common.TokenIssuer, cfg *config.Config) user.UserService {
	return user.NewUserService(repo, issuer, cfg.Auth)
}

func ProvideAuthenticator(issuer *common.TokenIssuer, users user.UserService) *common.Authenticator {
	return common.NewAuthenticator(issuer, users)
}

func ProvideAccountModerator(users user.UserService) notif.AccountModerator {
	return users
}

func ProvideSweeper(chat service.ChatService, cfg *config.Config) *retention.Sweeper {
	return retention.NewSweeper(chat, time.Weekday(cfg.Chat.PurgeWeekday), cfg.Chat.PurgeHour, retention.WithLocation(time.Local))
}

func ProvideNotificationHandler(svc notif.NotificationService, reg *notif.Registry, cfg *config.Config) *notif.NotificationHandler {
	return notif.NewNotificationHandler(svc, reg, cfg.Keepalive())
}

func ProvideUserHandler(users user.UserService, cfg *config.Config) *user.Handler {
	return user.NewHandler(users, cfg.SessionTTL(), cfg.Server.Environment == "production")
}
