//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"portalchat/internal/chat/broadcast"
	"portalchat/internal/chat/handler"
	"portalchat/internal/chat/retention"
	"portalchat/internal/chat/service"
	"portalchat/internal/media"
	"portalchat/internal/notif"
)

var storageSet = wire.NewSet(
	ProvideBackends,
	ProvideMessageStore,
	ProvideUserRepository,
	ProvideImageStore,
)

var chatSet = wire.NewSet(
	ProvideHub,
	wire.Bind(new(service.Publisher), new(*broadcast.Hub)),
	service.NewChatService,
	ProvideSweeper,
	wire.Bind(new(handler.Sweeper), new(*retention.Sweeper)),
	handler.NewChatHandler,
	media.NewHTTPServer,
)

var accountSet = wire.NewSet(
	ProvideTokenIssuer,
	ProvideUserService,
	ProvideAuthenticator,
	ProvideUserHandler,
	ProvideAccountModerator,
	ProvideRegistry,
	notif.NewNotificationService,
	ProvideNotificationHandler,
)

func InitializeApplication() (*Application, func(), error) {
	wire.Build(
		ProvideConfig,
		storageSet,
		chatSet,
		accountSet,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}
