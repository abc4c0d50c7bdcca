package memory

import (
	"github.com/echo-chat/relay-service/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("memory",
	fx.Provide(
		NewDB,
		fx.Annotate(
			NewUsers,
			fx.As(new(service.UserLookup)),
		),
		fx.Annotate(
			NewGraph,
			fx.As(new(service.SocialGraph)),
		),
		fx.Annotate(
			NewMessages,
			fx.As(new(service.MessageStore)),
		),
	),
)
