package service

import (
	"log/slog"

	"github.com/echo-chat/relay-service/config"
	"github.com/echo-chat/relay-service/internal/domain/registry"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"service",

	fx.Provide(
		fx.Annotate(
			NewAuthGate,
			fx.As(new(Auther)),
		),
		fx.Annotate(
			NewSocialGuard,
			fx.As(new(Guard)),
		),
		fx.Annotate(
			NewUserDirectory,
			fx.As(new(Directory)),
		),
		fx.Annotate(
			NewPresenceBroadcaster,
			fx.As(new(Broadcaster)),
		),
		fx.Annotate(
			func(cfg *config.Config, hub registry.Hubber, presence Broadcaster) *DeliveryService {
				return NewDeliveryService(hub, presence, cfg.Registry.SessionBuffer)
			},
			fx.As(new(Deliverer)),
		),
		fx.Annotate(
			NewMessageRouter,
			fx.As(new(Router)),
		),
	),

	// Layer cross-cutting logging onto the authorization guard.
	fx.Decorate(func(orig Guard, logger *slog.Logger) Guard {
		return &guardMiddleware{
			next:   orig,
			logger: logger,
		}
	}),
)
