package cmd

import (
	"log/slog"

	"github.com/echo-chat/relay-service/config"
	"github.com/echo-chat/relay-service/internal/adapter/memory"
	"github.com/echo-chat/relay-service/internal/adapter/pubsub"
	"github.com/echo-chat/relay-service/internal/adapter/store"
	"github.com/echo-chat/relay-service/internal/adapter/token"
	"github.com/echo-chat/relay-service/internal/domain/registry"
	httphandler "github.com/echo-chat/relay-service/internal/handler/http"
	"github.com/echo-chat/relay-service/internal/service"
	"go.uber.org/fx"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(appOptions(cfg))
}

func appOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
		),
		// Shield every module's view of the message store with the
		// circuit breaker.
		fx.Decorate(func(next service.MessageStore, logger *slog.Logger) service.MessageStore {
			return store.NewBreaker(next, logger)
		}),
		registry.Module,
		pubsub.Module,
		token.Module,
		memory.Module,
		service.Module,
		httphandler.Module,
	)
}
