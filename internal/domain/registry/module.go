package registry

import (
	"context"

	"github.com/echo-chat/relay-service/config"
	"go.uber.org/fx"
)

var Module = fx.Module("registry",
	fx.Provide(
		func(cfg *config.Config) *Hub {
			return NewHub(
				WithMailboxSize(cfg.Registry.MailboxSize),
				WithSendTimeout(cfg.Registry.SendTimeout),
			)
		},
		func(h *Hub) Hubber { return h },
	),
	fx.Invoke(func(lc fx.Lifecycle, h Hubber) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				h.Shutdown()
				return nil
			},
		})
	}),
)
