package token

import (
	"github.com/echo-chat/relay-service/config"
	"github.com/echo-chat/relay-service/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("token",
	fx.Provide(
		fx.Annotate(
			func(cfg *config.Config) *Validator {
				return NewValidator(cfg.Auth.Secret, cfg.Auth.ExpiresIn)
			},
			fx.As(new(service.CredentialValidator)),
		),
	),
)
