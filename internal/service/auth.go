package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/echo-chat/relay-service/internal/domain/model"
)

// Auther is the authentication gate, the first mandatory step of the
// connection lifecycle. It validates a raw credential and resolves it to
// an identity before any other traffic is accepted.
type Auther interface {
	Resolve(ctx context.Context, credential string) (model.Identity, error)
}

// Interface guard
var _ Auther = (*AuthGate)(nil)

// AuthGate strips transport framing from the credential and delegates
// verification to the credential-validation collaborator. It keeps no
// state beyond validating and resolving.
type AuthGate struct {
	validator CredentialValidator
	logger    *slog.Logger
}

func NewAuthGate(validator CredentialValidator, logger *slog.Logger) *AuthGate {
	return &AuthGate{
		validator: validator,
		logger:    logger,
	}
}

func (g *AuthGate) Resolve(ctx context.Context, credential string) (model.Identity, error) {
	token := strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if token == "" {
		return model.Identity{}, model.ErrInvalidCredential
	}

	identity, err := g.validator.Resolve(ctx, token)
	if err != nil {
		g.logger.Debug("credential rejected", slog.Any("err", err))
		return model.Identity{}, fmt.Errorf("%w: %v", model.ErrInvalidCredential, err)
	}

	return identity, nil
}
