// Package token implements the credential-validation collaborator with
// HS256 JWTs.
package token

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/echo-chat/relay-service/internal/domain/model"
	"github.com/echo-chat/relay-service/internal/service"
	"github.com/golang-jwt/jwt/v5"
)

// Interface guard
var _ service.CredentialValidator = (*Validator)(nil)

// Claims is the payload stored inside issued tokens. The subject carries
// the username, user_id the numeric account key.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

type Validator struct {
	key       []byte
	expiresIn time.Duration
}

func NewValidator(secret string, expiresIn time.Duration) *Validator {
	return &Validator{
		key:       deriveKey(secret),
		expiresIn: expiresIn,
	}
}

// deriveKey accepts a base64 secret of at least 32 decoded bytes as-is
// and derives a 32-byte key from anything else via SHA-256.
func deriveKey(secret string) []byte {
	trimmed := strings.TrimSpace(secret)
	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil && len(decoded) >= 32 {
		return decoded
	}
	sum := sha256.Sum256([]byte(trimmed))
	return sum[:]
}

// Resolve parses and verifies the token and maps its claims to an identity.
func (v *Validator) Resolve(_ context.Context, tokenString string) (model.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", model.ErrInvalidCredential, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.UserID == 0 {
		return model.Identity{}, model.ErrInvalidCredential
	}

	return model.Identity{ID: claims.UserID, Username: claims.Subject}, nil
}

// Generate issues a signed token for the given identity. Used by the
// platform's account service and by tests.
func (v *Validator) Generate(identity model.Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: identity.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.expiresIn)),
			Issuer:    "echo-chat",
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}
