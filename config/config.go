package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration of the relay.
type Config struct {
	Listen   string         `mapstructure:"listen"`
	LogLevel string         `mapstructure:"log_level"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Registry RegistryConfig `mapstructure:"registry"`
	Broker   BrokerConfig   `mapstructure:"broker"`
}

// AuthConfig holds the credential-validation settings.
type AuthConfig struct {
	// Secret signs and verifies bearer tokens. Base64 values of at least
	// 32 decoded bytes are used as-is, anything else is derived via SHA-256.
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
}

// RegistryConfig tunes the session registry buffers.
type RegistryConfig struct {
	// MailboxSize is the per-user actor mailbox capacity.
	MailboxSize int `mapstructure:"mailbox_size"`
	// SessionBuffer is the per-connection outbound channel capacity.
	SessionBuffer int `mapstructure:"session_buffer"`
	// SendTimeout bounds how long a delivery may wait on a saturated session.
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// BrokerConfig configures the optional out-of-band event bus.
// With an empty URL the relay publishes to an in-process bus instead.
type BrokerConfig struct {
	URL string `mapstructure:"url"`
}

// LoadConfig reads configuration from an optional file and the environment.
// Environment variables use the RELAY_ prefix, e.g. RELAY_AUTH_SECRET.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("auth.expires_in", time.Hour)
	v.SetDefault("registry.mailbox_size", 2048)
	v.SetDefault("registry.session_buffer", 256)
	v.SetDefault("registry.send_timeout", 500*time.Millisecond)

	// AutomaticEnv only resolves keys viper already knows about.
	v.SetDefault("auth.secret", "")
	v.SetDefault("broker.url", "")

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("config: auth.secret is required")
	}

	return &cfg, nil
}
