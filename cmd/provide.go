package cmd

import (
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/echo-chat/relay-service/config"
)

func ProvideLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})).With(
		slog.String("service", ServiceName),
		slog.String("version", version),
	)
	slog.SetDefault(logger)

	return logger
}

func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}
