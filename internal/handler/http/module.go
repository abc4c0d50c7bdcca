// Package http hosts the relay's HTTP surface: the websocket connection
// endpoint and a health endpoint reporting the registry census.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/echo-chat/relay-service/config"
	"github.com/echo-chat/relay-service/internal/domain/registry"
	"github.com/echo-chat/relay-service/internal/handler/ws"
	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
)

func NewRouter(wsHandler *ws.WSHandler, hub registry.Hubber) *chi.Mux {
	r := chi.NewRouter()

	r.Handle("/ws", wsHandler)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(hub.Stats())
	})

	return r
}

var Module = fx.Module("http",
	fx.Provide(
		ws.NewWSHandler,
		NewRouter,
	),
	fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, mux *chi.Mux, logger *slog.Logger) {
		srv := &http.Server{
			Addr:              cfg.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					logger.Info("http server listening", slog.String("addr", cfg.Listen))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("http server failed", slog.Any("err", err))
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return srv.Shutdown(ctx)
			},
		})
	}),
)
