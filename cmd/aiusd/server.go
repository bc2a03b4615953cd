package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aiusd/aiusd-agent/internal/bus"
	"github.com/aiusd/aiusd-agent/internal/config"
	"github.com/aiusd/aiusd-agent/internal/telegram"
	"github.com/aiusd/aiusd-agent/internal/tokenstore"
)

const shutdownTimeout = 10 * time.Second

// startHTTPServer serves until ctx is done, then shuts down gracefully.
func startHTTPServer(ctx context.Context, srv *http.Server, label string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info(label+" listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("%s: %w", label, err)
	case <-ctx.Done():
	}
	slog.Info("shutting down " + label)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn(label+" shutdown", slog.Any("error", err))
	}
	slog.Info(label + " stopped")
	return nil
}

// startTelegram wires the bot, its token store and the message loop.
// The returned func releases them.
func startTelegram(ctx context.Context, cfg *config.Config, c Chatter, backend string) (func(), error) {
	store, err := tokenstore.Open(cfg.Telegram.TokenStore, cfg.Telegram.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	msgBus := bus.New()
	tg, err := telegram.New(telegram.Config{
		Token:        cfg.Telegram.BotToken,
		AllowedUsers: cfg.Telegram.AllowedUsers,
		Backend:      backend,
	}, msgBus, store)
	if err != nil {
		msgBus.Close()
		store.Close() //nolint:errcheck
		return nil, err
	}

	tg.Start(ctx)
	go runMessageLoop(ctx, msgBus, c)

	return func() {
		msgBus.Close()
		if err := store.Close(); err != nil {
			slog.Warn("close token store", slog.Any("error", err))
		}
	}, nil
}
