package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aiusd/aiusd-agent/internal/chat"
)

func newBotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot against a remote chat API (CHAT_API_URL)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			url := a.cfg.Telegram.ChatAPIURL
			stop, err := startTelegram(ctx, a.cfg, chat.NewClient(url), url)
			if err != nil {
				return err
			}
			defer stop()

			slog.Info("telegram bot running", slog.String("chat_api", url))
			<-ctx.Done()
			slog.Info("telegram bot stopped")
			return nil
		},
	}
}
