package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aiusd/aiusd-agent/internal/api"
	"github.com/aiusd/aiusd-agent/internal/chat"
	"github.com/aiusd/aiusd-agent/internal/config"
)

func newGatewayCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Serve the HTTP API, A2A and metrics, plus the Telegram bot when configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			return runGateway(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func runGateway(ctx context.Context, a *app) error {
	cfg := a.cfg
	svc := chat.NewService(cfg)

	sigCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Telegram.BotToken != "" {
		stop, err := startTelegram(sigCtx, cfg, svc, "in-process")
		if err != nil {
			slog.Error("telegram init failed", slog.Any("error", err))
		} else {
			defer stop()
			slog.Info("telegram channel active")
		}
	}

	slog.Info("gateway config",
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.String("mcp_url", cfg.MCP.URL),
		slog.Int("max_rounds", cfg.Agent.MaxRounds))

	return startHTTPServer(sigCtx, &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(svc, cfg, version),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout(cfg),
	}, "gateway")
}

// writeSlack covers request decoding and response encoding around a run.
const writeSlack = 30 * time.Second

// writeTimeout is long enough for a run that spends its whole round budget:
// one tool listing plus, per round, an LLM call and a tool call. An
// unlimited budget disables the write deadline.
func writeTimeout(cfg *config.Config) time.Duration {
	if cfg.Agent.MaxRounds <= 0 {
		return 0
	}
	perRound := cfg.LLM.Timeout + cfg.MCP.Timeout
	return cfg.MCP.Timeout + time.Duration(cfg.Agent.MaxRounds)*perRound + writeSlack
}
