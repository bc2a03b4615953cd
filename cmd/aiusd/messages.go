package main

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/aiusd/aiusd-agent/internal/bus"
	"github.com/aiusd/aiusd-agent/internal/chat"
	"github.com/aiusd/aiusd-agent/internal/provider"
)

// maxConcurrentRuns bounds agent runs started from Telegram.
const maxConcurrentRuns = 4

// Chatter runs one chat turn. Implemented by chat.Service and chat.Client.
type Chatter interface {
	Chat(ctx context.Context, msgs []provider.Message, token string) *chat.Response
}

// runMessageLoop answers inbound messages until ctx is done or the bus closes.
func runMessageLoop(ctx context.Context, msgBus *bus.Bus, c Chatter) {
	var g errgroup.Group
	g.SetLimit(maxConcurrentRuns)
	defer g.Wait() //nolint:errcheck

	for {
		in, ok := msgBus.ConsumeInbound(ctx)
		if !ok {
			return
		}
		g.Go(func() error {
			processInbound(ctx, msgBus, c, in)
			return nil
		})
	}
}

func processInbound(ctx context.Context, msgBus *bus.Bus, c Chatter, in bus.Inbound) {
	slog.Info("processing message",
		slog.String("id", in.ID),
		slog.String("channel", in.Channel),
		slog.Int64("user_id", in.UserID))

	resp := c.Chat(ctx, []provider.Message{{Role: provider.RoleUser, Content: in.Text}}, in.Token)

	var errMsg string
	if !resp.Success {
		errMsg = resp.Error
		if errMsg == "" {
			errMsg = "Unknown error"
		}
		slog.Warn("message failed", slog.String("id", in.ID), slog.String("error", errMsg))
	}
	msgBus.PublishOutbound(in.Reply(resp.Transcript, errMsg))
}
