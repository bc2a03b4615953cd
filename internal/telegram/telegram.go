// Package telegram is the Telegram front end of the agent.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/retrypolicy"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aiusd/aiusd-agent/internal/bus"
	"github.com/aiusd/aiusd-agent/internal/metrics"
	"github.com/aiusd/aiusd-agent/internal/tokenstore"
)

// botAPI is the subset of *tgbotapi.BotAPI used to talk to users.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Config configures the bot.
type Config struct {
	Token        string
	AllowedUsers []string // empty allows everyone
	Backend      string   // shown by /status
}

// Channel bridges Telegram chats and the message bus.
type Channel struct {
	bot     *tgbotapi.BotAPI
	api     botAPI
	bus     *bus.Bus
	store   tokenstore.Store
	allowed map[int64]bool
	backend string
	retry   retrypolicy.RetryPolicy[tgbotapi.Message]
}

// New connects to the Bot API.
func New(cfg Config, msgBus *bus.Bus, store tokenstore.Store) (*Channel, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN not set")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	c := newChannel(bot, msgBus, store, cfg, 500*time.Millisecond)
	c.bot = bot
	return c, nil
}

func newChannel(api botAPI, msgBus *bus.Bus, store tokenstore.Store, cfg Config, retryDelay time.Duration) *Channel {
	allowed := make(map[int64]bool)
	for _, s := range cfg.AllowedUsers {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			allowed[id] = true
		}
	}
	return &Channel{
		api:     api,
		bus:     msgBus,
		store:   store,
		allowed: allowed,
		backend: cfg.Backend,
		retry:   newRetryPolicy(retryDelay),
	}
}

// Start polls for updates and delivers replies until ctx is done.
func (c *Channel) Start(ctx context.Context) {
	slog.Info("telegram bot started",
		slog.String("username", c.bot.Self.UserName),
		slog.Int("allowed_users", len(c.allowed)),
		slog.String("backend", c.backend))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil {
					c.handleMessage(update.Message)
				}
			}
		}
	}()

	go func() {
		for {
			msg, ok := c.bus.SubscribeOutbound(ctx)
			if !ok {
				return
			}
			if msg.Channel != "telegram" {
				continue
			}
			c.deliver(msg)
		}
	}()
}

func (c *Channel) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	userID := msg.From.ID
	if len(c.allowed) > 0 && !c.allowed[userID] {
		slog.Warn("telegram: unauthorized user", slog.Int64("user_id", userID))
		metrics.TelegramUpdates.WithLabelValues("rejected").Inc()
		return
	}

	if msg.IsCommand() {
		metrics.TelegramUpdates.WithLabelValues("command").Inc()
		c.handleCommand(msg)
		return
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if text == "" {
		return
	}
	metrics.TelegramUpdates.WithLabelValues("text").Inc()
	c.submit(msg.Chat.ID, userID, text, noTokenText)
}

// submit queues text for an agent run with the user's stored token.
func (c *Channel) submit(chatID, userID int64, text, noToken string) {
	token, ok := c.store.Get(userID)
	if !ok {
		c.sendText(chatID, noToken)
		return
	}

	if _, err := c.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		slog.Debug("telegram: chat action failed", slog.Any("error", err))
	}

	in := bus.NewInbound("telegram", userID, chatID, text, token)
	if m, err := c.send(chatID, processingText); err != nil {
		slog.Warn("telegram: processing notice failed", slog.Any("error", err))
	} else {
		in.ProgressID = m.MessageID
	}

	slog.Info("telegram: message queued",
		slog.String("id", in.ID),
		slog.Int64("user_id", userID))
	c.bus.PublishInbound(in)
}

// deliver removes the processing notice and sends the reply.
func (c *Channel) deliver(out bus.Outbound) {
	if out.ProgressID != 0 {
		if _, err := c.api.Request(tgbotapi.NewDeleteMessage(out.ChatID, out.ProgressID)); err != nil {
			slog.Warn("telegram: delete processing notice failed", slog.Any("error", err))
		}
	}
	c.sendText(out.ChatID, FormatOutbound(out))
}
