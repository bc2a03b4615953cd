package telegram

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const minTokenLen = 10

const (
	welcomeText = "🤖 Welcome to AI USD Bot!\n\n" +
		"What can this bot do?\n" +
		"Your Friendly-AI powered Crypto AIUSD Bot. Buy, Sell, Swap, Transfer.\n\n" +
		"📋 Usage Steps:\n" +
		"1. First, set your authentication token\n" +
		"2. Then start chatting\n\n" +
		"💡 Type /token <your_token> to set authentication token\n" +
		"💡 Type /chat <message> to send a message\n" +
		"💡 Type /help for detailed instructions"

	helpText = "📖 Usage Instructions:\n\n" +
		"🔑 Set Authentication Token:\n" +
		"• Type /token <your_token>\n" +
		"• Example: /token abc123def456\n\n" +
		"💬 Start Chatting:\n" +
		"• Method 1: Directly send messages to start chatting\n" +
		"• Method 2: Use /chat <message content>\n" +
		"• Example: /chat Hello, help me analyze the market\n" +
		"• Supports both Chinese and English conversations\n\n" +
		"🔧 Other Commands:\n" +
		"• /status - Check current status\n" +
		"• /token - Check current token status\n" +
		"• /start - Start over"

	noTokenText = "🤖 Welcome to AI USD Bot!\n\n" +
		"What can this bot do?\n" +
		"Your Friendly-AI powered Crypto AIUSD Bot. Buy, Sell, Swap, Transfer.\n\n" +
		"❌ Please set authentication token first to start\n\n" +
		"💡 Usage: /token <your_token>\n" +
		"💡 Type /help for detailed instructions"

	noTokenChatText = "🤖 Welcome to AI USD Bot!\n\n" +
		"What can this bot do?\n" +
		"Your Friendly-AI powered Crypto AIUSD Bot. Buy, Sell, Swap, Transfer.\n\n" +
		"❌ Please set authentication token first\n\n" +
		"💡 Usage: /token <your_token>\n" +
		"💡 Type /help for detailed instructions"

	chatUsageText     = "💬 Usage: /chat <message content>\n\nExample: /chat Hello, help me analyze the market"
	tokenMissingText  = "❌ Authentication token not set yet\n\n💡 Usage: /token <your_token>"
	tokenShortText    = "❌ Token is too short, please provide a valid authentication token"
	tokenSavedText    = "✅ Authentication token set successfully!\n\nNow you can send messages to start chatting."
	tokenSaveFailText = "❌ Failed to save your token, please try again later."
	processingText    = "⏳ Processing your request..."
)

func (c *Channel) handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		c.sendText(chatID, welcomeText)
	case "help":
		c.sendText(chatID, helpText)
	case "token":
		c.sendText(chatID, c.tokenCommand(msg.From.ID, args))
	case "status":
		c.sendText(chatID, c.statusText(msg.From.ID))
	case "chat":
		if args == "" {
			c.sendText(chatID, chatUsageText)
			return
		}
		c.submit(chatID, msg.From.ID, args, noTokenChatText)
	default:
		// Unknown commands are ordinary chat text.
		c.submit(chatID, msg.From.ID, msg.Text, noTokenText)
	}
}

// tokenCommand shows the masked token or stores a new one.
func (c *Channel) tokenCommand(userID int64, arg string) string {
	if arg == "" {
		token, ok := c.store.Get(userID)
		if !ok {
			return tokenMissingText
		}
		return fmt.Sprintf("🔑 Current token is set\n\nToken: %s...", maskToken(token))
	}

	if utf8.RuneCountInString(arg) < minTokenLen {
		return tokenShortText
	}
	if err := c.store.Set(userID, arg); err != nil {
		slog.Error("telegram: save token failed", slog.Int64("user_id", userID), slog.Any("error", err))
		return tokenSaveFailText
	}
	slog.Info("telegram: token saved", slog.Int64("user_id", userID))
	return tokenSavedText
}

func (c *Channel) statusText(userID int64) string {
	_, hasToken := c.store.Get(userID)

	status, hint := "❌ Token Not Set", "🔑 Please set authentication token first"
	if hasToken {
		status, hint = "✅ Token Set", "💬 You can start chatting now!"
	}
	return fmt.Sprintf("📊 Bot Status Information:\n\n"+
		"👤 Your Status: %s\n"+
		"👥 Total Users: %d\n"+
		"🌐 API URL: %s\n\n"+
		"%s", status, c.store.Count(), c.backend, hint)
}

// maskToken keeps the first 8 characters.
func maskToken(token string) string {
	r := []rune(token)
	if len(r) > 8 {
		r = r[:8]
	}
	return string(r)
}
