package telegram

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const maxMessageLen = 4096

func newRetryPolicy(delay time.Duration) retrypolicy.RetryPolicy[tgbotapi.Message] {
	return retrypolicy.NewBuilder[tgbotapi.Message]().
		HandleIf(func(_ tgbotapi.Message, err error) bool {
			return isTransientTelegramError(err)
		}).
		WithBackoff(delay, 10*delay).
		WithMaxRetries(3).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[tgbotapi.Message]) {
			slog.Warn("telegram: retrying send",
				slog.Int("attempt", e.Attempts()),
				slog.Any("error", e.LastError()))
		}).
		Build()
}

// send delivers one message, retrying transient failures.
func (c *Channel) send(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return failsafe.With(c.retry).Get(func() (tgbotapi.Message, error) {
		return c.api.Send(msg)
	})
}

// sendText sends text as plain text, split to fit the message limit.
func (c *Channel) sendText(chatID int64, text string) {
	for _, chunk := range splitMessage(sanitizeUTF8(text), maxMessageLen) {
		if chunk == "" {
			continue
		}
		if _, err := c.send(chatID, chunk); err != nil {
			slog.Error("telegram: send failed", slog.Int64("chat_id", chatID), slog.Any("error", err))
			return
		}
	}
}

// isTransientTelegramError reports whether a send is worth retrying.
func isTransientTelegramError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"429", "502", "503", "504",
		"too many requests", "timeout",
		"connection reset", "connection refused",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
