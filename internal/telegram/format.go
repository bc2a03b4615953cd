package telegram

import (
	"strings"
	"unicode/utf8"

	"github.com/aiusd/aiusd-agent/internal/bus"
)

const (
	replyHeader = "🤖 AI Reply:\n\n"
	emptyReply  = "Processing completed, but no specific content was returned."
)

// FormatReply renders a transcript for Telegram with bold markers removed.
func FormatReply(transcript string) string {
	if transcript == "" {
		return replyHeader + emptyReply
	}
	return replyHeader + strings.ReplaceAll(transcript, "**", "")
}

// FormatOutbound renders a reply or a failure notice.
func FormatOutbound(out bus.Outbound) string {
	if out.Failed() {
		return "❌ Processing failed: " + out.Error
	}
	return FormatReply(out.Text)
}

func sanitizeUTF8(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "\x00", "")
	return text
}

// splitMessage splits text into chunks of at most maxLen characters,
// preferring newline boundaries.
func splitMessage(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		if len(runes) <= maxLen {
			chunks = append(chunks, string(runes))
			break
		}
		cut := maxLen
		for i := maxLen - 1; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	return chunks
}
