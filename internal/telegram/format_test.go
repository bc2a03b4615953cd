package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aiusd/aiusd-agent/internal/bus"
)

func TestFormatReply(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "🤖 AI Reply:\n\nProcessing completed, but no specific content was returned."},
		{"**Done**. Sent **10** USDC", "🤖 AI Reply:\n\nDone. Sent 10 USDC"},
		{"plain *italic* text", "🤖 AI Reply:\n\nplain *italic* text"},
	}
	for _, tt := range tests {
		if got := FormatReply(tt.in); got != tt.want {
			t.Errorf("FormatReply(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatOutbound(t *testing.T) {
	ok := bus.Outbound{Text: "hi"}
	if got := FormatOutbound(ok); got != "🤖 AI Reply:\n\nhi" {
		t.Errorf("success = %q", got)
	}
	failed := bus.Outbound{Text: "partial", Error: "list tools: mcp connect: refused"}
	if got := FormatOutbound(failed); got != "❌ Processing failed: list tools: mcp connect: refused" {
		t.Errorf("failure = %q", got)
	}
}

func TestSplitMessage_Short(t *testing.T) {
	chunks := splitMessage("hello", 4096)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("chunks = %q", chunks)
	}
}

func TestSplitMessage_PrefersNewlines(t *testing.T) {
	text := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)
	chunks := splitMessage(text, 10)
	if len(chunks) != 2 || chunks[0] != "aaaaaa" || chunks[1] != "bbbbbb" {
		t.Errorf("chunks = %q", chunks)
	}
}

func TestSplitMessage_HardCut(t *testing.T) {
	chunks := splitMessage(strings.Repeat("x", 25), 10)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	if chunks[0] != strings.Repeat("x", 10) || chunks[2] != "xxxxx" {
		t.Errorf("chunks = %q", chunks)
	}
}

func TestSplitMessage_RuneSafe(t *testing.T) {
	text := strings.Repeat("💰", 9000)
	chunks := splitMessage(text, maxMessageLen)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	total := 0
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
		n := utf8.RuneCountInString(c)
		if n > maxMessageLen {
			t.Errorf("chunk %d has %d runes", i, n)
		}
		total += n
	}
	if total != 9000 {
		t.Errorf("total runes = %d, want 9000", total)
	}
}

func TestSanitizeUTF8(t *testing.T) {
	if got := sanitizeUTF8("ok\x00\xffdone"); got != "okdone" {
		t.Errorf("sanitizeUTF8 = %q", got)
	}
}

func TestMaskToken(t *testing.T) {
	if got := maskToken("abc123def456"); got != "abc123de" {
		t.Errorf("maskToken = %q", got)
	}
	if got := maskToken("short"); got != "short" {
		t.Errorf("maskToken = %q", got)
	}
}
