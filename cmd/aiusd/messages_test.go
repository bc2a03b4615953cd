package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aiusd/aiusd-agent/internal/bus"
	"github.com/aiusd/aiusd-agent/internal/chat"
	"github.com/aiusd/aiusd-agent/internal/provider"
)

type stubChatter struct {
	mu     sync.Mutex
	resp   *chat.Response
	tokens []string
	texts  []string
}

func (s *stubChatter) Chat(_ context.Context, msgs []provider.Message, token string) *chat.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
	if len(msgs) == 1 {
		s.texts = append(s.texts, msgs[0].Content)
	}
	return s.resp
}

func runLoop(t *testing.T, c Chatter, in bus.Inbound) bus.Outbound {
	t.Helper()
	b := bus.New()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		runMessageLoop(ctx, b, c)
		close(done)
	}()

	b.PublishInbound(in)
	out, ok := b.SubscribeOutbound(ctx)
	if !ok {
		t.Fatal("no reply")
	}
	cancel()
	<-done
	return out
}

func TestMessageLoop_Success(t *testing.T) {
	c := &stubChatter{resp: &chat.Response{Success: true, Transcript: "Balance: 10 USDC"}}
	in := bus.NewInbound("telegram", 5, 50, "balance?", "user-token")
	in.ProgressID = 9

	out := runLoop(t, c, in)

	if out.ID != in.ID || out.ChatID != 50 || out.ProgressID != 9 || out.Channel != "telegram" {
		t.Errorf("out = %+v", out)
	}
	if out.Failed() || out.Text != "Balance: 10 USDC" {
		t.Errorf("out = %+v", out)
	}
	if len(c.tokens) != 1 || c.tokens[0] != "user-token" || c.texts[0] != "balance?" {
		t.Errorf("chat called with tokens=%v texts=%v", c.tokens, c.texts)
	}
}

func TestMessageLoop_Failure(t *testing.T) {
	c := &stubChatter{resp: &chat.Response{Success: false, Error: "LLM call failed (round 1): boom"}}
	out := runLoop(t, c, bus.NewInbound("telegram", 1, 1, "hi", "tok"))
	if out.Error != "LLM call failed (round 1): boom" {
		t.Errorf("Error = %q", out.Error)
	}
}

func TestMessageLoop_UnknownError(t *testing.T) {
	c := &stubChatter{resp: &chat.Response{Success: false}}
	out := runLoop(t, c, bus.NewInbound("telegram", 1, 1, "hi", "tok"))
	if out.Error != "Unknown error" {
		t.Errorf("Error = %q", out.Error)
	}
}

func TestMessageLoop_StopsOnClose(t *testing.T) {
	b := bus.New()
	done := make(chan struct{})
	go func() {
		runMessageLoop(context.Background(), b, &stubChatter{})
		close(done)
	}()
	b.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after Close")
	}
}
