package a2a

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/gin-gonic/gin"

	"github.com/aiusd/aiusd-agent/internal/chat"
	"github.com/aiusd/aiusd-agent/internal/provider"
)

type stubChatter struct {
	resp *chat.Response
	got  []provider.Message
}

func (s *stubChatter) Chat(_ context.Context, msgs []provider.Message, _ string) *chat.Response {
	s.got = msgs
	return s.resp
}

func newRouter(c Chatter, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Register(r, c, "http://agent.test", "1.2.3", secret)
	return r
}

const sendBody = `{"jsonrpc":"2.0","id":1,"method":"message/send","params":{"message":{"kind":"message","messageId":"m-1","role":"user","parts":[{"kind":"text","text":"What is my balance?"}]}}}`

func TestAgentCard(t *testing.T) {
	r := newRouter(&stubChatter{}, "s3cret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, a2asrv.WellKnownAgentCardPath, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var card map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &card); err != nil {
		t.Fatal(err)
	}
	if card["name"] != "AIUSD Agent" || card["url"] != "http://agent.test/a2a" || card["version"] != "1.2.3" {
		t.Errorf("card = %v", card)
	}
}

func TestA2A_RequiresSecret(t *testing.T) {
	r := newRouter(&stubChatter{}, "s3cret")

	for _, auth := range []string{"", "Bearer wrong", "s3cret"} {
		req := httptest.NewRequest(http.MethodPost, "/a2a", strings.NewReader(sendBody))
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("auth %q: status = %d, want 401", auth, w.Code)
		}
	}
}

func TestA2A_MessageSend(t *testing.T) {
	c := &stubChatter{resp: &chat.Response{Success: true, Transcript: "You have 10 USDC in custody."}}
	r := newRouter(c, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/a2a", strings.NewReader(sendBody))
	req.Header.Set("Authorization", "Bearer s3cret")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "You have 10 USDC in custody.") {
		t.Errorf("body = %s", w.Body)
	}
	if len(c.got) != 1 || c.got[0].Role != provider.RoleUser || c.got[0].Content != "What is my balance?" {
		t.Errorf("chat messages = %+v", c.got)
	}
}

func TestA2A_FailedRun(t *testing.T) {
	c := &stubChatter{resp: &chat.Response{Error: "LLM call failed (round 1): boom"}}
	r := newRouter(c, "")

	req := httptest.NewRequest(http.MethodPost, "/a2a", strings.NewReader(sendBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "LLM call failed (round 1): boom") {
		t.Errorf("body = %s", w.Body)
	}
}
