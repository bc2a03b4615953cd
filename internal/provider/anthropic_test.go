package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestAnthropic(baseURL string) *Anthropic {
	return NewAnthropic(Config{
		APIKey:     "test-key",
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	})
}

// anthropicMessage wraps content blocks into a Messages API response body.
func anthropicMessage(content string) []byte {
	return []byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",` +
		`"content":` + content + `,"stop_reason":"end_turn","stop_sequence":null,` +
		`"usage":{"input_tokens":10,"output_tokens":5}}`)
}

func TestAnthropic_TextBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(anthropicMessage(`[{"type":"text","text":"first"},{"type":"text","text":"second"}]`))
	}))
	defer srv.Close()

	step, err := newTestAnthropic(srv.URL).Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if step.IsToolCall() || step.Text != "first" {
		t.Errorf("step = %+v, want message %q", step, "first")
	}
}

// A tool_use block wins over text that precedes it.
func TestAnthropic_ToolUsePriority(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(anthropicMessage(`[{"type":"text","text":"let me check"},` +
			`{"type":"tool_use","id":"toolu_01","name":"genalpha_get_balance","input":{"asset":"USDC"}}]`))
	}))
	defer srv.Close()

	step, err := newTestAnthropic(srv.URL).Generate(context.Background(), []Message{{Role: RoleUser, Content: "balance"}}, nil)
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if !step.IsToolCall() {
		t.Fatalf("step = %+v, want tool call", step)
	}
	if step.Call.ID != "toolu_01" || step.Call.Name != "genalpha_get_balance" {
		t.Errorf("Call = %+v", step.Call)
	}
	if step.Call.Params["asset"] != "USDC" {
		t.Errorf("Params = %v", step.Call.Params)
	}
}

func TestAnthropic_NoSupportedBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(anthropicMessage(`[]`))
	}))
	defer srv.Close()

	_, err := newTestAnthropic(srv.URL).Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v (%T), want *ProviderError", err, err)
	}
	if pe.Provider != "anthropic" {
		t.Errorf("Provider = %q", pe.Provider)
	}
}

// Non-2xx responses fail once; SDK retries are off.
func TestAnthropic_APIError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := newTestAnthropic(srv.URL).Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v (%T), want *ProviderError", err, err)
	}
	if pe.StatusCode != http.StatusTooManyRequests || !pe.IsRateLimit() {
		t.Errorf("StatusCode = %d", pe.StatusCode)
	}
	if pe.Message != "rate_limit_error: slow down" {
		t.Errorf("Message = %q", pe.Message)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("hits = %d, want 1", n)
	}
}

// The conversation is mapped onto system, tool_use and tool_result blocks.
func TestAnthropic_RequestShape(t *testing.T) {
	var (
		mu   sync.Mutex
		body map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		_ = json.Unmarshal(data, &body)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(anthropicMessage(`[{"type":"text","text":"ok"}]`))
	}))
	defer srv.Close()

	conv := []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "withdraw 5"},
		{Role: RoleAssistant, Call: &FunctionCall{ID: "toolu_9", Name: "withdraw", Arguments: `{"amount":5}`}},
		{Role: RoleTool, ToolCallID: "toolu_9", Content: `{"status":"ok"}`},
	}
	tools := []ToolDefinition{{
		Type: "function",
		Function: FunctionDefinition{
			Name:        "withdraw",
			Description: "Withdraw funds",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"amount": map[string]any{"type": "number", "description": ""}},
				"required":   []string{"amount"},
			},
		},
	}}

	if _, err := newTestAnthropic(srv.URL).Generate(context.Background(), conv, tools); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()

	if body["model"] != defaultAnthropicModel {
		t.Errorf("model = %v", body["model"])
	}
	if mt, _ := body["max_tokens"].(float64); mt != defaultAnthropicMaxTokens {
		t.Errorf("max_tokens = %v", body["max_tokens"])
	}
	system, _ := body["system"].([]any)
	if len(system) != 1 || system[0].(map[string]any)["text"] != "be brief" {
		t.Errorf("system = %v", body["system"])
	}

	msgs, _ := body["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("len(messages) = %d, want 3: %v", len(msgs), msgs)
	}
	assistant := msgs[1].(map[string]any)
	block := assistant["content"].([]any)[0].(map[string]any)
	if block["type"] != "tool_use" || block["id"] != "toolu_9" {
		t.Errorf("assistant block = %v", block)
	}
	result := msgs[2].(map[string]any)
	if result["role"] != "user" {
		t.Errorf("tool result role = %v, want user", result["role"])
	}
	rb := result["content"].([]any)[0].(map[string]any)
	if rb["type"] != "tool_result" || rb["tool_use_id"] != "toolu_9" {
		t.Errorf("tool_result block = %v", rb)
	}

	tl, _ := body["tools"].([]any)
	if len(tl) != 1 {
		t.Fatalf("tools = %v", body["tools"])
	}
	schema := tl[0].(map[string]any)["input_schema"].(map[string]any)
	if schema["type"] != "object" {
		t.Errorf("input_schema = %v", schema)
	}
}
