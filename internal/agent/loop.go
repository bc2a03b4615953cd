package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aiusd/aiusd-agent/internal/provider"
	"github.com/aiusd/aiusd-agent/internal/toolreg"
)

// Transport lists and invokes remote tools.
type Transport interface {
	ListTools(ctx context.Context) ([]toolreg.Descriptor, error)
	CallTool(ctx context.Context, name string, params map[string]any) (any, error)
}

// Sink receives transcript lines.
type Sink interface {
	Log(line string)
}

// ToolCallRecord is one attempted tool invocation.
// Once appended to a RunResult exactly one of Result and Error is meaningful.
type ToolCallRecord struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
	Result any            `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Failed reports whether the invocation returned an error.
func (r ToolCallRecord) Failed() bool { return r.Error != "" }

// RunResult is the outcome of one entry-operation call.
type RunResult struct {
	Final            string
	ToolCalls        []ToolCallRecord
	RoundsUsed       int
	MaxRoundsReached bool
}

// Session drives the provider/transport loop. It holds configuration only,
// so one Session may serve concurrent runs.
type Session struct {
	provider  provider.Provider
	transport Transport
	sink      Sink
	maxRounds int
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder logs final texts to r.
func WithRecorder(r Sink) Option {
	return func(s *Session) { s.sink = r }
}

// WithMaxRounds limits provider calls per run. n <= 0 means unlimited.
func WithMaxRounds(n int) Option {
	return func(s *Session) { s.maxRounds = n }
}

// New creates a Session.
func New(p provider.Provider, t Transport, opts ...Option) *Session {
	s := &Session{provider: p, transport: t}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes a free-form instruction as a single user message.
// No system prompt is added.
func (s *Session) Run(ctx context.Context, prompt string) (*RunResult, error) {
	tools, err := s.listTools(ctx)
	if err != nil {
		return nil, err
	}
	conv := []provider.Message{{Role: provider.RoleUser, Content: prompt}}
	return s.loop(ctx, conv, tools, s.log)
}

// RunMessages continues a caller-built conversation, adding the operational
// system prompt when the conversation has none.
func (s *Session) RunMessages(ctx context.Context, msgs []provider.Message) (*RunResult, error) {
	tools, err := s.listTools(ctx)
	if err != nil {
		return nil, err
	}
	return s.loop(ctx, withSystemPrompt(msgs, operationalPrompt), tools, s.log)
}

// RecognizeIntent asks the model to classify the user's next intents.
// Tools are disabled. The final text is logged as a JSON array.
func (s *Session) RecognizeIntent(ctx context.Context, msgs []provider.Message) (*RunResult, error) {
	return s.loop(ctx, withSystemPrompt(msgs, intentPrompt), []provider.ToolDefinition{}, func(text string) {
		s.log(intentLine(text))
	})
}

func (s *Session) listTools(ctx context.Context) ([]provider.ToolDefinition, error) {
	descs, err := s.transport.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return toolreg.ToLLMTools(descs), nil
}

func (s *Session) loop(ctx context.Context, conv []provider.Message, tools []provider.ToolDefinition, onFinal func(string)) (*RunResult, error) {
	res := &RunResult{ToolCalls: []ToolCallRecord{}}

	for {
		if s.maxRounds > 0 && res.RoundsUsed >= s.maxRounds {
			res.Final = fmt.Sprintf(maxRoundsFormat, s.maxRounds, len(res.ToolCalls))
			res.MaxRoundsReached = true
			slog.Warn("round limit reached",
				slog.Int("max_rounds", s.maxRounds),
				slog.Int("tool_calls", len(res.ToolCalls)))
			s.log(res.Final)
			return res, nil
		}

		step, err := s.provider.Generate(ctx, conv, tools)
		res.RoundsUsed++
		if err != nil {
			return nil, fmt.Errorf("LLM call failed (round %d): %w", res.RoundsUsed, err)
		}

		if !step.IsToolCall() {
			res.Final = step.Text
			onFinal(step.Text)
			return res, nil
		}

		// Only one tool per round; providers already drop extra calls.
		conv = s.invoke(ctx, conv, *step.Call, res)
	}
}

// invoke records the assistant request before calling the tool, so the
// conversation stays well-formed when the call fails.
func (s *Session) invoke(ctx context.Context, conv []provider.Message, call provider.ToolCall, res *RunResult) []provider.Message {
	if call.Params == nil {
		call.Params = map[string]any{}
	}
	callID := call.ID
	if callID == "" {
		callID = fmt.Sprintf("call_%d_%s", res.RoundsUsed, call.Name)
	}

	conv = append(conv, provider.Message{
		Role: provider.RoleAssistant,
		Call: &provider.FunctionCall{
			ID:        callID,
			Name:      call.Name,
			Arguments: encodeJSON(call.Params),
		},
	})

	slog.Info("executing tool", slog.String("tool", call.Name), slog.Int("round", res.RoundsUsed))

	rec := ToolCallRecord{Name: call.Name, Params: call.Params}
	var content string

	result, err := s.transport.CallTool(ctx, call.Name, call.Params)
	if err != nil {
		rec.Error = err.Error()
		if rec.Error == "" {
			rec.Error = "tool call failed"
		}
		content = encodeJSON(map[string]string{"error": rec.Error})
		slog.Warn("tool execution failed", slog.String("tool", call.Name), slog.Any("error", err))
	} else {
		rec.Result = result
		content = encodeJSON(result)
	}

	res.ToolCalls = append(res.ToolCalls, rec)
	return append(conv, provider.Message{
		Role:       provider.RoleTool,
		Content:    content,
		ToolCallID: callID,
	})
}

func (s *Session) log(line string) {
	if s.sink != nil {
		s.sink.Log(line)
	}
}

// withSystemPrompt returns a copy of msgs with prompt prepended unless a
// system message is already present.
func withSystemPrompt(msgs []provider.Message, prompt string) []provider.Message {
	for _, m := range msgs {
		if m.Role == provider.RoleSystem {
			return append([]provider.Message(nil), msgs...)
		}
	}
	conv := make([]provider.Message, 0, len(msgs)+1)
	conv = append(conv, provider.Message{Role: provider.RoleSystem, Content: prompt})
	return append(conv, msgs...)
}

// intentLine renders the model's intent answer as a JSON array: a parsed
// array as-is, any other JSON value wrapped, unparseable text wrapped raw.
func intentLine(text string) string {
	var (
		parsed  any
		intents []any
	)
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		intents = []any{text}
	} else if arr, ok := parsed.([]any); ok {
		intents = arr
	} else {
		intents = []any{parsed}
	}
	return encodeJSON(intents)
}

// encodeJSON marshals v without HTML escaping. Values that cannot be
// encoded are sent as their string form.
func encodeJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Warn("encode tool payload", slog.Any("error", err))
		buf.Reset()
		_ = enc.Encode(fmt.Sprint(v))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
