// Package chat runs agent sessions on behalf of the HTTP API, the Telegram
// bot and the CLI, and shapes their results into wire responses.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aiusd/aiusd-agent/internal/agent"
	"github.com/aiusd/aiusd-agent/internal/config"
	"github.com/aiusd/aiusd-agent/internal/mcpclient"
	"github.com/aiusd/aiusd-agent/internal/metrics"
	"github.com/aiusd/aiusd-agent/internal/provider"
	"github.com/aiusd/aiusd-agent/internal/recorder"
	"github.com/aiusd/aiusd-agent/internal/toolreg"
)

// WithdrawTool is the custody tool whose invocation Withdraw reports.
const WithdrawTool = "genalpha_withdraw_to_wallet"

// Transport is a tool transport owned by a single run.
type Transport interface {
	agent.Transport
	Close() error
}

// Response is the result of one chat operation.
type Response struct {
	Success          bool        `json:"success"`
	Instruction      string      `json:"instruction,omitempty"`
	RoundsUsed       int         `json:"roundsUsed"`
	MaxRoundsReached bool        `json:"maxRoundsReached"`
	ToolCallsCount   int         `json:"toolCallsCount"`
	Transcript       string      `json:"transcript"`
	Error            string      `json:"error,omitempty"`
	Withdrawal       *Withdrawal `json:"withdrawal,omitempty"`
}

// MarshalJSON drops the run fields from failed responses.
func (r Response) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success     bool   `json:"success"`
			Error       string `json:"error"`
			Instruction string `json:"instruction,omitempty"`
		}{r.Success, r.Error, r.Instruction})
	}
	type plain Response
	return json.Marshal(plain(r))
}

// Withdrawal reports the withdraw tool call found in a run, if any.
type Withdrawal struct {
	Found   bool   `json:"found"`
	Amount  any    `json:"amount,omitempty"`
	Asset   any    `json:"asset,omitempty"`
	Source  any    `json:"source,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Service builds a fresh provider, transport and recorder for every run.
type Service struct {
	newProvider  func() (provider.Provider, error)
	dial         func(token string) Transport
	defaultToken string
	maxRounds    int
}

// NewService wires the service from configuration.
func NewService(cfg *config.Config) *Service {
	return &Service{
		newProvider: func() (provider.Provider, error) {
			return provider.New(cfg.ProviderConfig())
		},
		dial: func(token string) Transport {
			return mcpclient.New(cfg.MCP.URL, token, mcpclient.WithTimeout(cfg.MCP.Timeout))
		},
		defaultToken: cfg.MCP.AuthToken,
		maxRounds:    cfg.Agent.MaxRounds,
	}
}

// Chat continues a conversation with the operational prompt.
func (s *Service) Chat(ctx context.Context, msgs []provider.Message, token string) *Response {
	res, transcript, err := s.execute(ctx, "chat", token, func(ctx context.Context, sess *agent.Session) (*agent.RunResult, error) {
		return sess.RunMessages(ctx, msgs)
	})
	if err != nil {
		return &Response{Error: err.Error()}
	}
	return success(res, transcript)
}

// Intent classifies the user's next intents. Tools are not offered.
func (s *Service) Intent(ctx context.Context, msgs []provider.Message, token string) *Response {
	res, transcript, err := s.execute(ctx, "intent", token, func(ctx context.Context, sess *agent.Session) (*agent.RunResult, error) {
		return sess.RecognizeIntent(ctx, msgs)
	})
	if err != nil {
		return &Response{Error: err.Error()}
	}
	return success(res, transcript)
}

// Instruct runs a single free-form instruction without a system prompt.
func (s *Service) Instruct(ctx context.Context, instruction, token string) *Response {
	res, transcript, err := s.execute(ctx, "instruct", token, func(ctx context.Context, sess *agent.Session) (*agent.RunResult, error) {
		return sess.Run(ctx, instruction)
	})
	if err != nil {
		return &Response{Error: err.Error(), Instruction: instruction}
	}
	resp := success(res, transcript)
	resp.Instruction = instruction
	return resp
}

// Withdraw asks the agent to move amount of asset from custody to the
// user's wallet and reports the withdraw tool call.
func (s *Service) Withdraw(ctx context.Context, amount, asset, token string) *Response {
	if asset == "" {
		asset = "USDC"
	}
	instruction := fmt.Sprintf("Withdraw %s %s from custody to my wallet", amount, asset)

	res, transcript, err := s.execute(ctx, "withdraw", token, func(ctx context.Context, sess *agent.Session) (*agent.RunResult, error) {
		return sess.Run(ctx, instruction)
	})
	if err != nil {
		return &Response{Error: err.Error(), Instruction: instruction}
	}
	resp := success(res, transcript)
	resp.Instruction = instruction
	resp.Withdrawal = findWithdrawal(res.ToolCalls)
	return resp
}

// Tools lists the tool server's tools in LLM function form.
func (s *Service) Tools(ctx context.Context, token string) ([]provider.ToolDefinition, error) {
	if token == "" {
		token = s.defaultToken
	}
	tr := s.dial(token)
	defer closeTransport(tr)

	descs, err := tr.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	return toolreg.ToLLMTools(descs), nil
}

type runFunc func(ctx context.Context, sess *agent.Session) (*agent.RunResult, error)

func (s *Service) execute(ctx context.Context, entry, token string, run runFunc) (*agent.RunResult, string, error) {
	start := time.Now()

	p, err := s.newProvider()
	if err != nil {
		metrics.ObserveRun(entry, metrics.OutcomeError, 0, time.Since(start))
		return nil, "", err
	}
	if token == "" {
		token = s.defaultToken
	}

	tr := s.dial(token)
	defer closeTransport(tr)

	rec := recorder.New()
	sess := agent.New(p, tr, agent.WithRecorder(rec), agent.WithMaxRounds(s.maxRounds))

	res, err := run(ctx, sess)
	if err != nil {
		metrics.ObserveRun(entry, metrics.OutcomeError, 0, time.Since(start))
		observeProviderError(err)
		slog.Error("agent run failed", slog.String("entry", entry), slog.Any("error", err))
		return nil, "", err
	}

	outcome := metrics.OutcomeOK
	if res.MaxRoundsReached {
		outcome = metrics.OutcomeMaxRounds
	}
	metrics.ObserveRun(entry, outcome, res.RoundsUsed, time.Since(start))
	slog.Info("agent run finished",
		slog.String("entry", entry),
		slog.Int("rounds", res.RoundsUsed),
		slog.Int("tool_calls", len(res.ToolCalls)),
		slog.Int("failed_tool_calls", countFailed(res.ToolCalls)),
		slog.Bool("max_rounds_reached", res.MaxRoundsReached),
		slog.Duration("elapsed", time.Since(start)))

	return res, rec.Transcript(), nil
}

func observeProviderError(err error) {
	var pe *provider.ProviderError
	if !errors.As(err, &pe) {
		return
	}
	metrics.ProviderErrors.WithLabelValues(pe.StatusClass(), strconv.FormatBool(pe.IsTransient())).Inc()
}

func countFailed(calls []agent.ToolCallRecord) int {
	n := 0
	for _, c := range calls {
		if c.Failed() {
			n++
		}
	}
	return n
}

func closeTransport(tr Transport) {
	if err := tr.Close(); err != nil {
		slog.Debug("close mcp transport", slog.Any("error", err))
	}
}

func success(res *agent.RunResult, transcript string) *Response {
	return &Response{
		Success:          true,
		RoundsUsed:       res.RoundsUsed,
		MaxRoundsReached: res.MaxRoundsReached,
		ToolCallsCount:   len(res.ToolCalls),
		Transcript:       transcript,
	}
}

func findWithdrawal(calls []agent.ToolCallRecord) *Withdrawal {
	for _, c := range calls {
		if c.Name != WithdrawTool {
			continue
		}
		return &Withdrawal{
			Found:  true,
			Amount: c.Params["amount"],
			Asset:  c.Params["asset"],
			Source: c.Params["source"],
			Result: c.Result,
			Error:  c.Error,
		}
	}
	return &Withdrawal{Message: "No withdrawal tool call found in the response"}
}
