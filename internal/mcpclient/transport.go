// Package mcpclient talks to the remote MCP tool server over Streamable HTTP.
package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/singleflight"

	"github.com/aiusd/aiusd-agent/internal/metrics"
	"github.com/aiusd/aiusd-agent/internal/toolreg"
)

const defaultTimeout = 60 * time.Second

// TransportError is a failure talking to the tool server.
type TransportError struct {
	Op   string // "connect", "list" or "call"
	Tool string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("mcp %s %s: %v", e.Op, e.Tool, e.Err)
	}
	return fmt.Sprintf("mcp %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transport is a lazily connected MCP client session.
type Transport struct {
	endpoint   string
	token      string
	timeout    time.Duration
	base       http.RoundTripper
	httpClient *http.Client
	client     *mcp.Client

	group   singleflight.Group
	mu      sync.Mutex
	session *mcp.ClientSession
}

// Option configures a Transport.
type Option func(*Transport)

// WithTimeout sets the HTTP timeout for tool server requests.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithRoundTripper replaces the underlying HTTP transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(t *Transport) { t.base = rt }
}

// New creates a Transport for endpoint. An empty token sends no Authorization header.
func New(endpoint, token string, opts ...Option) *Transport {
	t := &Transport{
		endpoint: endpoint,
		token:    token,
		timeout:  defaultTimeout,
		base:     http.DefaultTransport,
		client: mcp.NewClient(&mcp.Implementation{
			Name:    "aiusd-agent",
			Version: "1.0.0",
		}, nil),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.httpClient = &http.Client{
		Timeout:   t.timeout,
		Transport: &bearerTransport{token: t.token, base: t.base},
	}
	return t
}

// getSession returns the cached session or connects. Concurrent callers share
// one handshake; a failed handshake is not cached.
func (t *Transport) getSession(ctx context.Context) (*mcp.ClientSession, error) {
	t.mu.Lock()
	if s := t.session; s != nil {
		t.mu.Unlock()
		return s, nil
	}
	t.mu.Unlock()

	v, err, _ := t.group.Do("connect", func() (any, error) {
		t.mu.Lock()
		if s := t.session; s != nil {
			t.mu.Unlock()
			return s, nil
		}
		t.mu.Unlock()

		transport := &mcp.StreamableClientTransport{
			Endpoint:   t.endpoint,
			HTTPClient: t.httpClient,
		}
		// The session outlives the first caller's context.
		session, err := t.client.Connect(context.WithoutCancel(ctx), transport, nil)
		if err != nil {
			return nil, err
		}

		t.mu.Lock()
		t.session = session
		t.mu.Unlock()

		slog.Debug("mcp session connected", slog.String("url", t.endpoint))
		return session, nil
	})
	if err != nil {
		return nil, &TransportError{Op: "connect", Err: err}
	}
	return v.(*mcp.ClientSession), nil
}

// ListTools returns every tool the server advertises, in server order.
func (t *Transport) ListTools(ctx context.Context) ([]toolreg.Descriptor, error) {
	session, err := t.getSession(ctx)
	if err != nil {
		return nil, err
	}

	descs := []toolreg.Descriptor{}
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return nil, &TransportError{Op: "list", Err: err}
		}
		descs = append(descs, toDescriptor(tool))
	}
	return descs, nil
}

// CallTool invokes a tool and returns its normalized result.
func (t *Transport) CallTool(ctx context.Context, name string, params map[string]any) (any, error) {
	session, err := t.getSession(ctx)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = map[string]any{}
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: params,
	})
	if err != nil {
		metrics.ToolCalls.WithLabelValues(name, "error").Inc()
		return nil, &TransportError{Op: "call", Tool: name, Err: err}
	}
	if result.IsError {
		metrics.ToolCalls.WithLabelValues(name, "tool_error").Inc()
		return nil, &TransportError{Op: "call", Tool: name, Err: errors.New(errorText(result))}
	}

	metrics.ToolCalls.WithLabelValues(name, "ok").Inc()
	return normalize(result), nil
}

// Close closes the cached session. A later call reconnects.
func (t *Transport) Close() error {
	t.mu.Lock()
	session := t.session
	t.session = nil
	t.mu.Unlock()

	if session == nil {
		return nil
	}
	return session.Close()
}

// normalize picks structured content, then the first text block (decoded as
// JSON when possible), then the whole result.
func normalize(res *mcp.CallToolResult) any {
	if res.StructuredContent != nil {
		return res.StructuredContent
	}
	for _, c := range res.Content {
		text, ok := c.(*mcp.TextContent)
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(text.Text), &v); err == nil {
			return v
		}
		return text.Text
	}
	return rawResult(res)
}

// rawResult renders the result as plain JSON data.
func rawResult(res *mcp.CallToolResult) any {
	data, err := json.Marshal(res)
	if err != nil {
		return res
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return res
	}
	return v
}

func errorText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if text, ok := c.(*mcp.TextContent); ok && text.Text != "" {
			parts = append(parts, text.Text)
		}
	}
	if len(parts) == 0 {
		return "tool reported an error"
	}
	return strings.Join(parts, "\n")
}

func toDescriptor(tool *mcp.Tool) toolreg.Descriptor {
	return toolreg.Descriptor{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: schemaMap(tool.InputSchema),
	}
}

// schemaMap coerces the decoded input schema into a plain map.
func schemaMap(schema any) map[string]any {
	switch s := schema.(type) {
	case nil:
		return nil
	case map[string]any:
		return s
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// bearerTransport adds the Authorization header to every request.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if b.token == "" {
		return b.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(r)
}
