package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aiusd/aiusd-agent/internal/provider"
)

const clientTimeout = 30 * time.Second

// Client calls a remote agent's POST /chat endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a Client for the chat endpoint at url.
func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// Chat posts the conversation with token as bearer credential.
// Failures are reported in the Response, never as a Go error.
func (c *Client) Chat(ctx context.Context, msgs []provider.Message, token string) *Response {
	body, err := json.Marshal(FromConversation(msgs))
	if err != nil {
		return &Response{Error: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return &Response{Error: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if !strings.HasPrefix(token, "Bearer ") {
		token = "Bearer " + token
	}
	req.Header.Set("Authorization", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("chat API request failed", slog.String("url", c.url), slog.Any("error", err))
		return &Response{Error: "Unable to connect to chat server, please check your network connection"}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Response{Error: fmt.Sprintf("read chat API response: %v", err)}
	}

	var out Response
	decodeErr := json.Unmarshal(data, &out)
	if resp.StatusCode >= http.StatusBadRequest {
		detail := out.Error
		if decodeErr != nil || detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return &Response{Error: fmt.Sprintf("API error (%d): %s", resp.StatusCode, detail)}
	}
	if decodeErr != nil {
		return &Response{Error: fmt.Sprintf("decode chat API response: %v", decodeErr)}
	}
	return &out
}
