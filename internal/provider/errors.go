package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProviderError is a failed LLM call: a non-2xx status, a response without
// usable content, unparseable tool arguments, or a network fault (Err).
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Raw        string
	Err        error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	if e.Provider == "" {
		b.WriteString("llm")
	}
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " API error %d: %s", e.StatusCode, e.Message)
	} else {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsAuth returns true for 401/403 authentication errors.
func (e *ProviderError) IsAuth() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsRateLimit returns true for 429 quota/rate-limit errors.
func (e *ProviderError) IsRateLimit() bool {
	return e.StatusCode == 429
}

// IsServerError returns true for 5xx server errors.
func (e *ProviderError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsTransient returns true if the error would be worth retrying by a caller.
// Providers never retry on their own.
func (e *ProviderError) IsTransient() bool {
	return e.IsRateLimit() || e.IsServerError() || (e.StatusCode == 0 && e.Err != nil)
}

// StatusClass buckets the error for metrics labels.
func (e *ProviderError) StatusClass() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return "network"
	case e.StatusCode == 0:
		return "invalid_response"
	case e.IsAuth():
		return "auth"
	case e.IsRateLimit():
		return "rate_limit"
	case e.IsServerError():
		return "server"
	default:
		return "client"
	}
}

// parseProviderError parses a non-2xx HTTP response body into a ProviderError.
func parseProviderError(provider string, statusCode int, body []byte) *ProviderError {
	pe := &ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Raw:        string(body),
	}

	// OpenAI {"error":{"message":...}} and Anthropic
	// {"type":"error","error":{"type":...,"message":...}} share this shape.
	var apiErr struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		pe.Message = apiErr.Error.Message
		if apiErr.Error.Type != "" {
			pe.Message = apiErr.Error.Type + ": " + pe.Message
		}
		return pe
	}

	// Fallback: first line of body
	s := strings.TrimSpace(string(body))
	if idx := strings.IndexByte(s, '\n'); idx > 0 {
		s = s[:idx]
	}
	pe.Message = truncate(s, 300)
	if pe.Message == "" {
		pe.Message = "empty response body"
	}
	return pe
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
