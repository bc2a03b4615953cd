package provider

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{"default is anthropic", Config{APIKey: "k"}, "*provider.Anthropic", false},
		{"claude alias", Config{Name: "claude", APIKey: "k"}, "*provider.Anthropic", false},
		{"openai", Config{Name: "OpenAI", APIKey: "k"}, "*provider.OpenAI", false},
		{"anthropic without key", Config{Name: "claude"}, "", true},
		{"openai without key", Config{Name: "openai"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			switch p.(type) {
			case *Anthropic:
				if tt.want != "*provider.Anthropic" {
					t.Errorf("got *Anthropic, want %s", tt.want)
				}
			case *OpenAI:
				if tt.want != "*provider.OpenAI" {
					t.Errorf("got *OpenAI, want %s", tt.want)
				}
			}
		})
	}
}

func TestParseProviderError(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  string
		class string
		code  int
	}{
		{"openai format", `{"error":{"message":"bad key"}}`, "bad key", "auth", 401},
		{"anthropic format", `{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`, "overloaded_error: busy", "server", 529},
		{"plain text", "gateway timeout\nhtml", "gateway timeout", "server", 504},
		{"empty body", "", "empty response body", "client", 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := parseProviderError("openai", tt.code, []byte(tt.body))
			if pe.Message != tt.want {
				t.Errorf("Message = %q, want %q", pe.Message, tt.want)
			}
			if pe.StatusClass() != tt.class {
				t.Errorf("StatusClass = %q, want %q", pe.StatusClass(), tt.class)
			}
			if pe.Raw != tt.body {
				t.Errorf("Raw = %q", pe.Raw)
			}
		})
	}
}
