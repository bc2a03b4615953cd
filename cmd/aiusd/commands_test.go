package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aiusd/aiusd-agent/internal/chat"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	want := map[string]bool{"gateway": false, "bot": false, "run": false, "withdraw": false, "tools": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing command %q", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

func TestWithdraw_InvalidAmount(t *testing.T) {
	for _, args := range [][]string{
		{"withdraw"},
		{"withdraw", "abc"},
		{"withdraw", "-5", "USDC"},
		{"withdraw", "0"},
		{"withdraw", "10", "USDC", "extra"},
	} {
		root := newRootCmd()
		root.SetArgs(args)
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		if err := root.Execute(); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	for _, s := range []string{"1", "0.5", "100.25"} {
		if err := validateAmount(s); err != nil {
			t.Errorf("validateAmount(%q) = %v", s, err)
		}
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	if err := report(&buf, &chat.Response{Success: true, Transcript: "done", ToolCallsCount: 1}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(buf.String(), `"transcript": "done"`) {
		t.Errorf("output = %s", buf.String())
	}

	buf.Reset()
	err := report(&buf, &chat.Response{Success: false, Error: "list tools: mcp connect: refused"})
	if err == nil || err.Error() != "list tools: mcp connect: refused" {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(buf.String(), `"success": false`) {
		t.Errorf("output = %s", buf.String())
	}
}
