package main

import (
	"testing"
	"time"

	"github.com/aiusd/aiusd-agent/internal/config"
)

func TestWriteTimeout(t *testing.T) {
	cfg := config.Default()

	// 60s listing + 5 rounds of (120s LLM + 60s MCP) + slack.
	want := 60*time.Second + 5*180*time.Second + writeSlack
	if got := writeTimeout(cfg); got != want {
		t.Errorf("writeTimeout(defaults) = %v, want %v", got, want)
	}

	worst := cfg.MCP.Timeout + time.Duration(cfg.Agent.MaxRounds)*(cfg.LLM.Timeout+cfg.MCP.Timeout)
	if writeTimeout(cfg) <= worst {
		t.Errorf("writeTimeout %v does not outlast a full run of %v", writeTimeout(cfg), worst)
	}

	cfg.Agent.MaxRounds = 0
	if got := writeTimeout(cfg); got != 0 {
		t.Errorf("writeTimeout(unlimited) = %v, want 0", got)
	}
}
