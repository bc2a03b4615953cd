// Package api serves the agent's HTTP surface.
package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/aiusd/aiusd-agent/internal/a2a"
	"github.com/aiusd/aiusd-agent/internal/chat"
	"github.com/aiusd/aiusd-agent/internal/config"
	"github.com/aiusd/aiusd-agent/internal/metrics"
	"github.com/aiusd/aiusd-agent/internal/provider"
)

// ChatService runs agent sessions for the handlers.
type ChatService interface {
	Chat(ctx context.Context, msgs []provider.Message, token string) *chat.Response
	Intent(ctx context.Context, msgs []provider.Message, token string) *chat.Response
}

// NewRouter builds the gin engine with every route installed.
func NewRouter(svc ChatService, cfg *config.Config, version string) *gin.Engine {
	g := gin.New()
	installMiddleware(g)
	installController(g, svc, cfg, version)
	return g
}

func installMiddleware(g *gin.Engine) {
	g.Use(gin.Recovery())
	g.Use(RequestLogger())
}

func installController(g *gin.Engine, svc ChatService, cfg *config.Config, version string) {
	h := &Handler{svc: svc, cfg: cfg, version: version}

	g.GET("/health", h.Health)
	g.GET("/api/environment", h.Environment)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Query-string credential, kept for simple clients.
	g.GET("/chat", h.ChatQuery)

	authed := g.Group("/", BearerToken())
	{
		authed.POST("/chat", h.Chat)
		authed.POST("/intent/recognition", h.Intent)
	}

	baseURL := cfg.PublicURL
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port
	}
	a2a.Register(g, svc, baseURL, version, cfg.A2A.Secret)
}
