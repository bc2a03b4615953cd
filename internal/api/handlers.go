package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/aiusd/aiusd-agent/internal/chat"
	"github.com/aiusd/aiusd-agent/internal/config"
	"github.com/aiusd/aiusd-agent/internal/provider"
)

const errMessagesRequired = "messages is required and must be an array"

// Handler implements the HTTP endpoints.
type Handler struct {
	svc     ChatService
	cfg     *config.Config
	version string
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "aiusd-agent",
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Environment handles GET /api/environment.
func (h *Handler) Environment(c *gin.Context) {
	c.JSON(http.StatusOK, h.cfg.Environment())
}

// Chat handles POST /chat.
func (h *Handler) Chat(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	writeResponse(c, h.svc.Chat(c.Request.Context(), req.Conversation(), c.GetString(tokenKey)))
}

// Intent handles POST /intent/recognition.
func (h *Handler) Intent(c *gin.Context) {
	req, ok := bindRequest(c)
	if !ok {
		return
	}
	writeResponse(c, h.svc.Intent(c.Request.Context(), req.Conversation(), c.GetString(tokenKey)))
}

// ChatQuery handles GET /chat?message=...&auth=...
func (h *Handler) ChatQuery(c *gin.Context) {
	message := c.Query("message")
	if message == "" {
		badRequest(c, "message query parameter is required")
		return
	}
	auth := c.Query("auth")
	if auth == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "auth query parameter is required"})
		return
	}
	msgs := []provider.Message{{Role: provider.RoleUser, Content: message}}
	writeResponse(c, h.svc.Chat(c.Request.Context(), msgs, auth))
}

func bindRequest(c *gin.Context) (*chat.Request, bool) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return nil, false
	}
	return &req, true
}

// bindError turns a binding failure into a message naming the bad item.
func bindError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if i, ok := messageIndex(fe.Namespace()); ok {
			return fmt.Sprintf("message %d is malformed: role and content are required", i+1)
		}
		return errMessagesRequired
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "messages" {
			return errMessagesRequired
		}
		if strings.HasPrefix(typeErr.Field, "messages.") {
			return "every message must have string role and content fields"
		}
	}
	if errors.Is(err, io.EOF) {
		return errMessagesRequired
	}
	return "invalid request body: " + err.Error()
}

// messageIndex extracts i from a validator namespace like "Request.Messages[i].Role".
func messageIndex(ns string) (int, bool) {
	open := strings.Index(ns, "[")
	if open < 0 {
		return 0, false
	}
	end := strings.Index(ns[open:], "]")
	if end < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(ns[open+1 : open+end])
	return n, err == nil
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

func writeResponse(c *gin.Context, resp *chat.Response) {
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, resp)
}
