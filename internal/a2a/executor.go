package a2a

import (
	"context"
	"fmt"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/a2aproject/a2a-go/a2asrv/eventqueue"

	"github.com/aiusd/aiusd-agent/internal/chat"
	"github.com/aiusd/aiusd-agent/internal/provider"
)

const emptyReply = "Processing completed, but no specific content was returned."

// Chatter runs one chat turn. An empty token selects the configured credential.
type Chatter interface {
	Chat(ctx context.Context, msgs []provider.Message, token string) *chat.Response
}

// Executor implements a2asrv.AgentExecutor on top of the chat service.
type Executor struct {
	chat Chatter
}

var _ a2asrv.AgentExecutor = (*Executor)(nil)

// NewExecutor creates a new A2A executor.
func NewExecutor(c Chatter) *Executor {
	return &Executor{chat: c}
}

// Execute answers an incoming A2A message with the run transcript.
func (e *Executor) Execute(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	content := extractText(reqCtx.Message)
	if content == "" {
		return finish(ctx, reqCtx, queue, a2a.TaskStateFailed, "empty message")
	}

	if err := queue.Write(ctx, a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateWorking, nil)); err != nil {
		return fmt.Errorf("write working status: %w", err)
	}

	resp := e.chat.Chat(ctx, []provider.Message{{Role: provider.RoleUser, Content: content}}, "")
	if !resp.Success {
		return finish(ctx, reqCtx, queue, a2a.TaskStateFailed, resp.Error)
	}

	reply := resp.Transcript
	if strings.TrimSpace(reply) == "" {
		reply = emptyReply
	}
	return finish(ctx, reqCtx, queue, a2a.TaskStateCompleted, reply)
}

// Cancel writes a canceled status event.
func (e *Executor) Cancel(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	event := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateCanceled, nil)
	event.Final = true
	return queue.Write(ctx, event)
}

// finish writes the terminal status event carrying text.
func finish(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue, state a2a.TaskState, text string) error {
	event := a2a.NewStatusUpdateEvent(reqCtx, state,
		a2a.NewMessageForTask(a2a.MessageRoleAgent, reqCtx, a2a.TextPart{Text: text}))
	event.Final = true
	return queue.Write(ctx, event)
}

func extractText(msg *a2a.Message) string {
	if msg == nil {
		return ""
	}
	var parts []string
	for _, p := range msg.Parts {
		if tp, ok := p.(a2a.TextPart); ok {
			parts = append(parts, tp.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
