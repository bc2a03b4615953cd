package chat

import "github.com/aiusd/aiusd-agent/internal/provider"

// Request is the body of POST /chat and POST /intent/recognition.
type Request struct {
	Messages []Message `json:"messages" binding:"required,dive"`
}

// Message is one caller-supplied conversation entry.
type Message struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Conversation converts the request into provider messages.
func (r Request) Conversation() []provider.Message {
	msgs := make([]provider.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, provider.Message{Role: m.Role, Content: m.Content})
	}
	return msgs
}

// FromConversation is the inverse of Conversation. Tool traffic is dropped.
func FromConversation(msgs []provider.Message) Request {
	req := Request{Messages: make([]Message, 0, len(msgs))}
	for _, m := range msgs {
		if m.Call != nil || m.Role == provider.RoleTool {
			continue
		}
		req.Messages = append(req.Messages, Message{Role: m.Role, Content: m.Content})
	}
	return req
}
