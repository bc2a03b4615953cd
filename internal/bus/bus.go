// Package bus carries chat requests from the Telegram front end to the
// message loop and replies back.
package bus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Inbound is a user message waiting for an agent run.
type Inbound struct {
	ID         string
	Channel    string // "telegram"
	UserID     int64
	ChatID     int64
	Text       string
	Token      string // custody credential for the run
	ProgressID int    // "processing" notice to remove once answered; 0 if none
	Timestamp  time.Time
}

// Outbound is the answer to an Inbound.
type Outbound struct {
	ID         string // ID of the Inbound being answered
	Channel    string
	ChatID     int64
	ProgressID int
	Text       string // transcript on success
	Error      string // set when the run failed
	Timestamp  time.Time
}

// Failed reports whether the run behind this reply failed.
func (o Outbound) Failed() bool { return o.Error != "" }

// NewInbound stamps a message with a fresh ID and the current time.
func NewInbound(channel string, userID, chatID int64, text, token string) Inbound {
	return Inbound{
		ID:        uuid.NewString(),
		Channel:   channel,
		UserID:    userID,
		ChatID:    chatID,
		Text:      text,
		Token:     token,
		Timestamp: time.Now(),
	}
}

// Reply builds the Outbound answering in.
func (in Inbound) Reply(text, errMsg string) Outbound {
	return Outbound{
		ID:         in.ID,
		Channel:    in.Channel,
		ChatID:     in.ChatID,
		ProgressID: in.ProgressID,
		Text:       text,
		Error:      errMsg,
		Timestamp:  time.Now(),
	}
}

// Bus is a buffered pair of inbound and outbound queues.
type Bus struct {
	inbound  chan Inbound
	outbound chan Outbound
	closed   chan struct{}
	once     sync.Once
}

// New creates a new message bus.
func New() *Bus {
	return &Bus{
		inbound:  make(chan Inbound, 100),
		outbound: make(chan Outbound, 100),
		closed:   make(chan struct{}),
	}
}

// PublishInbound queues a message for the agent. Dropped after Close.
func (b *Bus) PublishInbound(msg Inbound) {
	select {
	case <-b.closed:
		return
	default:
		select {
		case b.inbound <- msg:
		case <-b.closed:
		}
	}
}

// ConsumeInbound blocks until a message is available or context is canceled.
func (b *Bus) ConsumeInbound(ctx context.Context) (Inbound, bool) {
	select {
	case msg, ok := <-b.inbound:
		return msg, ok
	case <-ctx.Done():
		return Inbound{}, false
	case <-b.closed:
		return Inbound{}, false
	}
}

// PublishOutbound queues a reply for the channels.
func (b *Bus) PublishOutbound(msg Outbound) {
	select {
	case <-b.closed:
		return
	default:
		select {
		case b.outbound <- msg:
		case <-b.closed:
		}
	}
}

// SubscribeOutbound blocks until a reply is available.
func (b *Bus) SubscribeOutbound(ctx context.Context) (Outbound, bool) {
	select {
	case msg, ok := <-b.outbound:
		return msg, ok
	case <-ctx.Done():
		return Outbound{}, false
	case <-b.closed:
		return Outbound{}, false
	}
}

// Close shuts down the bus.
func (b *Bus) Close() {
	b.once.Do(func() {
		close(b.closed)
	})
}
