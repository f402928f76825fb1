package chat

import (
	"context"
	"time"
)

// State is the connection state of the poller
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StatePolling
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StatePolling:
		return "polling"
	default:
		return "disconnected"
	}
}

// AnswerFunc produces the reply for one incoming message text
type AnswerFunc func(ctx context.Context, text string) string

// Stats is a snapshot of the poller bookkeeping
type Stats struct {
	State      string `json:"state"`
	Cursor     int64  `json:"cursor"`
	KnownChats int    `json:"known_chats"`
}

// Backoff doubles the retry delay after each failure up to a ceiling
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	current time.Duration
}

// Next returns the delay to wait before the next attempt
func (b *Backoff) Next() time.Duration {
	if b.current <= 0 {
		b.current = b.Initial
	} else {
		b.current *= 2
	}
	if b.Max > 0 && b.current > b.Max {
		b.current = b.Max
	}
	return b.current
}

// Reset restores the initial delay after a successful attempt
func (b *Backoff) Reset() {
	b.current = 0
}
