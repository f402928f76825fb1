package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"meteobot.app/internal/ports"
	"meteobot.app/pkg/errors"
	"meteobot.app/pkg/validation"
)

// Poller long-polls the chat platform and answers every incoming message.
// Iterations run sequentially; the cursor only moves forward.
type Poller struct {
	client  ports.ChatClient
	answer  AnswerFunc
	config  ports.ConfigProvider
	logger  ports.Logger
	metrics ports.MetricsCollector

	mu         sync.RWMutex
	state      State
	cursor     int64
	knownChats map[string]struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

type PollerDependencies struct {
	Client  ports.ChatClient
	Answer  AnswerFunc
	Config  ports.ConfigProvider
	Logger  ports.Logger
	Metrics ports.MetricsCollector
}

func NewPoller(deps PollerDependencies) (*Poller, error) {
	if deps.Client == nil {
		return nil, errors.NewValidationError("chat client is required")
	}
	if deps.Answer == nil {
		return nil, errors.NewValidationError("answer function is required")
	}
	if deps.Config == nil {
		return nil, errors.NewValidationError("config is required")
	}
	if deps.Logger == nil {
		return nil, errors.NewValidationError("logger is required")
	}
	if deps.Metrics == nil {
		return nil, errors.NewValidationError("metrics is required")
	}

	return &Poller{
		client:     deps.Client,
		answer:     deps.Answer,
		config:     deps.Config,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		state:      StateDisconnected,
		knownChats: make(map[string]struct{}),
		stop:       make(chan struct{}),
	}, nil
}

// Run polls until the context is cancelled or Stop is called. Transport
// failures trigger a reconnect after an exponentially growing delay.
func (p *Poller) Run(ctx context.Context) error {
	cfg := p.config.GetPollerConfig()
	backoff := &Backoff{Initial: cfg.RetryInitial, Max: cfg.RetryMax}

	p.logger.Info("Chat poller started")
	defer func() {
		p.disconnect()
		p.logger.Info("Chat poller stopped", ports.F("cursor", p.Cursor()))
	}()

	for !p.stopped(ctx) {
		if p.State() == StateDisconnected {
			if err := p.connect(ctx); err != nil {
				if p.stopped(ctx) {
					return nil
				}
				delay := backoff.Next()
				p.metrics.RecordPollFailure()
				p.logger.Error("Failed to connect to chat platform",
					ports.F("error", err),
					ports.F("retry_in_ms", delay.Milliseconds()))
				p.wait(ctx, delay)
				continue
			}
		}

		if err := p.PollOnce(ctx); err != nil {
			if p.stopped(ctx) {
				return nil
			}
			delay := backoff.Next()
			p.metrics.RecordPollFailure()
			p.logger.Warn("Poll failed, reconnecting",
				ports.F("error", err),
				ports.F("retry_in_ms", delay.Milliseconds()))
			p.disconnect()
			p.wait(ctx, delay)
			continue
		}
		backoff.Reset()
	}
	return nil
}

// PollOnce performs a single long-poll request and answers every message
// it returns. The cursor is advanced before any reply is sent.
func (p *Poller) PollOnce(ctx context.Context) error {
	iterationID := uuid.NewString()
	p.setState(StatePolling)

	var offset int64
	if cursor := p.Cursor(); cursor > 0 {
		offset = cursor + 1
	}

	batch, err := p.client.GetUpdates(ctx, offset)
	if err != nil {
		return fmt.Errorf("get updates: %w", err)
	}

	p.advance(batch.LastUpdateID)
	p.metrics.RecordUpdates(len(batch.Messages))
	if len(batch.Messages) > 0 {
		p.logger.Debug("Updates received",
			ports.F("iteration_id", iterationID),
			ports.F("count", len(batch.Messages)),
			ports.F("cursor", p.Cursor()))
	}

	// replies for an accepted batch are delivered even if shutdown starts meanwhile
	deliverCtx := context.WithoutCancel(ctx)
	for _, msg := range batch.Messages {
		p.deliver(deliverCtx, iterationID, msg)
	}
	return nil
}

func (p *Poller) deliver(ctx context.Context, iterationID string, msg ports.ChatMessage) {
	if msg.ChatID == "" {
		p.logger.Warn("Skipping update without chat id", ports.F("iteration_id", iterationID))
		return
	}
	p.rememberChat(msg.ChatID)

	text := msg.Text
	switch {
	case !validation.IsNotEmpty(text):
		text = p.config.GetPollerConfig().DefaultText
	case !validation.IsValidTown(text):
		p.logger.Warn("Message is not a usable town name, answering for the default town",
			ports.F("iteration_id", iterationID),
			ports.F("chat_id", msg.ChatID))
		text = p.config.GetPollerConfig().DefaultText
	}

	started := time.Now()
	reply := p.answer(ctx, text)

	if err := p.client.SendMessage(ctx, msg.ChatID, reply); err != nil {
		p.metrics.RecordReplyFailure()
		p.logger.Error("Failed to send reply",
			ports.F("iteration_id", iterationID),
			ports.F("chat_id", msg.ChatID),
			ports.F("error", err))
		return
	}

	p.logger.Info("Reply sent",
		ports.F("iteration_id", iterationID),
		ports.F("chat_id", msg.ChatID),
		ports.F("text", text),
		ports.F("duration_ms", time.Since(started).Milliseconds()))
}

// Stop makes Run return after the current iteration
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// Cursor returns the highest update id consumed so far
func (p *Poller) Cursor() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cursor
}

// State returns the current connection state
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// KnownChats returns the number of distinct chats seen so far
func (p *Poller) KnownChats() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.knownChats)
}

// Stats returns a snapshot of the poller bookkeeping
func (p *Poller) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{
		State:      p.state.String(),
		Cursor:     p.cursor,
		KnownChats: len(p.knownChats),
	}
}

func (p *Poller) connect(ctx context.Context) error {
	if err := p.client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	p.setState(StateConnected)
	p.logger.Info("Connected to chat platform")
	return nil
}

func (p *Poller) disconnect() {
	if p.State() == StateDisconnected {
		return
	}
	p.client.Disconnect()
	p.setState(StateDisconnected)
}

func (p *Poller) advance(lastUpdateID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if lastUpdateID > p.cursor {
		p.cursor = lastUpdateID
	}
}

func (p *Poller) rememberChat(chatID string) {
	p.mu.Lock()
	_, known := p.knownChats[chatID]
	if !known {
		p.knownChats[chatID] = struct{}{}
	}
	count := len(p.knownChats)
	p.mu.Unlock()

	if !known {
		p.metrics.SetKnownChats(count)
		p.logger.Info("New chat", ports.F("chat_id", chatID), ports.F("known_chats", count))
	}
}

func (p *Poller) setState(state State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
}

func (p *Poller) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-p.stop:
		return true
	default:
		return false
	}
}

func (p *Poller) wait(ctx context.Context, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-p.stop:
	case <-timer.C:
	}
}
