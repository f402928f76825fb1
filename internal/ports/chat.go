package ports

import "context"

// ChatMessage is a single incoming message addressed to the bot
type ChatMessage struct {
	ChatID string
	Text   string
}

// UpdateBatch is the parsed result of one long-poll request.
// LastUpdateID is the highest update id seen in the batch, zero when empty.
type UpdateBatch struct {
	Messages     []ChatMessage
	LastUpdateID int64
}

// ChatClient is the transport to the messaging platform
type ChatClient interface {
	Connect(ctx context.Context) error
	Disconnect()
	// GetUpdates long-polls for updates with id >= offset; offset 0 means "no cursor yet"
	GetUpdates(ctx context.Context, offset int64) (*UpdateBatch, error)
	SendMessage(ctx context.Context, chatID, text string) error
}
