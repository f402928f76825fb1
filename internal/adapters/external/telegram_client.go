package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"meteobot.app/internal/ports"
	"meteobot.app/pkg/errors"
)

// TelegramClientAdapter implements the ChatClient port over the Telegram Bot API
type TelegramClientAdapter struct {
	token       string
	baseURL     string
	pollTimeout int
	client      *http.Client
	logger      ports.Logger
}

// TelegramClientParams holds parameters for creating the Telegram client
type TelegramClientParams struct {
	Token   string
	BaseURL string
	// PollTimeout is the long-poll duration in seconds
	PollTimeout int
	Client      *http.Client
	Logger      ports.Logger
}

type telegramResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
	Result      json.RawMessage `json:"result"`
}

type telegramUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type telegramUpdate struct {
	UpdateID int64            `json:"update_id"`
	Message  *telegramMessage `json:"message"`
}

type telegramMessage struct {
	Text string        `json:"text"`
	Chat *telegramChat `json:"chat"`
}

type telegramChat struct {
	ID int64 `json:"id"`
}

type getUpdatesRequest struct {
	Offset  int64 `json:"offset,omitempty"`
	Timeout int   `json:"timeout"`
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// NewTelegramClientAdapter creates a new Telegram client adapter
func NewTelegramClientAdapter(params TelegramClientParams) *TelegramClientAdapter {
	baseURL := strings.TrimRight(params.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	client := params.Client
	if client == nil {
		// the request must outlive the server side long-poll
		client = &http.Client{Timeout: time.Duration(params.PollTimeout)*time.Second + 15*time.Second}
	}

	return &TelegramClientAdapter{
		token:       params.Token,
		baseURL:     baseURL,
		pollTimeout: params.PollTimeout,
		client:      client,
		logger:      params.Logger,
	}
}

// Connect verifies the token with getMe
func (c *TelegramClientAdapter) Connect(ctx context.Context) error {
	var me telegramUser
	if err := c.call(ctx, "getMe", nil, &me); err != nil {
		return err
	}
	c.logger.Info("Telegram bot authorized",
		ports.F("bot_id", me.ID),
		ports.F("bot_username", me.Username))
	return nil
}

// Disconnect drops pooled connections so the next Connect starts fresh
func (c *TelegramClientAdapter) Disconnect() {
	c.client.CloseIdleConnections()
}

// GetUpdates long-polls for new updates. Updates without a message are
// counted towards LastUpdateID but produce no ChatMessage.
func (c *TelegramClientAdapter) GetUpdates(ctx context.Context, offset int64) (*ports.UpdateBatch, error) {
	var updates []telegramUpdate
	req := getUpdatesRequest{Offset: offset, Timeout: c.pollTimeout}
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}

	batch := &ports.UpdateBatch{}
	for _, update := range updates {
		if update.UpdateID > batch.LastUpdateID {
			batch.LastUpdateID = update.UpdateID
		}
		if update.Message == nil {
			continue
		}
		msg := ports.ChatMessage{Text: update.Message.Text}
		if update.Message.Chat != nil {
			msg.ChatID = strconv.FormatInt(update.Message.Chat.ID, 10)
		}
		batch.Messages = append(batch.Messages, msg)
	}
	return batch, nil
}

// SendMessage posts a text reply to a chat
func (c *TelegramClientAdapter) SendMessage(ctx context.Context, chatID, text string) error {
	if chatID == "" {
		return errors.NewValidationError("chat id cannot be empty")
	}
	return c.call(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text}, nil)
}

func (c *TelegramClientAdapter) call(ctx context.Context, method string, payload interface{}, result interface{}) error {
	body := []byte("{}")
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", method, err)
		}
		body = encoded
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// the URL carries the token, keep it out of the error text
		return errors.NewExternalAPIError(fmt.Sprintf("telegram %s request failed", method), redactToken(err, c.token))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close Telegram response body", ports.F("error", closeErr))
		}
	}()

	var apiResp telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return errors.NewExternalAPIError(
			fmt.Sprintf("failed to decode telegram %s response (status %d)", method, resp.StatusCode), err)
	}
	if !apiResp.OK {
		return errors.NewExternalAPIError(
			fmt.Sprintf("telegram %s returned ok=false: %d %s", method, apiResp.ErrorCode, apiResp.Description), nil)
	}

	if result != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return errors.NewExternalAPIError(fmt.Sprintf("failed to decode telegram %s result", method), err)
		}
	}
	return nil
}

type redactedError struct {
	msg   string
	cause error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.cause }

func redactToken(err error, token string) error {
	if token == "" {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<token>"), cause: err}
}
