package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oomavera/agency/pkg/logging"
)

const defaultBaseURL = "https://api.telegram.org"

// Config controls how the Telegram bot client behaves.
type Config struct {
	BaseURL    string
	BotToken   string
	ChatID     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client posts messages to one chat via the bot API.
type Client struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BotToken) == "" || strings.TrimSpace(cfg.ChatID) == "" {
		return nil, errors.New("telegram: bot token and chat id are required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		botToken:   cfg.BotToken,
		chatID:     cfg.ChatID,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// InlineButton is one button on an inline keyboard row.
type InlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// InlineKeyboard is the reply markup for URL action buttons.
type InlineKeyboard struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}

// MessageRequest is one sendMessage call.
type MessageRequest struct {
	Text        string
	ParseMode   string
	ReplyMarkup *InlineKeyboard
}

// SendMessage posts one message to the configured chat.
func (c *Client) SendMessage(ctx context.Context, req MessageRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return errors.New("telegram: message text is required")
	}
	payload := struct {
		ChatID                string          `json:"chat_id"`
		Text                  string          `json:"text"`
		ParseMode             string          `json:"parse_mode,omitempty"`
		DisableWebPagePreview bool            `json:"disable_web_page_preview"`
		ReplyMarkup           *InlineKeyboard `json:"reply_markup,omitempty"`
	}{
		ChatID:                c.chatID,
		Text:                  req.Text,
		ParseMode:             req.ParseMode,
		DisableWebPagePreview: true,
		ReplyMarkup:           req.ReplyMarkup,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("telegram: http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		c.logger.Error("telegram API error", "status", resp.StatusCode, "body", string(data))
		return fmt.Errorf("telegram: request failed with %d", resp.StatusCode)
	}
	return nil
}
