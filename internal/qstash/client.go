package qstash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oomavera/agency/pkg/logging"
)

const defaultBaseURL = "https://qstash.upstash.io"

// ErrMessageNotFound marks a delete against a message the queue no longer
// holds, which means the delayed call already fired or expired.
var ErrMessageNotFound = errors.New("qstash: message not found")

// Config controls how the QStash client behaves.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client publishes delayed HTTP calls and cancels them by message id. The
// queue owns delivery and retry; this client makes exactly one attempt per
// operation.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("qstash: token is required")
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
		token:      cfg.Token,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// PublishJSON schedules one delayed HTTP POST of the payload to destination
// and returns the queue's message id.
func (c *Client) PublishJSON(ctx context.Context, destination string, payload any, delay time.Duration) (string, error) {
	if strings.TrimSpace(destination) == "" {
		return "", errors.New("qstash: destination url is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("qstash: marshal payload: %w", err)
	}

	endpoint := c.baseURL + "/v2/publish/" + destination
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("qstash: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	if delay > 0 {
		req.Header.Set("Upstash-Delay", fmt.Sprintf("%ds", int(delay.Seconds())))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("qstash: http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("qstash: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("qstash: publish failed with %d: %s", resp.StatusCode, string(data))
	}

	var parsed struct {
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("qstash: decode response: %w", err)
	}
	if parsed.MessageID == "" {
		return "", errors.New("qstash: publish response missing message id")
	}
	return parsed.MessageID, nil
}

// DeleteMessage cancels a pending delayed message. Returns
// ErrMessageNotFound when the queue no longer knows the id.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	if strings.TrimSpace(messageID) == "" {
		return errors.New("qstash: message id is required")
	}
	endpoint := c.baseURL + "/v2/messages/" + url.PathEscape(messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("qstash: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qstash: http error: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound,
		strings.Contains(strings.ToLower(string(data)), "not found"):
		return ErrMessageNotFound
	default:
		return fmt.Errorf("qstash: delete failed with %d: %s", resp.StatusCode, string(data))
	}
}
