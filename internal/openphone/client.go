package openphone

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

const defaultBaseURL = "https://api.openphone.com/v1"

// Config controls how the OpenPhone client behaves.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client wraps the OpenPhone contact and messaging endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openphone: API key is required")
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
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// LabeledValue is a named phone number or email on a contact.
type LabeledValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ContactFields is the defaultFields block of a contact create request.
type ContactFields struct {
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName,omitempty"`
	PhoneNumbers []LabeledValue `json:"phoneNumbers"`
	Emails       []LabeledValue `json:"emails,omitempty"`
}

// ContactRequest creates or updates a contact.
type ContactRequest struct {
	DefaultFields ContactFields `json:"defaultFields"`
	ExternalID    string        `json:"externalId,omitempty"`
}

// Contact is the subset of the contact response we use.
type Contact struct {
	ID string `json:"id"`
}

// CreateContact upserts a contact record.
func (c *Client) CreateContact(ctx context.Context, req ContactRequest) (*Contact, error) {
	data, err := c.invoke(ctx, "/contacts", req)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Data Contact `json:"data"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &wrapper); err != nil {
			c.logger.Warn("openphone contact response parse failed", "error", err)
		}
	}
	return &wrapper.Data, nil
}

// MessageRequest sends one SMS from a configured number.
type MessageRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Content string   `json:"content"`
}

// Message is the subset of the send response we use.
type Message struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SendMessage sends one SMS. No retries; each call is a single attempt.
func (c *Client) SendMessage(ctx context.Context, req MessageRequest) (*Message, error) {
	if req.From == "" || len(req.To) == 0 || req.Content == "" {
		return nil, errors.New("openphone: from, to and content are required")
	}
	data, err := c.invoke(ctx, "/messages", req)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Data Message `json:"data"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &wrapper); err != nil {
			c.logger.Warn("openphone message response parse failed", "error", err)
		}
	}
	return &wrapper.Data, nil
}

func (c *Client) invoke(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openphone: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openphone: build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openphone: http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openphone: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apiError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("openphone: request failed with %d", e.StatusCode)
}

// StatusCode extracts the HTTP status from a client error, if present.
func StatusCode(err error) (int, bool) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}

// ErrorBody returns the raw response body carried by a client error.
func ErrorBody(err error) string {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	return ""
}
