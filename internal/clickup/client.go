package clickup

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

const defaultBaseURL = "https://api.clickup.com/api/v2"

// Config controls how the ClickUp client behaves.
type Config struct {
	BaseURL    string
	APIToken   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client wraps the ClickUp task endpoints used for lead intake.
type Client struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIToken) == "" {
		return nil, errors.New("clickup: API token is required")
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
		apiToken:   cfg.APIToken,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CustomField is one custom-field assignment on a task.
type CustomField struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// TaskRequest is the payload for creating a task on a list.
type TaskRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	NotifyAll    bool          `json:"notify_all"`
	Status       string        `json:"status,omitempty"`
	Priority     int           `json:"priority,omitempty"`
	Assignees    []int         `json:"assignees,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

// Task is the subset of the create-task response we use.
type Task struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateTask creates one task on the given list.
func (c *Client) CreateTask(ctx context.Context, listID string, req TaskRequest) (*Task, error) {
	if strings.TrimSpace(listID) == "" {
		return nil, errors.New("clickup: list id is required")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("clickup: marshal task payload: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/list/%s/task", c.baseURL, listID), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("clickup: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.apiToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("clickup: http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("clickup: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apiError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var task Task
	if len(data) > 0 {
		if err := json.Unmarshal(data, &task); err != nil {
			c.logger.Warn("clickup response parse failed", "error", err)
		}
	}
	return &task, nil
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("clickup: request failed with %d", e.StatusCode)
}

// StatusCode extracts the HTTP status from a client error, if present.
func StatusCode(err error) (int, bool) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}
