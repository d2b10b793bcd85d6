package gohighlevel

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

const defaultBaseURL = "https://rest.gohighlevel.com/v1"

// Config controls how the GoHighLevel client behaves.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client wraps the GoHighLevel contact and opportunity endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gohighlevel: API key is required")
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

// ContactRequest creates one contact record.
type ContactRequest struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Email     string   `json:"email,omitempty"`
	Source    string   `json:"source"`
	Tags      []string `json:"tags,omitempty"`
}

// OpportunityRequest creates one opportunity linked to a contact.
type OpportunityRequest struct {
	Name       string `json:"name"`
	ContactID  string `json:"contactId"`
	PipelineID string `json:"pipelineId"`
	StageID    string `json:"stageId"`
	Status     string `json:"status"`
	Source     string `json:"source"`
}

// CreateContact creates a contact and returns its id.
func (c *Client) CreateContact(ctx context.Context, req ContactRequest) (string, error) {
	data, err := c.invoke(ctx, "/contacts/", req)
	if err != nil {
		return "", err
	}
	return extractID(data, "contact"), nil
}

// CreateOpportunity creates an opportunity and returns its id.
func (c *Client) CreateOpportunity(ctx context.Context, req OpportunityRequest) (string, error) {
	data, err := c.invoke(ctx, "/opportunities/", req)
	if err != nil {
		return "", err
	}
	return extractID(data, "opportunity"), nil
}

func (c *Client) invoke(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gohighlevel: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gohighlevel: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gohighlevel: http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gohighlevel: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apiError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// extractID pulls an id either from the top level or from a named wrapper
// object, since the API is inconsistent about which it returns.
func extractID(data []byte, wrapper string) string {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(data, &parsed); err != nil {
		return ""
	}
	if raw, ok := parsed[wrapper]; ok {
		var inner struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &inner); err == nil && inner.ID != "" {
			return inner.ID
		}
	}
	if raw, ok := parsed["id"]; ok {
		var id string
		if err := json.Unmarshal(raw, &id); err == nil {
			return id
		}
	}
	return ""
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("gohighlevel: request failed with %d", e.StatusCode)
}

// StatusCode extracts the HTTP status from a client error, if present.
func StatusCode(err error) (int, bool) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}
