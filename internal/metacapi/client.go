package metacapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/pkg/logging"
)

const defaultBaseURL = "https://graph.facebook.com/v17.0"

// Event names sent to the Conversions API.
const (
	EventLead             = "Lead"
	EventLeadQualified    = "LeadQualified"
	EventLeadUnqualified  = "LeadUnqualified"
	EventLeadDisqualified = "LeadDisqualified"
)

// Config controls how the Conversions API client behaves.
type Config struct {
	BaseURL     string
	PixelID     string
	AccessToken string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *logging.Logger
}

// Client sends server-side conversion events. Email and phone are hashed
// before transmission; raw PII never goes over this wire.
type Client struct {
	pixelID     string
	accessToken string
	baseURL     string
	httpClient  *http.Client
	logger      *logging.Logger
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.PixelID) == "" || strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, errors.New("metacapi: pixel id and access token are required")
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
		pixelID:     cfg.PixelID,
		accessToken: cfg.AccessToken,
		baseURL:     baseURL,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// Event is one server-side conversion event before hashing.
type Event struct {
	Name           string
	SourceURL      string
	EventID        string
	ExternalID     string
	Email          string
	Phone          string
	ClientIP       string
	UserAgent      string
	FBP            string
	FBC            string
	LeadSource     string
}

type userData struct {
	Em         []string `json:"em,omitempty"`
	Ph         []string `json:"ph,omitempty"`
	ExternalID []string `json:"external_id,omitempty"`
	ClientIP   string   `json:"client_ip_address,omitempty"`
	UserAgent  string   `json:"client_user_agent,omitempty"`
	FBP        string   `json:"fbp,omitempty"`
	FBC        string   `json:"fbc,omitempty"`
}

type eventPayload struct {
	EventName      string            `json:"event_name"`
	EventTime      int64             `json:"event_time"`
	EventID        string            `json:"event_id,omitempty"`
	ActionSource   string            `json:"action_source"`
	EventSourceURL string            `json:"event_source_url,omitempty"`
	UserData       userData          `json:"user_data"`
	CustomData     map[string]string `json:"custom_data,omitempty"`
}

// SendEvent posts one conversion event.
func (c *Client) SendEvent(ctx context.Context, evt Event) error {
	name := evt.Name
	if name == "" {
		name = EventLead
	}

	var emHashed, phHashed string
	if evt.Email != "" {
		emHashed = hashSHA256(strings.ToLower(strings.TrimSpace(evt.Email)))
	}
	if evt.Phone != "" {
		phHashed = hashSHA256(normalizePhone(evt.Phone))
	}

	ud := userData{
		ClientIP:  evt.ClientIP,
		UserAgent: evt.UserAgent,
		FBP:       evt.FBP,
		FBC:       evt.FBC,
	}
	if emHashed != "" {
		ud.Em = []string{emHashed}
	}
	if phHashed != "" {
		ud.Ph = []string{phHashed}
	}
	switch {
	case evt.ExternalID != "":
		ud.ExternalID = []string{evt.ExternalID}
	case emHashed != "":
		ud.ExternalID = []string{emHashed}
	case phHashed != "":
		ud.ExternalID = []string{phHashed}
	}

	payload := eventPayload{
		EventName:      name,
		EventTime:      time.Now().Unix(),
		EventID:        evt.EventID,
		ActionSource:   "website",
		EventSourceURL: evt.SourceURL,
		UserData:       ud,
	}
	if evt.LeadSource != "" {
		payload.CustomData = map[string]string{"lead_source": evt.LeadSource}
	}

	body, err := json.Marshal(map[string]any{"data": []eventPayload{payload}})
	if err != nil {
		return fmt.Errorf("metacapi: marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/events?access_token=%s", c.baseURL, c.pixelID, url.QueryEscape(c.accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("metacapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("metacapi: http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("metacapi: request failed with %d: %s", resp.StatusCode, string(data))
	}
	return nil
}

// EventNameFor maps a qualification tier to a conversion event name.
func EventNameFor(q leads.Qualification) string {
	switch q {
	case leads.QualificationQualified:
		return EventLeadQualified
	case leads.QualificationUnqualified:
		return EventLeadUnqualified
	default:
		return EventLead
	}
}

// DeriveFBC builds a synthetic click id cookie from a referrer URL's fbclid
// parameter, for requests where the browser cookie never made it server-side.
func DeriveFBC(referer string, now time.Time) string {
	if referer == "" {
		return ""
	}
	parsed, err := url.Parse(referer)
	if err != nil {
		return ""
	}
	fbclid := parsed.Query().Get("fbclid")
	if fbclid == "" {
		return ""
	}
	return fmt.Sprintf("fb.1.%d.%s", now.Unix(), fbclid)
}

func hashSHA256(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// normalizePhone strips formatting and assumes US when 10 digits remain.
func normalizePhone(phone string) string {
	digits := leads.DigitsOnly(phone)
	if len(digits) == 10 {
		return "1" + digits
	}
	return digits
}
