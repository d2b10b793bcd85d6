package leads

import (
	"regexp"
	"strings"
	"time"
)

// Lead represents a lead submission from a landing-page form.
type Lead struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	Page           string    `json:"page,omitempty"`
	Source         string    `json:"source,omitempty"`
	QueueMessageID string    `json:"queue_message_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Survey carries the optional qualification survey answers attached to a
// submission. Abandoned is set when the visitor closed the survey without
// finishing.
type Survey struct {
	BusinessType string `json:"businessType,omitempty"`
	Website      string `json:"website,omitempty"`
	RevenueRange string `json:"revenueRange,omitempty"`
	Abandoned    bool   `json:"abandoned,omitempty"`
}

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	Email        string  `json:"email,omitempty"`
	Page         string  `json:"page,omitempty"`
	Source       string  `json:"source,omitempty"`
	EventID      string  `json:"eventId,omitempty"`
	ExternalID   string  `json:"externalId,omitempty"`
	Survey       *Survey `json:"survey,omitempty"`
	SuppressMeta bool    `json:"suppressMeta,omitempty"`
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate validates the create lead request
func (r *CreateLeadRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.Source = strings.TrimSpace(r.Source)
	if r.Name == "" || r.Phone == "" {
		return ErrMissingFields
	}
	if r.Email != "" && !emailRegex.MatchString(r.Email) {
		return ErrInvalidEmail
	}
	digits := DigitsOnly(r.Phone)
	if len(digits) < 10 || len(digits) > 11 {
		return ErrInvalidPhone
	}
	return nil
}

// DigitsOnly strips everything but digits from a phone string.
func DigitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
