package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oomavera/agency/internal/dispatch"
	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/pkg/logging"
)

// DispatcherConfig controls the lead card and its cancel action link.
type DispatcherConfig struct {
	PublicBaseURL string
	Timezone      *time.Location
}

// Dispatcher posts one formatted lead card to the chat-ops channel. Cards
// for SMS-eligible pages carry an inline button that hits the cancel
// endpoint with the lead id.
type Dispatcher struct {
	client *Client
	cfg    DispatcherConfig
	logger *logging.Logger
}

// NewDispatcher wires a client into the fan-out. A nil client means the
// integration is unconfigured and every dispatch is reported as skipped.
func NewDispatcher(client *Client, cfg DispatcherConfig, logger *logging.Logger) *Dispatcher {
	if cfg.Timezone == nil {
		cfg.Timezone = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{client: client, cfg: cfg, logger: logger}
}

func (d *Dispatcher) Name() string { return "telegram" }

func (d *Dispatcher) Dispatch(ctx context.Context, evt dispatch.Event) dispatch.Result {
	if d.client == nil {
		return dispatch.Result{Service: d.Name(), Status: dispatch.StatusSkipped, Error: "missing Telegram configuration"}
	}

	req := MessageRequest{
		Text:      d.formatCard(evt),
		ParseMode: "Markdown",
	}
	if leads.SMSEligible(evt.Page) && evt.LeadID != "" && d.cfg.PublicBaseURL != "" {
		req.ReplyMarkup = &InlineKeyboard{
			InlineKeyboard: [][]InlineButton{{{
				Text: "Cancel SMS",
				URL:  fmt.Sprintf("%s/api/cancel-sms?leadId=%s&action=cancel", strings.TrimRight(d.cfg.PublicBaseURL, "/"), evt.LeadID),
			}}},
		}
	}

	if err := d.client.SendMessage(ctx, req); err != nil {
		return dispatch.Result{Service: d.Name(), Status: dispatch.StatusFailed, Error: err.Error()}
	}
	d.logger.Info("telegram notification sent", "phone", leads.RedactPhone(evt.Phone))
	return dispatch.Result{Service: d.Name(), Status: dispatch.StatusOK}
}

func (d *Dispatcher) formatCard(evt dispatch.Event) string {
	if answers, base, ok := ParseQualifiedName(evt.Name); ok {
		return d.formatQualifiedCard(base, answers)
	}

	lines := []string{
		"New Lead",
		"Name: " + evt.Name,
		"Phone: " + evt.Phone,
	}
	if evt.Email != "" {
		lines = append(lines, "Email: "+evt.Email)
	}
	if evt.Page != "" {
		lines = append(lines, "Page: "+pageTitle(evt.Page))
	}
	if evt.Source != "" {
		lines = append(lines, "Source: "+evt.Source)
	}
	if evt.LeadID != "" {
		lines = append(lines, "Lead ID: "+evt.LeadID)
	}
	if evt.Qualification != "" {
		lines = append(lines, "Qualification: "+string(evt.Qualification))
	}
	if evt.Survey != nil {
		if evt.Survey.Abandoned {
			lines = append(lines, "Survey: dismissed (no answers)")
		}
		lines = append(lines, "--- Survey ---")
		if evt.Survey.BusinessType != "" {
			lines = append(lines, "Business Type: "+evt.Survey.BusinessType)
		}
		if evt.Survey.Website != "" {
			lines = append(lines, "Website: "+evt.Survey.Website)
		}
		if evt.Survey.RevenueRange != "" {
			lines = append(lines, "Monthly Revenue: "+evt.Survey.RevenueRange)
		}
	}
	if leads.SMSEligible(evt.Page) {
		lines = append(lines, "SMS: scheduled in 60 seconds")
	}
	lines = append(lines, "Time: "+time.Now().In(d.cfg.Timezone).Format("Jan 2, 2006 3:04 PM"))
	return strings.Join(lines, "\n")
}

func (d *Dispatcher) formatQualifiedCard(name string, answers map[string]string) string {
	value := func(key string) string {
		if v := answers[key]; v != "" {
			return v
		}
		return "Unknown"
	}
	lines := []string{
		"*QUALIFIED LEAD*",
		"Name: " + name,
		"Owns Home: " + value("ownsHome"),
		"Square Footage: " + value("squareFootage"),
		"Frequency: " + value("frequency"),
		"Priority: " + value("priority"),
		"Time: " + time.Now().In(d.cfg.Timezone).Format("Jan 2, 2006 3:04 PM"),
	}
	return strings.Join(lines, "\n")
}

func pageTitle(page string) string {
	switch page {
	case "home":
		return "Home"
	case "offer":
		return "Offer"
	case "offer2":
		return "Offer2"
	default:
		return page
	}
}

// ParseQualifiedName unpacks a name of the form
// "Jane Doe | QUALIFIED: ownsHome=Yes; squareFootage=1000-1500; ...".
// Returns false when the name carries no encoded answers.
func ParseQualifiedName(name string) (answers map[string]string, base string, ok bool) {
	if !strings.Contains(name, "QUALIFIED") {
		return nil, "", false
	}
	parts := strings.SplitN(name, "|", 2)
	base = strings.TrimSpace(parts[0])
	if base == "" {
		base = "Unknown"
	}
	answers = map[string]string{}
	if len(parts) == 2 {
		rest := parts[1]
		if idx := strings.Index(rest, ":"); idx >= 0 {
			rest = rest[idx+1:]
		}
		for _, pair := range strings.Split(rest, ";") {
			kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
			if len(kv) == 2 && kv[0] != "" {
				answers[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
			}
		}
	}
	return answers, base, true
}
