package clickup

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/oomavera/agency/internal/dispatch"
	"github.com/oomavera/agency/internal/leads"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// DispatcherConfig gates and shapes the task created for each lead. A
// missing token or list id turns the dispatcher into a no-op skip.
type DispatcherConfig struct {
	ListID        string
	Status        string
	Priority      int
	AssigneeIDs   []int
	PhoneFieldID  string
	EmailFieldID  string
	SourceFieldID string
}

// Dispatcher creates one ClickUp task per lead.
type Dispatcher struct {
	client *Client
	cfg    DispatcherConfig
}

// NewDispatcher wires a client into the fan-out. A nil client means the
// integration is unconfigured and every dispatch is reported as skipped.
func NewDispatcher(client *Client, cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{client: client, cfg: cfg}
}

func (d *Dispatcher) Name() string { return "clickup" }

func (d *Dispatcher) Dispatch(ctx context.Context, evt dispatch.Event) dispatch.Result {
	if d.client == nil || strings.TrimSpace(d.cfg.ListID) == "" {
		return dispatch.Result{
			Service: d.Name(),
			Status:  dispatch.StatusSkipped,
			Error:   "missing ClickUp configuration",
		}
	}

	req := TaskRequest{
		Name:        taskName(evt),
		Description: buildDescription(evt),
		Tags:        buildTags(evt),
		NotifyAll:   false,
		Status:      d.cfg.Status,
	}
	if d.cfg.Priority >= 1 && d.cfg.Priority <= 4 {
		req.Priority = d.cfg.Priority
	}
	if len(d.cfg.AssigneeIDs) > 0 {
		req.Assignees = d.cfg.AssigneeIDs
	}
	req.CustomFields = d.customFields(evt)

	task, err := d.client.CreateTask(ctx, d.cfg.ListID, req)
	if err != nil {
		msg := err.Error()
		if status, ok := StatusCode(err); ok {
			msg = fmt.Sprintf("ClickUp API request failed with %d", status)
		}
		return dispatch.Result{Service: d.Name(), Status: dispatch.StatusFailed, Error: msg}
	}
	return dispatch.Result{Service: d.Name(), Status: dispatch.StatusOK, TaskID: task.ID}
}

func (d *Dispatcher) customFields(evt dispatch.Event) []CustomField {
	var fields []CustomField
	if d.cfg.PhoneFieldID != "" {
		value := leads.DigitsOnly(evt.Phone)
		if value == "" {
			value = evt.Phone
		}
		fields = append(fields, CustomField{ID: d.cfg.PhoneFieldID, Value: value})
	}
	if d.cfg.EmailFieldID != "" && evt.Email != "" {
		fields = append(fields, CustomField{ID: d.cfg.EmailFieldID, Value: evt.Email})
	}
	if d.cfg.SourceFieldID != "" && evt.Page != "" {
		fields = append(fields, CustomField{ID: d.cfg.SourceFieldID, Value: evt.Page})
	}
	return fields
}

func taskName(evt dispatch.Event) string {
	if evt.Page != "" {
		return fmt.Sprintf("%s (%s)", evt.Name, evt.Page)
	}
	return evt.Name
}

func buildDescription(evt dispatch.Event) string {
	var segments []string
	if evt.Source != "" {
		segments = append(segments, "Source: "+evt.Source)
	}
	if evt.Page != "" {
		segments = append(segments, "Page: "+evt.Page)
	}
	segments = append(segments, "Name: "+evt.Name, "Phone: "+evt.Phone)
	if evt.Email != "" {
		segments = append(segments, "Email: "+evt.Email)
	}
	return strings.Join(segments, "\n")
}

func buildTags(evt dispatch.Event) []string {
	tags := []string{"lead"}
	seen := map[string]bool{"lead": true}
	add := func(tag string) {
		if tag != "" && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	add(evt.Page)
	add(slugify(evt.Source))
	return tags
}

func slugify(value string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
}
