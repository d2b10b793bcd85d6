package gohighlevel

import (
	"context"
	"fmt"

	"github.com/oomavera/agency/internal/dispatch"
	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/pkg/logging"
)

// DispatcherConfig gates opportunity creation. Without both pipeline and
// stage ids only the contact is created.
type DispatcherConfig struct {
	PipelineID string
	StageID    string
}

// Dispatcher pushes one contact, and optionally one opportunity, per lead.
// The opportunity call is best-effort: its failure never undoes a created
// contact.
type Dispatcher struct {
	client *Client
	cfg    DispatcherConfig
	logger *logging.Logger
}

// NewDispatcher wires a client into the fan-out. A nil client means the
// integration is unconfigured and every dispatch is reported as skipped.
func NewDispatcher(client *Client, cfg DispatcherConfig, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{client: client, cfg: cfg, logger: logger}
}

func (d *Dispatcher) Name() string { return "gohighlevel" }

func (d *Dispatcher) Dispatch(ctx context.Context, evt dispatch.Event) dispatch.Result {
	if d.client == nil {
		return dispatch.Result{Service: d.Name(), Status: dispatch.StatusSkipped, Error: "missing GHL_API_KEY"}
	}

	first, last := leads.SplitName(evt.Name, "Lead")
	source := evt.Source
	if source == "" {
		source = evt.Page
	}
	if source == "" {
		source = "website"
	}
	tags := make([]string, 0, 2)
	if evt.Page != "" {
		tags = append(tags, evt.Page)
	} else {
		tags = append(tags, "website")
	}
	if evt.Source != "" {
		tags = append(tags, evt.Source)
	} else {
		tags = append(tags, "lead")
	}

	contactID, err := d.client.CreateContact(ctx, ContactRequest{
		FirstName: first,
		LastName:  last,
		Name:      evt.Name,
		Phone:     evt.Phone,
		Email:     evt.Email,
		Source:    source,
		Tags:      tags,
	})
	if err != nil {
		msg := err.Error()
		if status, ok := StatusCode(err); ok {
			msg = fmt.Sprintf("Contact create failed (%d)", status)
		}
		return dispatch.Result{Service: d.Name(), Status: dispatch.StatusFailed, Error: msg}
	}

	res := dispatch.Result{Service: d.Name(), Status: dispatch.StatusOK, ContactID: contactID}
	if contactID == "" || d.cfg.PipelineID == "" || d.cfg.StageID == "" {
		return res
	}

	opportunityID, err := d.client.CreateOpportunity(ctx, OpportunityRequest{
		Name:       evt.Name,
		ContactID:  contactID,
		PipelineID: d.cfg.PipelineID,
		StageID:    d.cfg.StageID,
		Status:     "open",
		Source:     source,
	})
	if err != nil {
		d.logger.Error("gohighlevel opportunity create failed", "error", err)
		return res
	}
	res.OpportunityID = opportunityID
	return res
}
