package openphone

import (
	"context"
	"fmt"

	"github.com/oomavera/agency/internal/dispatch"
	"github.com/oomavera/agency/internal/leads"
)

// DispatcherConfig shapes contact records created for each lead.
type DispatcherConfig struct {
	PhoneLabel string
	EmailLabel string
}

// Dispatcher upserts one OpenPhone contact per lead.
type Dispatcher struct {
	client *Client
	cfg    DispatcherConfig
}

// NewDispatcher wires a client into the fan-out. A nil client means the
// integration is unconfigured and every dispatch is reported as skipped.
func NewDispatcher(client *Client, cfg DispatcherConfig) *Dispatcher {
	if cfg.PhoneLabel == "" {
		cfg.PhoneLabel = "mobile"
	}
	if cfg.EmailLabel == "" {
		cfg.EmailLabel = "work"
	}
	return &Dispatcher{client: client, cfg: cfg}
}

func (d *Dispatcher) Name() string { return "openphone" }

func (d *Dispatcher) Dispatch(ctx context.Context, evt dispatch.Event) dispatch.Result {
	if d.client == nil {
		return dispatch.Result{Service: d.Name(), Status: dispatch.StatusSkipped, Error: "missing OpenPhone API key"}
	}

	phone, ok := leads.NormalizeE164(evt.Phone)
	if !ok {
		return dispatch.Result{Service: d.Name(), Status: dispatch.StatusSkipped, Error: "invalid phone"}
	}

	first, last := leads.SplitName(evt.Name, "Lead")
	req := ContactRequest{
		DefaultFields: ContactFields{
			FirstName:    first,
			LastName:     last,
			PhoneNumbers: []LabeledValue{{Name: d.cfg.PhoneLabel, Value: phone}},
		},
		ExternalID: evt.ExternalID,
	}
	if evt.Email != "" {
		req.DefaultFields.Emails = []LabeledValue{{Name: d.cfg.EmailLabel, Value: evt.Email}}
	}

	contact, err := d.client.CreateContact(ctx, req)
	if err != nil {
		msg := err.Error()
		if status, ok := StatusCode(err); ok {
			msg = fmt.Sprintf("OpenPhone request failed with %d", status)
		}
		return dispatch.Result{Service: d.Name(), Status: dispatch.StatusFailed, Error: msg}
	}
	return dispatch.Result{Service: d.Name(), Status: dispatch.StatusOK, ContactID: contact.ID}
}
