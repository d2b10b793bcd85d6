package metacapi

import (
	"context"
	"time"

	"github.com/oomavera/agency/internal/dispatch"
)

// Dispatcher sends one conversion event per lead. Suppressed entirely when
// the submission asked for it and no qualification tier was computed, which
// keeps multi-step funnels from double counting.
type Dispatcher struct {
	client *Client
}

// NewDispatcher wires a client into the fan-out. A nil client means the
// integration is unconfigured and every dispatch is reported as skipped.
func NewDispatcher(client *Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) Name() string { return "meta" }

func (d *Dispatcher) Dispatch(ctx context.Context, evt dispatch.Event) dispatch.Result {
	if d.client == nil {
		return dispatch.Result{Service: d.Name(), Status: dispatch.StatusSkipped, Error: "missing Meta pixel or token"}
	}
	if evt.SuppressMeta && evt.Qualification == "" {
		return dispatch.Result{Service: d.Name(), Status: dispatch.StatusSkipped, Error: "suppressed"}
	}

	fbc := evt.FBC
	if fbc == "" {
		fbc = DeriveFBC(evt.Referer, time.Now())
	}

	err := d.client.SendEvent(ctx, Event{
		Name:       EventNameFor(evt.Qualification),
		SourceURL:  evt.Referer,
		EventID:    evt.EventID,
		ExternalID: evt.ExternalID,
		Email:      evt.Email,
		Phone:      evt.Phone,
		ClientIP:   evt.ClientIP,
		UserAgent:  evt.UserAgent,
		FBP:        evt.FBP,
		FBC:        fbc,
		LeadSource: evt.Source,
	})
	if err != nil {
		return dispatch.Result{Service: d.Name(), Status: dispatch.StatusFailed, Error: err.Error()}
	}
	return dispatch.Result{Service: d.Name(), Status: dispatch.StatusOK}
}
