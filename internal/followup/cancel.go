package followup

import (
	"context"
	"errors"
	"fmt"

	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/internal/observability/metrics"
	"github.com/oomavera/agency/internal/qstash"
	"github.com/oomavera/agency/pkg/logging"
)

// CancelOutcome classifies the terminal state of a cancellation attempt.
type CancelOutcome string

const (
	// OutcomeCancelled means the pending message was deleted in time.
	OutcomeCancelled CancelOutcome = "cancelled"
	// OutcomeNothingToCancel means the lead holds no message reference.
	OutcomeNothingToCancel CancelOutcome = "nothing_to_cancel"
	// OutcomeAlreadySent means the queue no longer knew the message; the
	// race was lost and the SMS went out. The stale reference is cleared.
	OutcomeAlreadySent CancelOutcome = "already_sent"
)

// CancelResult is what the cancel endpoints render.
type CancelResult struct {
	Outcome   CancelOutcome
	LeadName  string
	LeadPhone string
	Message   string
}

// Canceller resolves a lead's pending follow-up against the queue.
type Canceller struct {
	queue   Queue
	repo    leads.Repository
	metrics *metrics.DispatchMetrics
	logger  *logging.Logger
}

// NewCanceller builds a canceller over the queue and lead store.
func NewCanceller(queue Queue, repo leads.Repository, m *metrics.DispatchMetrics, logger *logging.Logger) *Canceller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Canceller{queue: queue, repo: repo, metrics: m, logger: logger}
}

// Cancel attempts to delete the lead's pending follow-up message.
//
// A missing lead surfaces leads.ErrLeadNotFound. A queue "not found"
// means the message already fired; the stale reference is cleared and the
// outcome reports it, because delivered-versus-cancelled is an accepted
// race. Any other queue error is returned without touching the reference,
// since the true state is unknown.
func (c *Canceller) Cancel(ctx context.Context, leadID string) (CancelResult, error) {
	lead, err := c.repo.GetByID(ctx, leadID)
	if err != nil {
		return CancelResult{}, err
	}

	if lead.QueueMessageID == "" {
		c.observe("nothing")
		return CancelResult{
			Outcome:   OutcomeNothingToCancel,
			LeadName:  lead.Name,
			LeadPhone: lead.Phone,
			Message:   "No scheduled SMS found for this lead",
		}, nil
	}

	if c.queue == nil {
		return CancelResult{}, errors.New("followup: queue not configured")
	}

	err = c.queue.DeleteMessage(ctx, lead.QueueMessageID)
	switch {
	case err == nil:
		if clearErr := c.repo.ClearQueueMessageID(ctx, leadID); clearErr != nil {
			c.logger.Error("clear message id failed after cancel", "lead_id", leadID, "error", clearErr)
		}
		c.logger.Info("follow-up cancelled", "lead_id", leadID, "phone", leads.RedactPhone(lead.Phone))
		c.observe("ok")
		return CancelResult{
			Outcome:   OutcomeCancelled,
			LeadName:  lead.Name,
			LeadPhone: lead.Phone,
			Message:   fmt.Sprintf("SMS canceled successfully for %s", lead.Name),
		}, nil

	case errors.Is(err, qstash.ErrMessageNotFound):
		if clearErr := c.repo.ClearQueueMessageID(ctx, leadID); clearErr != nil {
			c.logger.Error("clear stale message id failed", "lead_id", leadID, "error", clearErr)
		}
		c.observe("already_sent")
		return CancelResult{
			Outcome:   OutcomeAlreadySent,
			LeadName:  lead.Name,
			LeadPhone: lead.Phone,
			Message:   "SMS was already sent or no longer scheduled",
		}, nil

	default:
		c.observe("failed")
		return CancelResult{}, fmt.Errorf("followup: cancel message: %w", err)
	}
}

func (c *Canceller) observe(status string) {
	if c.metrics != nil {
		c.metrics.ObserveFollowUp("cancel", status)
	}
}
