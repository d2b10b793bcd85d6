package followup

import (
	"context"
	"strings"
	"time"

	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/internal/observability/metrics"
	"github.com/oomavera/agency/pkg/logging"
)

// Queue publishes delayed HTTP calls and cancels them by message id.
type Queue interface {
	PublishJSON(ctx context.Context, destination string, payload any, delay time.Duration) (string, error)
	DeleteMessage(ctx context.Context, messageID string) error
}

// SchedulerConfig shapes the delayed follow-up call.
type SchedulerConfig struct {
	PublicBaseURL string
	Delay         time.Duration
	Window        SendWindow
}

// smsPayload is the body the queue posts back to the send endpoint.
type smsPayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Scheduler publishes one delayed send-SMS call per eligible lead and
// records the queue's message id on the lead for later cancellation.
// Every failure is logged and swallowed; scheduling never fails a
// submission.
type Scheduler struct {
	queue   Queue
	repo    leads.Repository
	deduper Deduper
	cfg     SchedulerConfig
	metrics *metrics.DispatchMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewScheduler builds a scheduler. A nil queue disables scheduling, a nil
// deduper disables duplicate suppression.
func NewScheduler(queue Queue, repo leads.Repository, deduper Deduper, cfg SchedulerConfig, m *metrics.DispatchMetrics, logger *logging.Logger) *Scheduler {
	if cfg.Delay <= 0 {
		cfg.Delay = 60 * time.Second
	}
	if deduper == nil {
		deduper = NoopDeduper{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		queue:   queue,
		repo:    repo,
		deduper: deduper,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Schedule publishes the delayed follow-up for a stored lead. Returns the
// queue message id, or empty when nothing was scheduled.
func (s *Scheduler) Schedule(ctx context.Context, lead leads.Lead) string {
	if s.queue == nil {
		return ""
	}
	if !leads.SMSEligible(lead.Page) {
		return ""
	}
	if !s.cfg.Window.Allows(s.now()) {
		s.logger.Info("follow-up outside send window", "lead_id", lead.ID)
		s.observe("skipped")
		return ""
	}

	first, err := s.deduper.FirstSchedule(ctx, lead.Phone)
	if err != nil {
		s.logger.Warn("follow-up dedupe check failed", "lead_id", lead.ID, "error", err)
	} else if !first {
		s.logger.Info("follow-up already scheduled for phone", "lead_id", lead.ID, "phone", leads.RedactPhone(lead.Phone))
		s.observe("deduped")
		return ""
	}

	destination := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/api/send-sms"
	messageID, err := s.queue.PublishJSON(ctx, destination, smsPayload{Name: lead.Name, Phone: lead.Phone}, s.cfg.Delay)
	if err != nil {
		s.logger.Error("follow-up publish failed", "lead_id", lead.ID, "error", err)
		s.observe("failed")
		return ""
	}

	if err := s.repo.SetQueueMessageID(ctx, lead.ID, messageID); err != nil {
		// The SMS still goes out; only cancellation is lost.
		s.logger.Error("follow-up message id persist failed", "lead_id", lead.ID, "message_id", messageID, "error", err)
	}
	s.logger.Info("follow-up scheduled",
		"lead_id", lead.ID,
		"message_id", messageID,
		"delay", s.cfg.Delay.String(),
	)
	s.observe("ok")
	return messageID
}

func (s *Scheduler) observe(status string) {
	if s.metrics != nil {
		s.metrics.ObserveFollowUp("schedule", status)
	}
}
