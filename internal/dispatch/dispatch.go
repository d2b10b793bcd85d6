package dispatch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/internal/observability/metrics"
	"github.com/oomavera/agency/pkg/logging"
)

var tracer = otel.Tracer("agency.internal.dispatch")

// Status classifies a single integration's outcome.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusTimeout Status = "timeout"
)

// Event is the lead payload handed to every dispatcher, plus the request
// attribution context some integrations need.
type Event struct {
	LeadID        string
	Name          string
	Phone         string
	Email         string
	Page          string
	Source        string
	EventID       string
	ExternalID    string
	Qualification leads.Qualification
	Survey        *leads.Survey
	SuppressMeta  bool

	ClientIP  string
	UserAgent string
	FBP       string
	FBC       string
	Referer   string
}

// Result is the per-integration outcome collected for debug reporting. It is
// never persisted and never fails the submission.
type Result struct {
	Service       string `json:"service"`
	Status        Status `json:"status"`
	TaskID        string `json:"taskId,omitempty"`
	ContactID     string `json:"contactId,omitempty"`
	OpportunityID string `json:"opportunityId,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Dispatcher is a single integration's send-and-interpret-response logic.
// Implementations must contain their own failures: Dispatch never panics
// past its boundary and never blocks siblings.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, evt Event) Result
}

const dispatcherDeadline = 15 * time.Second

// FanOut runs every dispatcher concurrently and collects their results with
// a bounded wait. The HTTP response is never gated on completion; the wait
// exists only so debug output can report outcomes.
type FanOut struct {
	dispatchers []Dispatcher
	timeout     time.Duration
	metrics     *metrics.DispatchMetrics
	logger      *logging.Logger
}

// NewFanOut builds a fan-out over the given dispatchers.
func NewFanOut(dispatchers []Dispatcher, timeout time.Duration, m *metrics.DispatchMetrics, logger *logging.Logger) *FanOut {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FanOut{
		dispatchers: dispatchers,
		timeout:     timeout,
		metrics:     m,
		logger:      logger,
	}
}

// Run launches all dispatchers and waits up to the configured timeout for
// their results. Returns whatever results arrived in time, plus true when
// the wait expired with work still in flight. In-flight dispatchers keep
// running on a detached context so a slow integration still completes.
func (f *FanOut) Run(ctx context.Context, evt Event) ([]Result, bool) {
	ctx, span := tracer.Start(ctx, "dispatch.fanout")
	defer span.End()
	span.SetAttributes(
		attribute.String("lead.page", evt.Page),
		attribute.Int("dispatch.count", len(f.dispatchers)),
	)

	if len(f.dispatchers) == 0 {
		return nil, false
	}

	resultCh := make(chan Result, len(f.dispatchers))
	for _, d := range f.dispatchers {
		go f.runOne(context.WithoutCancel(ctx), d, evt, resultCh)
	}

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	results := make([]Result, 0, len(f.dispatchers))
	for len(results) < len(f.dispatchers) {
		select {
		case res := <-resultCh:
			results = append(results, res)
		case <-timer.C:
			span.SetAttributes(attribute.Bool("dispatch.timed_out", true))
			f.logger.Warn("dispatch fan-out timed out",
				"timeout", f.timeout.String(),
				"completed", len(results),
				"total", len(f.dispatchers),
			)
			return results, true
		}
	}
	return results, false
}

func (f *FanOut) runOne(ctx context.Context, d Dispatcher, evt Event, out chan<- Result) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("dispatcher panicked", "service", d.Name(), "panic", r)
			res := Result{Service: d.Name(), Status: StatusFailed, Error: "internal dispatcher panic"}
			f.observe(res, started)
			out <- res
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, dispatcherDeadline)
	defer cancel()

	res := d.Dispatch(ctx, evt)
	if res.Service == "" {
		res.Service = d.Name()
	}
	f.observe(res, started)
	switch res.Status {
	case StatusOK:
		f.logger.Info("integration dispatched", "service", res.Service)
	case StatusSkipped:
		f.logger.Info("integration skipped", "service", res.Service, "reason", res.Error)
	default:
		f.logger.Error("integration failed", "service", res.Service, "error", res.Error)
	}
	out <- res
}

func (f *FanOut) observe(res Result, started time.Time) {
	if f.metrics == nil {
		return
	}
	f.metrics.ObserveDispatch(res.Service, string(res.Status), time.Since(started).Seconds())
}
