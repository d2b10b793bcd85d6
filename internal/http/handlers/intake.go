package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oomavera/agency/internal/dispatch"
	"github.com/oomavera/agency/internal/followup"
	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/internal/notify"
	"github.com/oomavera/agency/internal/observability/metrics"
	"github.com/oomavera/agency/pkg/logging"
)

// IntakeHandler accepts lead submissions, fans them out to the configured
// integrations and schedules the delayed follow-up SMS. Integration
// failures never fail the submission; only validation does.
type IntakeHandler struct {
	repo      leads.Repository
	fanout    *dispatch.FanOut
	scheduler *followup.Scheduler
	notifier  *notify.Service
	metrics   *metrics.DispatchMetrics
	logger    *logging.Logger
}

// NewIntakeHandler creates the lead intake handler.
func NewIntakeHandler(repo leads.Repository, fanout *dispatch.FanOut, scheduler *followup.Scheduler, notifier *notify.Service, m *metrics.DispatchMetrics, logger *logging.Logger) *IntakeHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &IntakeHandler{
		repo:      repo,
		fanout:    fanout,
		scheduler: scheduler,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

type intakeResponse struct {
	Success            bool              `json:"success"`
	Message            string            `json:"message"`
	LeadID             string            `json:"leadId"`
	IntegrationResults []dispatch.Result `json:"integrationResults,omitempty"`
}

// SubmitLead handles POST /api/leads.
func (h *IntakeHandler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	var req leads.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		switch {
		case errors.Is(err, leads.ErrMissingFields),
			errors.Is(err, leads.ErrInvalidEmail),
			errors.Is(err, leads.ErrInvalidPhone):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("lead validation error", "error", err)
			respondError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	qualification := leads.Qualification("")
	if req.Survey != nil {
		qualification = leads.ClassifyRevenue(req.Survey.RevenueRange)
	}

	lead, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("lead create failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.logger.Info("lead received",
		"lead_id", lead.ID,
		"page", lead.Page,
		"phone", leads.RedactPhone(lead.Phone),
		"qualification", string(qualification),
	)
	if h.metrics != nil {
		h.metrics.ObserveLead(lead.Page, string(qualification))
	}

	evt := dispatch.Event{
		LeadID:        lead.ID,
		Name:          lead.Name,
		Phone:         lead.Phone,
		Email:         lead.Email,
		Page:          lead.Page,
		Source:        lead.Source,
		EventID:       req.EventID,
		ExternalID:    req.ExternalID,
		Qualification: qualification,
		Survey:        req.Survey,
		SuppressMeta:  req.SuppressMeta,
		ClientIP:      clientIP(r),
		UserAgent:     r.UserAgent(),
		FBP:           cookieValue(r, "_fbp"),
		FBC:           cookieValue(r, "_fbc"),
		Referer:       r.Referer(),
	}

	var results []dispatch.Result
	var timedOut bool
	if h.fanout != nil {
		results, timedOut = h.fanout.Run(r.Context(), evt)
	}

	if h.scheduler != nil {
		h.scheduler.Schedule(r.Context(), *lead)
	}
	if h.notifier != nil && qualification == leads.QualificationQualified {
		h.notifier.QualifiedLead(context.WithoutCancel(r.Context()), *lead)
	}

	resp := intakeResponse{
		Success: true,
		Message: "Lead submitted successfully",
		LeadID:  lead.ID,
	}
	if r.URL.Query().Get("debug") == "1" {
		if timedOut {
			results = append(results, dispatch.Result{Service: "debug", Status: dispatch.StatusTimeout, Error: "integrations exceeded dispatch timeout"})
		}
		resp.IntegrationResults = results
	}
	respondJSON(w, http.StatusOK, resp)
}
