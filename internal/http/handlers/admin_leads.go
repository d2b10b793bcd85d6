package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/pkg/logging"
)

// AdminLeadsHandler serves the operator view of recent leads.
type AdminLeadsHandler struct {
	repo   leads.Repository
	logger *logging.Logger
}

// NewAdminLeadsHandler creates a new admin leads handler.
func NewAdminLeadsHandler(repo leads.Repository, logger *logging.Logger) *AdminLeadsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminLeadsHandler{repo: repo, logger: logger}
}

// LeadResponse represents a lead in API responses.
type LeadResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email,omitempty"`
	Page           string `json:"page,omitempty"`
	Source         string `json:"source,omitempty"`
	SMSPending     bool   `json:"sms_pending"`
	QueueMessageID string `json:"queue_message_id,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// LeadsListResponse is the list payload.
type LeadsListResponse struct {
	Leads []LeadResponse `json:"leads"`
	Count int            `json:"count"`
}

// ListLeads returns the most recent leads.
// GET /admin/leads?limit=50
func (h *AdminLeadsHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	stored, err := h.repo.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]LeadResponse, 0, len(stored))
	for _, lead := range stored {
		out = append(out, LeadResponse{
			ID:             lead.ID,
			Name:           lead.Name,
			Phone:          lead.Phone,
			Email:          lead.Email,
			Page:           lead.Page,
			Source:         lead.Source,
			SMSPending:     lead.QueueMessageID != "",
			QueueMessageID: lead.QueueMessageID,
			CreatedAt:      lead.CreatedAt.Format(time.RFC3339),
		})
	}

	respondJSON(w, http.StatusOK, LeadsListResponse{Leads: out, Count: len(out)})
}
