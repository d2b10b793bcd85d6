package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oomavera/agency/internal/dispatch"
	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/pkg/logging"
)

var (
	ownsHomeAllowed  = allowedSet("Yes", "No")
	frequencyAllowed = allowedSet("Just Once", "Monthly", "Bi-weekly", "Weekly")
	priorityAllowed  = allowedSet("Reliable", "Consistent", "Polite", "Fast", "Risk-Free", "Cheap")
	sqftAllowed      = allowedSet("0-1000", "1000-1500", "1500-2000", "2000-3000", "3000-4000", "5000-10000")
)

func allowedSet(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// QualifyHandler accepts the survey funnel's answers, encodes them into the
// lead name for the chat-ops formatter to unpack, and stores a minimal
// placeholder lead.
type QualifyHandler struct {
	repo     leads.Repository
	notifier dispatch.Dispatcher
	logger   *logging.Logger
}

// NewQualifyHandler creates the qualify intake handler. The notifier is
// typically the Telegram dispatcher; nil disables chat-ops notification.
func NewQualifyHandler(repo leads.Repository, notifier dispatch.Dispatcher, logger *logging.Logger) *QualifyHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &QualifyHandler{repo: repo, notifier: notifier, logger: logger}
}

type qualifyRequest struct {
	Answers map[string]string `json:"answers"`
}

// Submit handles POST /api/qualify.
func (h *QualifyHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req qualifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Answers == nil {
		respondError(w, http.StatusBadRequest, "Missing answers")
		return
	}

	name := strings.TrimSpace(req.Answers["name"])
	ownsHome := strings.TrimSpace(req.Answers["ownsHome"])
	squareFootage := strings.TrimSpace(req.Answers["squareFootage"])
	frequency := strings.TrimSpace(req.Answers["frequency"])
	priority := strings.TrimSpace(req.Answers["priority"])

	if name == "" || ownsHome == "" || squareFootage == "" || frequency == "" || priority == "" {
		respondError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if len(name) > 100 {
		respondError(w, http.StatusBadRequest, "Name is too long")
		return
	}
	if !ownsHomeAllowed[ownsHome] {
		respondError(w, http.StatusBadRequest, "Invalid ownsHome value")
		return
	}
	if !frequencyAllowed[frequency] {
		respondError(w, http.StatusBadRequest, "Invalid frequency value")
		return
	}
	if !priorityAllowed[priority] {
		respondError(w, http.StatusBadRequest, "Invalid priority value")
		return
	}
	if !sqftAllowed[squareFootage] {
		respondError(w, http.StatusBadRequest, "Invalid squareFootage value")
		return
	}

	encodedName := fmt.Sprintf("%s | QUALIFIED: ownsHome=%s; squareFootage=%s; frequency=%s; priority=%s",
		name, ownsHome, squareFootage, frequency, priority)

	lead, err := h.repo.Create(r.Context(), &leads.CreateLeadRequest{
		Name:   encodedName,
		Phone:  "+1 (000) 000-0000",
		Email:  fmt.Sprintf("noemail+qualify-%d@scalinghomeservices.com", time.Now().UnixMilli()),
		Source: "qualify",
	})
	if err != nil {
		h.logger.Error("qualify lead insert failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if h.notifier != nil {
		res := h.notifier.Dispatch(r.Context(), dispatch.Event{
			LeadID: lead.ID,
			Name:   lead.Name,
			Phone:  lead.Phone,
		})
		if res.Status == dispatch.StatusFailed {
			h.logger.Error("qualify notification failed", "error", res.Error)
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"pixel":   map[string]string{"event": "Lead"},
	})
}
