package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/oomavera/agency/internal/followup"
	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/pkg/logging"
)

// CancelSMSHandler resolves a lead's pending follow-up text. GET serves a
// human-readable confirmation page for the chat-ops button; POST serves
// JSON for programmatic callers.
type CancelSMSHandler struct {
	canceller *followup.Canceller
	logger    *logging.Logger
}

// NewCancelSMSHandler creates the cancellation handler.
func NewCancelSMSHandler(canceller *followup.Canceller, logger *logging.Logger) *CancelSMSHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CancelSMSHandler{canceller: canceller, logger: logger}
}

// CancelFromLink handles GET /api/cancel-sms?leadId=..&action=cancel.
func (h *CancelSMSHandler) CancelFromLink(w http.ResponseWriter, r *http.Request) {
	leadID := r.URL.Query().Get("leadId")
	if leadID == "" {
		writeHTMLPage(w, http.StatusBadRequest, "#ef4444", "Error", "Lead ID is required", "")
		return
	}
	if r.URL.Query().Get("action") != "cancel" {
		writeHTMLPage(w, http.StatusBadRequest, "#ef4444", "Error", "Invalid action", "")
		return
	}

	res, err := h.canceller.Cancel(r.Context(), leadID)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			writeHTMLPage(w, http.StatusNotFound, "#ef4444", "Error", "Lead not found", "")
			return
		}
		h.logger.Error("cancel sms failed", "lead_id", leadID, "error", err)
		writeHTMLPage(w, http.StatusInternalServerError, "#ef4444", "Error", "An unexpected error occurred. Please try again.", "")
		return
	}

	switch res.Outcome {
	case followup.OutcomeCancelled:
		info := fmt.Sprintf("<strong>Lead:</strong> %s<br><strong>Phone:</strong> %s",
			html.EscapeString(res.LeadName), html.EscapeString(res.LeadPhone))
		writeHTMLPage(w, http.StatusOK, "#22c55e", "SMS Canceled",
			"The scheduled text message has been successfully canceled.", info)
	default:
		writeHTMLPage(w, http.StatusOK, "#f59e0b", "SMS Not Found", html.EscapeString(res.Message), "")
	}
}

type cancelSMSRequest struct {
	LeadID string `json:"leadId"`
}

// CancelFromAPI handles POST /api/cancel-sms with a JSON body.
func (h *CancelSMSHandler) CancelFromAPI(w http.ResponseWriter, r *http.Request) {
	var req cancelSMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LeadID == "" {
		respondError(w, http.StatusBadRequest, "Lead ID is required")
		return
	}

	res, err := h.canceller.Cancel(r.Context(), req.LeadID)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			respondJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Lead not found"})
			return
		}
		h.logger.Error("cancel sms failed", "lead_id", req.LeadID, "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Internal server error"})
		return
	}

	payload := map[string]any{
		"success": res.Outcome == followup.OutcomeCancelled,
		"message": res.Message,
	}
	switch res.Outcome {
	case followup.OutcomeCancelled:
		payload["leadName"] = res.LeadName
		payload["leadPhone"] = res.LeadPhone
	case followup.OutcomeAlreadySent:
		payload["alreadySent"] = true
	}
	respondJSON(w, http.StatusOK, payload)
}

const cancelPageTemplate = `<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
      body { font-family: system-ui; text-align: center; padding: 40px; background: #f5f5f5; }
      .card { background: white; padding: 30px; border-radius: 10px; max-width: 400px; margin: 0 auto; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
      h1 { color: %s; margin: 0 0 10px; }
      p { color: #666; line-height: 1.5; }
      .info { background: #f0f9ff; padding: 15px; border-radius: 5px; margin-top: 20px; }
      .hint { margin-top: 20px; color: #999; font-size: 14px; }
    </style>
  </head>
  <body>
    <div class="card">
      <h1>%s</h1>
      <p>%s</p>
      %s
      <p class="hint">You can close this tab now.</p>
    </div>
  </body>
</html>`

func writeHTMLPage(w http.ResponseWriter, status int, color, title, message, info string) {
	if info != "" {
		info = `<div class="info">` + info + `</div>`
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, cancelPageTemplate, color, html.EscapeString(title), message, info)
}
