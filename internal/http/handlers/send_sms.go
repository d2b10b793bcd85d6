package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/internal/observability/metrics"
	"github.com/oomavera/agency/internal/openphone"
	"github.com/oomavera/agency/pkg/logging"
)

const smsTemplate = "Hey %s this is Elias with Scaling Home Services.\n\n" +
	"I just saw your online request.\n\n" +
	"Would you prefer a Deep cleaning? Or consistent standard cleanings?"

// SendSMSHandler is the target of the delayed queue: it sends the follow-up
// text exactly once. The queue owns any retry policy.
type SendSMSHandler struct {
	client       *openphone.Client
	fromNumberID string
	metrics      *metrics.DispatchMetrics
	logger       *logging.Logger
}

// NewSendSMSHandler creates the send-SMS handler.
func NewSendSMSHandler(client *openphone.Client, fromNumberID string, m *metrics.DispatchMetrics, logger *logging.Logger) *SendSMSHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SendSMSHandler{
		client:       client,
		fromNumberID: fromNumberID,
		metrics:      m,
		logger:       logger,
	}
}

type sendSMSRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Send handles POST /api/send-sms.
func (h *SendSMSHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendSMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.client == nil || h.fromNumberID == "" {
		h.logger.Error("sms send requested without OpenPhone configuration")
		respondError(w, http.StatusInternalServerError, "API key not configured")
		return
	}

	if req.Phone == "" {
		h.observe("rejected")
		respondError(w, http.StatusBadRequest, "Phone number is required")
		return
	}
	digits := leads.DigitsOnly(req.Phone)
	if len(digits) < 10 || len(digits) > 11 {
		h.observe("rejected")
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Invalid phone number - must be 10 or 11 digits",
			"phone": req.Phone,
		})
		return
	}

	formatted, _ := leads.NormalizeE164(req.Phone)
	firstName := leads.FirstName(req.Name, "there")
	message := fmt.Sprintf(smsTemplate, firstName)

	resp, err := h.client.SendMessage(r.Context(), openphone.MessageRequest{
		From:    h.fromNumberID,
		To:      []string{formatted},
		Content: message,
	})
	if err != nil {
		h.observe("failed")
		status, ok := openphone.StatusCode(err)
		if !ok {
			h.logger.Error("sms send failed", "phone", leads.RedactPhone(formatted), "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to send SMS")
			return
		}
		h.logger.Error("sms provider rejected send",
			"phone", leads.RedactPhone(formatted),
			"status", status,
		)
		respondJSON(w, status, map[string]any{
			"error":   "Failed to send SMS",
			"details": openphone.ErrorBody(err),
			"phone":   formatted,
			"status":  status,
		})
		return
	}

	h.observe("sent")
	h.logger.Info("follow-up sms sent", "phone", leads.RedactPhone(formatted), "message_id", resp.ID)
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    resp,
	})
}

func (h *SendSMSHandler) observe(status string) {
	if h.metrics != nil {
		h.metrics.ObserveSMS(status)
	}
}
