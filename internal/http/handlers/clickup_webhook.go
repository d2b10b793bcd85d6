package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/oomavera/agency/internal/metacapi"
	"github.com/oomavera/agency/pkg/logging"
)

var (
	emailExtractRe = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
	phoneExtractRe = regexp.MustCompile(`\+?[\d\-\.\s\(\)]{8,}`)
)

// ClickUpWebhookHandler consumes task-status webhooks from the CRM board.
// A task moved to an unqualified status fires a disqualification event back
// to the ad platform so its optimization stops chasing similar leads.
type ClickUpWebhookHandler struct {
	sharedSecret string
	meta         *metacapi.Client
	logger       *logging.Logger
}

// NewClickUpWebhookHandler creates the webhook handler. An empty shared
// secret disables header verification; a nil meta client logs and skips.
func NewClickUpWebhookHandler(sharedSecret string, meta *metacapi.Client, logger *logging.Logger) *ClickUpWebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ClickUpWebhookHandler{sharedSecret: sharedSecret, meta: meta, logger: logger}
}

// webhookPayload mirrors the loosely shaped task body ClickUp posts. Every
// field is optional.
type webhookPayload struct {
	Task *webhookTask `json:"task"`
}

type webhookTask struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Status *struct {
		Status string `json:"status"`
	} `json:"status"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
	TextContent string `json:"text_content"`
	Description string `json:"description"`
}

// Handle handles POST /api/webhooks/clickup.
func (h *ClickUpWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.sharedSecret != "" {
		token := r.Header.Get("x-clickup-token")
		if token == "" {
			token = r.Header.Get("x-shared-secret")
		}
		if token != h.sharedSecret {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
	}

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	task := payload.Task
	if task == nil || !isUnqualified(task) {
		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "skipped": true})
		return
	}

	description := task.TextContent
	if description == "" {
		description = task.Description
	}
	email, phone := extractContact(description)

	if h.meta == nil {
		h.logger.Warn("disqualification event skipped: Meta not configured", "task_id", task.ID)
		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "skipped": true})
		return
	}

	err := h.meta.SendEvent(r.Context(), metacapi.Event{
		Name:       metacapi.EventLeadDisqualified,
		EventID:    task.ID,
		ExternalID: task.ID,
		Email:      email,
		Phone:      phone,
		SourceURL:  task.URL,
		LeadSource: "clickup-unqualified",
	})
	if err != nil {
		h.logger.Error("disqualification event failed", "task_id", task.ID, "error", err)
	}

	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "processed": true})
}

func isUnqualified(task *webhookTask) bool {
	status := ""
	if task.Status != nil {
		status = strings.ToLower(task.Status.Status)
	}
	if status == "unqualified" || status == "red flag" {
		return true
	}
	for _, tag := range task.Tags {
		name := strings.ToLower(tag.Name)
		if name == "unqualified" || name == "red-flag" {
			return true
		}
	}
	return false
}

func extractContact(text string) (email, phone string) {
	email = emailExtractRe.FindString(text)
	phone = phoneExtractRe.FindString(text)
	return email, phone
}
