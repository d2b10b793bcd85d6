package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/oomavera/agency/internal/leads"
	"github.com/oomavera/agency/pkg/logging"
)

// Service emails operators about leads worth calling right away.
type Service struct {
	email     EmailSender
	operators []string
	logger    *logging.Logger
}

// NewService creates a notification service. With no sender or no operator
// addresses configured every call is a logged no-op.
func NewService(email EmailSender, operators []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:     email,
		operators: operators,
		logger:    logger,
	}
}

// QualifiedLead emails each operator about a freshly qualified lead.
// Best-effort: failures are logged, never returned to the intake path.
func (s *Service) QualifiedLead(ctx context.Context, lead leads.Lead) {
	if s == nil || s.email == nil || len(s.operators) == 0 {
		return
	}

	subject := fmt.Sprintf("Qualified lead: %s", lead.Name)
	var b strings.Builder
	fmt.Fprintf(&b, "A qualified lead just came in.\n\n")
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Phone: %s\n", lead.Phone)
	if lead.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	}
	if lead.Page != "" {
		fmt.Fprintf(&b, "Page: %s\n", lead.Page)
	}
	if lead.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", lead.Source)
	}
	fmt.Fprintf(&b, "\nCall within 60 seconds for the best contact rate.\n")
	body := b.String()

	for _, to := range s.operators {
		if err := s.email.Send(ctx, EmailMessage{
			To:      to,
			Subject: subject,
			Body:    body,
		}); err != nil {
			s.logger.Error("qualified lead email failed", "to", to, "lead_id", lead.ID, "error", err)
			continue
		}
	}
}
