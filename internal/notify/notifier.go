package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mindlinks/outreach/internal/mailer"
	"github.com/mindlinks/outreach/internal/store"
	"github.com/mindlinks/outreach/internal/template"
)

// Config holds the sender identity and link settings for outbound mail
type Config struct {
	SenderName  string
	SenderEmail string
	CompanyName string
	ProductName string
	BaseURL     string
	Subject     string
}

// Notifier renders campaign messages and hands them to the mail transport.
// Transport failures are logged and returned as values; they never escape
// as panics.
type Notifier struct {
	engine *template.Engine
	sender mailer.Sender
	cfg    Config
	logger *slog.Logger
}

// New creates a notifier
func New(engine *template.Engine, sender mailer.Sender, cfg Config, logger *slog.Logger) *Notifier {
	if cfg.Subject == "" {
		cfg.Subject = fmt.Sprintf("Let's Schedule a Demo - %s", cfg.CompanyName)
	}
	return &Notifier{
		engine: engine,
		sender: sender,
		cfg:    cfg,
		logger: logger,
	}
}

// SendInitial sends the first campaign email to a contact
func (n *Notifier) SendInitial(ctx context.Context, contact *store.Contact) error {
	return n.send(ctx, contact, 0)
}

// SendReminder sends a follow-up email with the given reminder ordinal
func (n *Notifier) SendReminder(ctx context.Context, contact *store.Contact, ordinal int) error {
	return n.send(ctx, contact, ordinal)
}

func (n *Notifier) send(ctx context.Context, contact *store.Contact, ordinal int) error {
	vars := template.Vars{
		ContactName:       contact.Name,
		ContactEmail:      contact.Email,
		ContactCompany:    contact.Company,
		CompanyName:       n.cfg.CompanyName,
		ProductName:       n.cfg.ProductName,
		SenderName:        n.cfg.SenderName,
		InterestedLink:    n.trackingLink("interested", contact.ID),
		NotInterestedLink: n.trackingLink("not-interested", contact.ID),
		IsReminder:        ordinal > 0,
		ReminderNumber:    ordinal,
	}

	html, err := n.engine.Render(vars)
	if err != nil {
		n.logger.Error("failed to render template",
			"contact_id", contact.ID,
			"error", err,
		)
		return err
	}

	subject, err := n.engine.RenderSubject(n.cfg.Subject, vars)
	if err != nil {
		n.logger.Warn("failed to render subject, using it verbatim",
			"subject", n.cfg.Subject,
			"error", err,
		)
		subject = n.cfg.Subject
	}
	if ordinal > 0 {
		subject = fmt.Sprintf("Reminder %d: %s", ordinal, subject)
	}

	msg := &mailer.Message{
		FromName: n.cfg.SenderName,
		From:     n.cfg.SenderEmail,
		To:       contact.Email,
		Subject:  subject,
		HTML:     html,
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Error("failed to send email",
			"contact_id", contact.ID,
			"contact_email", contact.Email,
			"reminder", ordinal,
			"error", err,
		)
		return err
	}

	return nil
}

func (n *Notifier) trackingLink(action string, contactID int64) string {
	return fmt.Sprintf("%s/%s/%d", strings.TrimRight(n.cfg.BaseURL, "/"), action, contactID)
}
