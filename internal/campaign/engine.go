package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mindlinks/outreach/internal/metrics"
	"github.com/mindlinks/outreach/internal/scheduler"
	"github.com/mindlinks/outreach/internal/store"
)

// Notifier sends campaign messages to a contact
type Notifier interface {
	SendInitial(ctx context.Context, contact *store.Contact) error
	SendReminder(ctx context.Context, contact *store.Contact, ordinal int) error
}

// JobScheduler persists reminder jobs for later firing
type JobScheduler interface {
	Schedule(job *scheduler.Job) error
}

// Config contains campaign engine settings
type Config struct {
	MaxReminders int
	SendDelay    time.Duration
}

// Result summarizes one campaign run
type Result struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// Engine drives the contact lifecycle: initial sends, timed reminder
// chains, and auto-resolution at the reminder cap.
type Engine struct {
	store        *store.Store
	notifier     Notifier
	scheduler    JobScheduler
	maxReminders int
	sendDelay    time.Duration
	logger       *slog.Logger
}

// NewEngine creates a campaign engine
func NewEngine(s *store.Store, n Notifier, js JobScheduler, cfg Config, logger *slog.Logger) *Engine {
	if cfg.MaxReminders <= 0 {
		cfg.MaxReminders = 3
	}
	return &Engine{
		store:        s,
		notifier:     n,
		scheduler:    js,
		maxReminders: cfg.MaxReminders,
		sendDelay:    cfg.SendDelay,
		logger:       logger,
	}
}

// Run sends the initial campaign email to every pending contact.
// Tracking events are appended per successful send; contact updates are
// persisted in one batch transaction after the whole pass, re-reading
// each record so a response click landing mid-pass is never clobbered.
func (e *Engine) Run(ctx context.Context, interval time.Duration) (*Result, error) {
	contacts, err := e.store.ListContacts()
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}

	var pending []*store.Contact
	for _, c := range contacts {
		if c.Status == store.StatusPending {
			pending = append(pending, c)
		}
	}

	result := &Result{Total: len(pending)}
	if len(pending) == 0 {
		e.logger.Info("no pending contacts to send to")
		return result, nil
	}

	e.logger.Info("starting campaign",
		"pending_contacts", len(pending),
		"reminder_interval", interval,
	)
	metrics.IncCampaignRuns()

	var sentIDs []int64
	sentAt := make(map[int64]time.Time)
	for i, contact := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := e.notifier.SendInitial(ctx, contact); err != nil {
			// Contact stays unmodified; no retry within this pass
			result.Failed++
			metrics.IncSendFailures()
			continue
		}

		now := time.Now()
		sentIDs = append(sentIDs, contact.ID)
		sentAt[contact.ID] = now
		result.Succeeded++
		metrics.IncEmailsSent()

		if err := e.store.AppendEvent(&store.TrackingEvent{
			ContactID:    contact.ID,
			ContactName:  contact.Name,
			ContactEmail: contact.Email,
			Action:       store.ActionEmailSent,
			Timestamp:    now,
		}); err != nil {
			e.logger.Error("failed to append tracking event", "contact_id", contact.ID, "error", err)
		}

		e.scheduleReminder(contact.ID, 1, now.Add(interval), interval)

		e.logger.Info("email sent",
			"contact_id", contact.ID,
			"contact_email", contact.Email,
			"next_reminder_at", now.Add(interval),
		)

		// Avoid hammering the relay
		if e.sendDelay > 0 && i < len(pending)-1 {
			select {
			case <-ctx.Done():
				break
			case <-time.After(e.sendDelay):
			}
		}
	}

	if len(sentIDs) > 0 {
		err := e.store.UpdateContacts(sentIDs, func(c *store.Contact) error {
			if c.Status != store.StatusPending {
				// Responded while the pass was still sending; keep the answer
				return store.ErrSkip
			}
			ts := sentAt[c.ID]
			c.SentAt = &ts
			c.UpdatedAt = &ts
			c.ReminderCount = 0
			return nil
		})
		if err != nil {
			return result, fmt.Errorf("failed to persist contacts: %w", err)
		}
	}

	e.logger.Info("campaign finished",
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"total", result.Total,
	)

	return result, nil
}

// HandleJob adapts the engine to the scheduler callback
func (e *Engine) HandleJob(ctx context.Context, job *scheduler.Job) {
	e.FireReminder(ctx, job.ContactID, job.Interval)
}

// FireReminder runs one step of a contact's reminder chain. A contact that
// is missing or no longer pending makes the fire a no-op; a contact at the
// reminder cap is auto-marked not_interested; otherwise one reminder is
// sent and the next job is scheduled. The successor job is scheduled even
// after the final reminder so the cap check gets a chance to run.
func (e *Engine) FireReminder(ctx context.Context, contactID int64, interval time.Duration) {
	contact, err := e.store.GetContact(contactID)
	if err != nil {
		e.logger.Error("failed to reload contact", "contact_id", contactID, "error", err)
		return
	}
	if contact == nil || contact.Status != store.StatusPending {
		// Already resolved or removed; the in-flight timer becomes a no-op
		e.logger.Debug("reminder skipped, contact not pending", "contact_id", contactID)
		return
	}

	if contact.ReminderCount >= e.maxReminders {
		// Silence after the cap is treated as disinterest
		err := e.store.UpdateContact(contactID, func(c *store.Contact) error {
			if c.Status != store.StatusPending {
				return nil
			}
			now := time.Now()
			c.Status = store.StatusNotInterested
			c.UpdatedAt = &now
			return nil
		})
		if err != nil {
			e.logger.Error("failed to auto-resolve contact", "contact_id", contactID, "error", err)
			return
		}
		metrics.IncAutoResolved()
		e.logger.Info("max reminders reached, contact marked not_interested",
			"contact_id", contactID,
			"max_reminders", e.maxReminders,
		)
		return
	}

	ordinal := contact.ReminderCount + 1
	if err := e.notifier.SendReminder(ctx, contact, ordinal); err != nil {
		// A failed reminder send ends this contact's chain; no reschedule
		metrics.IncSendFailures()
		e.logger.Error("reminder send failed, chain stopped",
			"contact_id", contactID,
			"ordinal", ordinal,
			"error", err,
		)
		return
	}

	now := time.Now()
	var newCount int
	err = e.store.UpdateContact(contactID, func(c *store.Contact) error {
		if c.Status != store.StatusPending {
			return store.ErrSkip
		}
		c.ReminderCount++
		newCount = c.ReminderCount
		c.LastReminderSent = &now
		c.UpdatedAt = &now
		return nil
	})
	if errors.Is(err, store.ErrSkip) {
		// A response landed between the reload and this write
		e.logger.Debug("contact responded during reminder send", "contact_id", contactID)
		return
	}
	if err != nil {
		e.logger.Error("failed to persist reminder count", "contact_id", contactID, "error", err)
		return
	}

	if err := e.store.AppendEvent(&store.TrackingEvent{
		ContactID:    contact.ID,
		ContactName:  contact.Name,
		ContactEmail: contact.Email,
		Action:       fmt.Sprintf("reminder_%d_sent", newCount),
		Timestamp:    now,
	}); err != nil {
		e.logger.Error("failed to append tracking event", "contact_id", contactID, "error", err)
	}

	metrics.IncRemindersSent(newCount)
	e.logger.Info("reminder sent",
		"contact_id", contactID,
		"ordinal", newCount,
		"next_fire_at", now.Add(interval),
	)

	e.scheduleReminder(contactID, newCount+1, now.Add(interval), interval)
}

func (e *Engine) scheduleReminder(contactID int64, ordinal int, fireAt time.Time, interval time.Duration) {
	job := &scheduler.Job{
		ID:        fmt.Sprintf("reminder_%d_%d", contactID, ordinal),
		ContactID: contactID,
		Ordinal:   ordinal,
		FireAt:    fireAt,
		Interval:  interval,
	}
	if err := e.scheduler.Schedule(job); err != nil {
		e.logger.Error("failed to schedule reminder job",
			"contact_id", contactID,
			"ordinal", ordinal,
			"error", err,
		)
	}
}
