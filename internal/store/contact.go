package store

import (
	"time"
)

// Status represents a contact's position in the campaign lifecycle
type Status string

const (
	StatusPending       Status = "pending"
	StatusInterested    Status = "interested"
	StatusNotInterested Status = "not_interested"
)

// Contact represents a campaign recipient
type Contact struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Company          string     `json:"company,omitempty"`
	Status           Status     `json:"status"`
	ReminderCount    int        `json:"reminder_count"`
	SentAt           *time.Time `json:"sent_at"`
	LastReminderSent *time.Time `json:"last_reminder_sent"`
	UpdatedAt        *time.Time `json:"updated_at"`
}

// Tracking event actions
const (
	ActionEmailSent     = "email_sent"
	ActionInterested    = "interested"
	ActionNotInterested = "not_interested"
)

// TrackingEvent is an immutable record of a send or a recipient response
type TrackingEvent struct {
	ContactID    int64     `json:"contact_id"`
	ContactName  string    `json:"contact_name"`
	ContactEmail string    `json:"contact_email"`
	Action       string    `json:"action"`
	Timestamp    time.Time `json:"timestamp"`
}

// CampaignStats aggregates contact counts and the overall response rate
type CampaignStats struct {
	Total         int64  `json:"total_contacts"`
	Pending       int64  `json:"pending"`
	Interested    int64  `json:"interested"`
	NotInterested int64  `json:"not_interested"`
	ResponseRate  string `json:"response_rate"`
}
