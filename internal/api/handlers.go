package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindlinks/outreach/internal/metrics"
	"github.com/mindlinks/outreach/internal/store"
)

// StatsResponse is the response for GET /stats
type StatsResponse struct {
	store.CampaignStats
	RecentResponses []*store.TrackingEvent `json:"recent_responses"`
}

// ContactsResponse is the response for GET /contacts
type ContactsResponse struct {
	Contacts []*store.Contact `json:"contacts"`
	Total    int              `json:"total"`
}

// RootResponse is the response for GET /
type RootResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// ErrorResponse is the error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleInterested handles GET /interested/{id}. A click always lands
// on the scheduling page, even when recording the response fails.
func (s *Server) handleInterested(w http.ResponseWriter, r *http.Request) {
	id := s.contactID(r)
	if id > 0 {
		s.recordResponse(id, store.ActionInterested, store.StatusInterested)
	}
	http.Redirect(w, r, s.config.Campaign.SchedulingLink, http.StatusFound)
}

// handleNotInterested handles GET /not-interested/{id}
func (s *Server) handleNotInterested(w http.ResponseWriter, r *http.Request) {
	id := s.contactID(r)
	if id > 0 {
		s.recordResponse(id, store.ActionNotInterested, store.StatusNotInterested)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(thankYouPage))
}

// recordResponse flips the contact status and appends a tracking
// event. Failures are logged only: the click routes must never error
// out at the visitor.
func (s *Server) recordResponse(id int64, action string, status store.Status) {
	contact, err := s.store.GetContact(id)
	if err != nil {
		s.logger.Error("failed to load contact", "contact_id", id, "error", err)
		return
	}
	if contact == nil {
		s.logger.Warn("response for unknown contact", "contact_id", id, "action", action)
		return
	}

	err = s.store.UpdateContact(id, func(c *store.Contact) error {
		now := time.Now()
		c.Status = status
		c.UpdatedAt = &now
		return nil
	})
	if err != nil {
		s.logger.Error("failed to update contact status",
			"contact_id", id, "status", status, "error", err)
		return
	}

	event := &store.TrackingEvent{
		ContactID:    contact.ID,
		ContactName:  contact.Name,
		ContactEmail: contact.Email,
		Action:       action,
		Timestamp:    time.Now(),
	}
	if err := s.store.AppendEvent(event); err != nil {
		s.logger.Error("failed to append tracking event", "contact_id", id, "error", err)
	}

	metrics.IncResponses(action)
	s.logger.Info("response recorded", "contact_id", id, "action", action)
}

// handleStats handles GET /stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.CampaignStats()
	if err != nil {
		s.logger.Error("failed to compute stats", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	recent, err := s.store.RecentEvents(10)
	if err != nil {
		s.logger.Error("failed to load recent events", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to load recent events")
		return
	}
	if recent == nil {
		recent = []*store.TrackingEvent{}
	}

	s.sendJSON(w, http.StatusOK, StatsResponse{
		CampaignStats:   *stats,
		RecentResponses: recent,
	})
}

// handleContacts handles GET /contacts
func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.store.ListContacts()
	if err != nil {
		s.logger.Error("failed to list contacts", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list contacts")
		return
	}
	if contacts == nil {
		contacts = []*store.Contact{}
	}

	s.sendJSON(w, http.StatusOK, ContactsResponse{
		Contacts: contacts,
		Total:    len(contacts),
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, RootResponse{
		Message: "Outreach API is running!",
		Endpoints: map[string]string{
			"interested":     "/interested/{contact_id}",
			"not_interested": "/not-interested/{contact_id}",
			"stats":          "/stats",
			"contacts":       "/contacts",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) contactID(r *http.Request) int64 {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.logger.Warn("invalid contact id in click URL", "id", raw)
		return 0
	}
	return id
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}
