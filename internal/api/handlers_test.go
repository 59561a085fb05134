package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mindlinks/outreach/internal/config"
	"github.com/mindlinks/outreach/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "outreach.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	cfg := &config.Config{}
	cfg.Campaign.SchedulingLink = "https://calendly.com/testco/demo"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(s, cfg, logger), s
}

func seedContact(t *testing.T, s *store.Store, id int64, status store.Status) {
	t.Helper()
	err := s.PutContact(&store.Contact{
		ID:     id,
		Name:   "Ada Lovelace",
		Email:  "ada@example.com",
		Status: status,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func doRequest(srv *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestInterestedRedirectsAndRecords(t *testing.T) {
	srv, s := newTestServer(t)
	seedContact(t, s, 42, store.StatusPending)

	rec := doRequest(srv, http.MethodGet, "/interested/42")

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://calendly.com/testco/demo" {
		t.Errorf("Location = %q, want scheduling link", loc)
	}

	c, _ := s.GetContact(42)
	if c.Status != store.StatusInterested {
		t.Errorf("Status = %v, want interested", c.Status)
	}
	if c.UpdatedAt == nil {
		t.Error("UpdatedAt not stamped")
	}

	events, _ := s.ListEvents()
	if len(events) != 1 || events[0].Action != store.ActionInterested {
		t.Errorf("events = %+v, want one interested event", events)
	}
	if events[0].ContactEmail != "ada@example.com" {
		t.Errorf("event email = %q", events[0].ContactEmail)
	}
}

func TestInterestedUnknownContactStillRedirects(t *testing.T) {
	srv, s := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/interested/999")

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	events, _ := s.ListEvents()
	if len(events) != 0 {
		t.Error("no event should be recorded for an unknown contact")
	}
}

func TestInterestedMalformedIDStillRedirects(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/interested/abc")

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
}

func TestNotInterested(t *testing.T) {
	srv, s := newTestServer(t)
	seedContact(t, s, 7, store.StatusPending)

	rec := doRequest(srv, http.MethodGet, "/not-interested/7")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Thank You for Your Response") {
		t.Error("thank you page not rendered")
	}

	c, _ := s.GetContact(7)
	if c.Status != store.StatusNotInterested {
		t.Errorf("Status = %v, want not_interested", c.Status)
	}

	events, _ := s.ListEvents()
	if len(events) != 1 || events[0].Action != store.ActionNotInterested {
		t.Errorf("events = %+v, want one not_interested event", events)
	}
}

func TestResponseIsIdempotentOnRepeatClicks(t *testing.T) {
	srv, s := newTestServer(t)
	seedContact(t, s, 1, store.StatusPending)

	doRequest(srv, http.MethodGet, "/interested/1")
	doRequest(srv, http.MethodGet, "/interested/1")

	c, _ := s.GetContact(1)
	if c.Status != store.StatusInterested {
		t.Errorf("Status = %v, want interested", c.Status)
	}
	// Each click is tracked, the status just stays settled
	events, _ := s.ListEvents()
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
}

func TestStats(t *testing.T) {
	srv, s := newTestServer(t)
	seedContact(t, s, 1, store.StatusInterested)
	seedContact(t, s, 2, store.StatusNotInterested)
	seedContact(t, s, 3, store.StatusPending)
	seedContact(t, s, 4, store.StatusPending)
	s.AppendEvent(&store.TrackingEvent{
		ContactID: 1,
		Action:    store.ActionInterested,
		Timestamp: time.Now(),
	})

	rec := doRequest(srv, http.MethodGet, "/stats")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp StatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 4 || resp.Interested != 1 || resp.NotInterested != 1 || resp.Pending != 2 {
		t.Errorf("stats = %+v", resp.CampaignStats)
	}
	if resp.ResponseRate != "50.0%" {
		t.Errorf("ResponseRate = %q, want 50.0%%", resp.ResponseRate)
	}
	if len(resp.RecentResponses) != 1 {
		t.Errorf("got %d recent responses, want 1", len(resp.RecentResponses))
	}
}

func TestStatsEmptyStore(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/stats")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp StatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 0 || resp.ResponseRate != "0%" {
		t.Errorf("stats = %+v", resp.CampaignStats)
	}
	if resp.RecentResponses == nil {
		t.Error("recent_responses should encode as an empty array, not null")
	}
}

func TestContacts(t *testing.T) {
	srv, s := newTestServer(t)
	seedContact(t, s, 1, store.StatusPending)
	seedContact(t, s, 2, store.StatusInterested)

	rec := doRequest(srv, http.MethodGet, "/contacts")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp ContactsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 || len(resp.Contacts) != 2 {
		t.Errorf("got %d/%d contacts, want 2", resp.Total, len(resp.Contacts))
	}
	if resp.Contacts[0].ID != 1 || resp.Contacts[1].ID != 2 {
		t.Error("contacts not in id order")
	}
}

func TestRoot(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp RootResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message == "" {
		t.Error("message should not be empty")
	}
	for _, key := range []string{"interested", "not_interested", "stats", "contacts"} {
		if resp.Endpoints[key] == "" {
			t.Errorf("endpoint index missing %q", key)
		}
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want ok", resp.Status)
	}
}
