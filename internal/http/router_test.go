package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"collab-transcript-core/internal/models"
	"collab-transcript-core/internal/service/session"
)

func newActiveCoordinator(t *testing.T) *session.Coordinator {
	t.Helper()
	c := session.NewCoordinator(session.DefaultCoordinatorConfig())
	err := c.Start("sess-1", []session.Participant{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob"},
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(c.Stop)

	c.OnFinal("alice", "let's review the budget", 0.95)
	c.OnFinal("bob", "agreed", 0.8)
	return c
}

func TestRouter_Health(t *testing.T) {
	r := NewRouter(session.NewCoordinator(session.DefaultCoordinatorConfig()))

	for _, path := range []string{"/v1/liveness", "/v1/readiness"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRouter_Transcript(t *testing.T) {
	r := NewRouter(newActiveCoordinator(t))

	req := httptest.NewRequest(http.MethodGet, "/v1/transcript", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var segments []models.TranscriptionSegment
	if err := json.Unmarshal(rec.Body.Bytes(), &segments); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if len(segments) != 2 {
		t.Errorf("expected 2 segments, got %d", len(segments))
	}
}

func TestRouter_TranscriptFilters(t *testing.T) {
	r := NewRouter(newActiveCoordinator(t))

	req := httptest.NewRequest(http.MethodGet, "/v1/transcript?q=budget&participant=alice&minConfidence=0.9", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var segments []models.TranscriptionSegment
	if err := json.Unmarshal(rec.Body.Bytes(), &segments); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if len(segments) != 1 || segments[0].ParticipantID != "alice" {
		t.Errorf("unexpected filtered result: %+v", segments)
	}
}

func TestRouter_TranscriptWithoutSession(t *testing.T) {
	r := NewRouter(session.NewCoordinator(session.DefaultCoordinatorConfig()))

	req := httptest.NewRequest(http.MethodGet, "/v1/transcript", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 without a session, got %d", rec.Code)
	}
}

func TestRouter_Export(t *testing.T) {
	r := NewRouter(newActiveCoordinator(t))

	tests := []struct {
		format      string
		status      int
		contentType string
	}{
		{"text", http.StatusOK, "text/plain; charset=utf-8"},
		{"srt", http.StatusOK, "text/plain; charset=utf-8"},
		{"vtt", http.StatusOK, "text/vtt"},
		{"json", http.StatusOK, "application/json"},
		{"docx", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/transcript/export?format="+tt.format, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.contentType != "" && rec.Header().Get("Content-Type") != tt.contentType {
				t.Errorf("expected content type %q, got %q", tt.contentType, rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRouter_SummaryLifecycle(t *testing.T) {
	c := newActiveCoordinator(t)
	r := NewRouter(c)

	req := httptest.NewRequest(http.MethodGet, "/v1/summary", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 before stop, got %d", rec.Code)
	}

	c.Stop()

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after stop, got %d", rec.Code)
	}
	var s models.SessionSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("invalid summary json: %v", err)
	}
	if s.SessionID != "sess-1" || len(s.ParticipantStats) != 2 {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestRouter_Quality(t *testing.T) {
	r := NewRouter(newActiveCoordinator(t))

	req := httptest.NewRequest(http.MethodGet, "/v1/quality", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tier") {
		t.Errorf("expected tier in response, got %s", rec.Body.String())
	}
}
