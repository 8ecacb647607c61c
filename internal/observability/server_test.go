package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func probe(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthzAlwaysOK(t *testing.T) {
	s := NewServer(":0", func() bool { return false })

	rec := probe(t, s, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestReadyzFollowsReadiness(t *testing.T) {
	ready := true
	s := NewServer(":0", func() bool { return ready })

	if rec := probe(t, s, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want %d", rec.Code, http.StatusOK)
	}

	ready = false
	rec := probe(t, s, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz status after drain = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if rec.Body.String() != "draining" {
		t.Errorf("readyz body = %q, want %q", rec.Body.String(), "draining")
	}
}

func TestReadyzNilCallback(t *testing.T) {
	s := NewServer(":0", nil)

	if rec := probe(t, s, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer(":0", nil)

	rec := probe(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.Len() == 0 {
		t.Error("metrics body is empty")
	}
}
