// Package http exposes the read-side API over the session ledger.
package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"collab-transcript-core/internal/service/export"
	"collab-transcript-core/internal/service/ledger"
	"collab-transcript-core/internal/service/session"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(coordinator *session.Coordinator) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/transcript", handleTranscript(coordinator))
		r.Get("/transcript/export", handleExport(coordinator))
		r.Get("/summary", handleSummary(coordinator))
		r.Get("/quality", handleQuality(coordinator))
	})

	return r
}

func handleTranscript(c *session.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := c.Ledger()
		if l == nil {
			writeError(w, http.StatusConflict, "no session has been started")
			return
		}

		f := ledger.Filter{
			Text:         r.URL.Query().Get("q"),
			Participants: r.URL.Query()["participant"],
		}
		if v := r.URL.Query().Get("minConfidence"); v != "" {
			if conf, err := strconv.ParseFloat(v, 64); err == nil {
				f.MinConfidence = conf
			}
		}
		if v := r.URL.Query().Get("from"); v != "" {
			if from, err := strconv.ParseFloat(v, 64); err == nil {
				f.From = &from
			}
		}
		if v := r.URL.Query().Get("to"); v != "" {
			if to, err := strconv.ParseFloat(v, 64); err == nil {
				f.To = &to
			}
		}
		if v := r.URL.Query().Get("finalOnly"); v != "" {
			f.FinalOnly, _ = strconv.ParseBool(v)
		}

		writeJSON(w, l.Query(f))
	}
}

func handleExport(c *session.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := c.Ledger()
		if l == nil {
			writeError(w, http.StatusConflict, "no session has been started")
			return
		}

		format, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		out, err := export.Export(l, format)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		switch format {
		case export.FormatJSON:
			w.Header().Set("Content-Type", "application/json")
		case export.FormatVTT:
			w.Header().Set("Content-Type", "text/vtt")
		default:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out))
	}
}

func handleSummary(c *session.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s, ok := c.Summary()
		if !ok {
			writeError(w, http.StatusNotFound, "summary not available until the session stops")
			return
		}
		writeJSON(w, s)
	}
}

func handleQuality(c *session.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"tier": c.QualityTier().String()})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
