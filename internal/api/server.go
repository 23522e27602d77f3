// Package api provides the read-only HTTP API over a profile's statistics.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/realgarit/shinytrack/internal/handoff"
	"github.com/realgarit/shinytrack/internal/stats"
	"github.com/realgarit/shinytrack/internal/stream"
)

// Server serves the statistics endpoints. Every engine read is marshaled
// onto the engine's goroutine through the handoff queue; the server never
// touches the engine directly from a request goroutine.
type Server struct {
	engine    *stats.Engine
	reads     *handoff.Queue
	hub       *stream.Hub
	logger    *slog.Logger
	mux       *http.ServeMux
	limiter   *RateLimiter
	startTime time.Time
}

// NewServer creates the API server. hub may be nil to disable /stream.
func NewServer(engine *stats.Engine, reads *handoff.Queue, hub *stream.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine:    engine,
		reads:     reads,
		hub:       hub,
		logger:    logger,
		mux:       http.NewServeMux(),
		limiter:   NewRateLimiter(20, 100),
		startTime: time.Now(),
	}

	s.mux.HandleFunc("GET /stats", s.getStats)
	s.mux.HandleFunc("GET /encounter_log", s.getEncounterLog)
	s.mux.HandleFunc("GET /shiny_log", s.getShinyLog)
	s.mux.HandleFunc("GET /encounter_rate", s.getEncounterRate)
	s.mux.HandleFunc("GET /export/encounters", s.exportEncounters)
	s.mux.HandleFunc("GET /health", s.healthCheck)
	if hub != nil {
		s.mux.HandleFunc("GET /stream", hub.Handler())
	}

	return s
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.limiter.Middleware(s.mux))
}

// corsMiddleware adds CORS headers for the local dashboard.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" {
			if strings.HasPrefix(origin, "http://localhost") ||
				strings.HasPrefix(origin, "http://127.0.0.1") ||
				strings.HasPrefix(origin, "https://localhost") ||
				strings.HasPrefix(origin, "https://127.0.0.1") {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// callEngine runs fn on the engine goroutine and writes the JSON it
// produced. Stale fallbacks are flagged with response headers so dashboards
// can label outdated figures.
func (s *Server) callEngine(w http.ResponseWriter, key string, fn func() ([]byte, error)) {
	value, stale, err := s.reads.Call(key, func() (any, error) { return fn() })
	if err != nil {
		s.logger.Error("read handoff failed", "key", key, "error", err)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	if stale {
		w.Header().Set("X-Stats-Stale", "true")
		if age, ok := s.reads.Age(key); ok {
			w.Header().Set("X-Stats-Age-Ms", strconv.FormatInt(age.Milliseconds(), 10))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(value.([]byte))
}

// getStats returns the global statistics view.
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	s.callEngine(w, "stats", func() ([]byte, error) {
		return json.Marshal(s.engine.GetGlobalStats())
	})
}

// getEncounterLog returns a page of the persisted encounter log,
// newest first.
func (s *Server) getEncounterLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	key := fmt.Sprintf("encounter_log:%d:%d", limit, offset)
	s.callEngine(w, key, func() ([]byte, error) {
		encounters, err := s.engine.QueryEncounters("", nil, limit, offset)
		if err != nil {
			return nil, err
		}
		total, err := s.engine.CountEncounters("", nil)
		if err != nil {
			return nil, err
		}
		if encounters == nil {
			encounters = []*stats.Encounter{}
		}
		return json.Marshal(map[string]any{
			"encounters": encounters,
			"total":      total,
			"limit":      limit,
			"offset":     offset,
		})
	})
}

// getShinyLog returns every closed shiny phase, newest first.
func (s *Server) getShinyLog(w http.ResponseWriter, r *http.Request) {
	s.callEngine(w, "shiny_log", func() ([]byte, error) {
		phases, err := s.engine.GetShinyLog()
		if err != nil {
			return nil, err
		}
		if phases == nil {
			phases = []*stats.ShinyPhase{}
		}
		return json.Marshal(map[string]any{"shiny_log": phases})
	})
}

// getEncounterRate returns the two rolling encounter-rate estimates.
func (s *Server) getEncounterRate(w http.ResponseWriter, r *http.Request) {
	s.callEngine(w, "encounter_rate", func() ([]byte, error) {
		return json.Marshal(map[string]any{
			"encounters_per_hour":       s.engine.EncounterRate(),
			"encounters_per_hour_at_1x": s.engine.EncounterRateAt1x(),
		})
	})
}

// exportEncounters streams the full encounter log in the requested format
// (ndjson, json or csv).
func (s *Server) exportEncounters(w http.ResponseWriter, r *http.Request) {
	cfg := ParseExportConfig(r)

	value, stale, err := s.reads.Call("export", func() (any, error) {
		return s.engine.QueryEncounters("", nil, cfg.MaxRows, 0)
	})
	if err != nil {
		s.logger.Error("export handoff failed", "error", err)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	encounters := value.([]*stats.Encounter)

	exporter := NewExporter(cfg.Format)
	if stale {
		w.Header().Set("X-Stats-Stale", "true")
	}
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="encounters.%s"`, exporter.FileExtension()))

	if err := exporter.WriteHeader(w); err != nil {
		s.logger.Error("export header failed", "error", err)
		return
	}
	for _, enc := range encounters {
		if err := exporter.WriteEncounter(w, enc); err != nil {
			s.logger.Error("export row failed", "encounter_id", enc.EncounterID, "error", err)
			return
		}
	}
	if err := exporter.WriteFooter(w, len(encounters)); err != nil {
		s.logger.Error("export footer failed", "error", err)
	}
}

// healthCheck reports liveness plus queue and stream gauges. Served
// directly, without the handoff, so it stays responsive when the engine
// loop is busy.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	served, staleHits := s.reads.Stats()

	health := map[string]any{
		"status":       "ok",
		"timestamp":    time.Now().UTC(),
		"uptime":       time.Since(s.startTime).String(),
		"reads_served": served,
		"stale_reads":  staleHits,
	}
	if s.hub != nil {
		health["stream_clients"] = s.hub.ClientCount()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Error("failed to encode health response", "error", err)
	}
}
