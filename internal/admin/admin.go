package admin

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/slatedash/slate/internal/metrics"
	"github.com/slatedash/slate/internal/status"
)

// Stats is a snapshot of live dashboard counts, supplied by the server.
type Stats struct {
	Components int `json:"components"`
	Fragments  int `json:"fragments"`
	WSClients  int `json:"ws_clients"`
}

// Handler provides admin API endpoints.
type Handler struct {
	metrics    *metrics.Metrics
	checker    *status.Checker
	statsFunc  func() Stats
	reloadFunc func() error // callback to reload config
	startTime  time.Time
}

func NewHandler(m *metrics.Metrics, checker *status.Checker, statsFunc func() Stats, reloadFunc func() error) *Handler {
	return &Handler{
		metrics:    m,
		checker:    checker,
		statsFunc:  statsFunc,
		reloadFunc: reloadFunc,
		startTime:  time.Now(),
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/admin/status", h.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/admin/reload", h.handleReload).Methods(http.MethodPost)
	r.HandleFunc("/admin/probes", h.handleProbes).Methods(http.MethodGet)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	var stats Stats
	if h.statsFunc != nil {
		stats = h.statsFunc()
	}

	var metricsSnap *metrics.Snapshot
	if h.metrics != nil {
		s := h.metrics.GetSnapshot()
		metricsSnap = &s
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_sec": int(time.Since(h.startTime).Seconds()),
		"components": stats.Components,
		"fragments":  stats.Fragments,
		"ws_clients": stats.WSClients,
		"metrics":    metricsSnap,
	})
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	if h.reloadFunc == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "reload not configured"})
		return
	}

	log.Printf("[admin] Reloading configuration")
	if err := h.reloadFunc(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (h *Handler) handleProbes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.checker.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
