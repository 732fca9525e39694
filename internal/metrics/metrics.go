package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects dashboard counters. Scalar counters use atomics;
// per-widget maps are guarded by the mutex.
type Metrics struct {
	RequestsTotal  int64
	ErrorsTotal    int64
	WidgetRefresh  int64
	FetchErrors    int64
	CacheHits      int64
	CacheMisses    int64
	ProbesOnline   int64
	ProbesOffline  int64
	ProbesTimedOut int64

	mu              sync.RWMutex
	RefreshByWidget map[string]*int64

	startTime time.Time
}

func New() *Metrics {
	return &Metrics{
		RefreshByWidget: make(map[string]*int64),
		startTime:       time.Now(),
	}
}

// RecordRequest counts a completed HTTP request.
func (m *Metrics) RecordRequest(isError bool) {
	atomic.AddInt64(&m.RequestsTotal, 1)
	if isError {
		atomic.AddInt64(&m.ErrorsTotal, 1)
	}
}

// RecordRefresh counts a widget render cycle (initial or timed).
func (m *Metrics) RecordRefresh(widgetType string) {
	atomic.AddInt64(&m.WidgetRefresh, 1)

	m.mu.Lock()
	counter, ok := m.RefreshByWidget[widgetType]
	if !ok {
		counter = new(int64)
		m.RefreshByWidget[widgetType] = counter
	}
	m.mu.Unlock()
	atomic.AddInt64(counter, 1)
}

// RecordFetchError counts a failed upstream fetch.
func (m *Metrics) RecordFetchError() { atomic.AddInt64(&m.FetchErrors, 1) }

func (m *Metrics) RecordCacheHit()  { atomic.AddInt64(&m.CacheHits, 1) }
func (m *Metrics) RecordCacheMiss() { atomic.AddInt64(&m.CacheMisses, 1) }

// RecordProbe counts a status probe outcome.
func (m *Metrics) RecordProbe(status string) {
	switch status {
	case "online":
		atomic.AddInt64(&m.ProbesOnline, 1)
	case "timeout":
		atomic.AddInt64(&m.ProbesTimedOut, 1)
	default:
		atomic.AddInt64(&m.ProbesOffline, 1)
	}
}

// Handler serves the counters in Prometheus text exposition format.
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		uptime := time.Since(m.startTime).Seconds()
		fmt.Fprintf(w, "# HELP slate_uptime_seconds Dashboard uptime in seconds\n")
		fmt.Fprintf(w, "slate_uptime_seconds %f\n\n", uptime)

		fmt.Fprintf(w, "# HELP slate_requests_total Total number of HTTP requests\n")
		fmt.Fprintf(w, "# TYPE slate_requests_total counter\n")
		fmt.Fprintf(w, "slate_requests_total %d\n\n", atomic.LoadInt64(&m.RequestsTotal))

		fmt.Fprintf(w, "# HELP slate_errors_total Total number of HTTP errors\n")
		fmt.Fprintf(w, "# TYPE slate_errors_total counter\n")
		fmt.Fprintf(w, "slate_errors_total %d\n\n", atomic.LoadInt64(&m.ErrorsTotal))

		fmt.Fprintf(w, "# HELP slate_widget_refresh_total Widget render cycles\n")
		fmt.Fprintf(w, "# TYPE slate_widget_refresh_total counter\n")
		fmt.Fprintf(w, "slate_widget_refresh_total %d\n\n", atomic.LoadInt64(&m.WidgetRefresh))

		fmt.Fprintf(w, "# HELP slate_fetch_errors_total Failed upstream fetches\n")
		fmt.Fprintf(w, "# TYPE slate_fetch_errors_total counter\n")
		fmt.Fprintf(w, "slate_fetch_errors_total %d\n\n", atomic.LoadInt64(&m.FetchErrors))

		fmt.Fprintf(w, "# HELP slate_cache_hits_total Cache hits\n")
		fmt.Fprintf(w, "# TYPE slate_cache_hits_total counter\n")
		fmt.Fprintf(w, "slate_cache_hits_total %d\n\n", atomic.LoadInt64(&m.CacheHits))

		fmt.Fprintf(w, "# HELP slate_cache_misses_total Cache misses\n")
		fmt.Fprintf(w, "# TYPE slate_cache_misses_total counter\n")
		fmt.Fprintf(w, "slate_cache_misses_total %d\n\n", atomic.LoadInt64(&m.CacheMisses))

		fmt.Fprintf(w, "# HELP slate_probes_total Status probe outcomes\n")
		fmt.Fprintf(w, "# TYPE slate_probes_total counter\n")
		fmt.Fprintf(w, "slate_probes_total{result=\"online\"} %d\n", atomic.LoadInt64(&m.ProbesOnline))
		fmt.Fprintf(w, "slate_probes_total{result=\"offline\"} %d\n", atomic.LoadInt64(&m.ProbesOffline))
		fmt.Fprintf(w, "slate_probes_total{result=\"timeout\"} %d\n\n", atomic.LoadInt64(&m.ProbesTimedOut))

		fmt.Fprintf(w, "# HELP slate_widget_refresh_by_type_total Render cycles per widget type\n")
		fmt.Fprintf(w, "# TYPE slate_widget_refresh_by_type_total counter\n")
		m.mu.RLock()
		for widgetType, counter := range m.RefreshByWidget {
			fmt.Fprintf(w, "slate_widget_refresh_by_type_total{widget=%q} %d\n", widgetType, atomic.LoadInt64(counter))
		}
		m.mu.RUnlock()
	}
}

// Snapshot is a JSON-friendly summary for the admin endpoint.
type Snapshot struct {
	Uptime         float64          `json:"uptime_seconds"`
	RequestsTotal  int64            `json:"requests_total"`
	ErrorsTotal    int64            `json:"errors_total"`
	WidgetRefresh  int64            `json:"widget_refresh_total"`
	FetchErrors    int64            `json:"fetch_errors_total"`
	CacheHits      int64            `json:"cache_hits"`
	CacheMisses    int64            `json:"cache_misses"`
	ProbesOnline   int64            `json:"probes_online"`
	ProbesOffline  int64            `json:"probes_offline"`
	ProbesTimedOut int64            `json:"probes_timed_out"`
	ByWidget       map[string]int64 `json:"refresh_by_widget"`
}

func (m *Metrics) GetSnapshot() Snapshot {
	snap := Snapshot{
		Uptime:         time.Since(m.startTime).Seconds(),
		RequestsTotal:  atomic.LoadInt64(&m.RequestsTotal),
		ErrorsTotal:    atomic.LoadInt64(&m.ErrorsTotal),
		WidgetRefresh:  atomic.LoadInt64(&m.WidgetRefresh),
		FetchErrors:    atomic.LoadInt64(&m.FetchErrors),
		CacheHits:      atomic.LoadInt64(&m.CacheHits),
		CacheMisses:    atomic.LoadInt64(&m.CacheMisses),
		ProbesOnline:   atomic.LoadInt64(&m.ProbesOnline),
		ProbesOffline:  atomic.LoadInt64(&m.ProbesOffline),
		ProbesTimedOut: atomic.LoadInt64(&m.ProbesTimedOut),
		ByWidget:       make(map[string]int64),
	}
	m.mu.RLock()
	for widgetType, counter := range m.RefreshByWidget {
		snap.ByWidget[widgetType] = atomic.LoadInt64(counter)
	}
	m.mu.RUnlock()
	return snap
}
