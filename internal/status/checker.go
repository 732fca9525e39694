// Package status performs best-effort reachability probes for links
// that opted into health checking. Probes run fan-out/wait-all on an
// interval, independent of any widget refresh cycle.
package status

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/slatedash/slate/internal/config"
	"github.com/slatedash/slate/internal/metrics"
)

const (
	StatusChecking = "checking"
	StatusOnline   = "online"
	StatusOffline  = "offline"
	StatusTimeout  = "timeout"
)

// Result is the last known probe outcome for one URL.
type Result struct {
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	CheckedAt time.Time `json:"checked_at"`
	LatencyMs int64     `json:"latency_ms"`
}

// Checker probes tracked URLs. It owns only its result map and the
// status indicator data; it never touches widget state.
type Checker struct {
	mu      sync.RWMutex
	targets map[string]bool
	results map[string]Result

	client   *http.Client
	timeout  time.Duration
	cacheTTL time.Duration
	interval time.Duration
	metrics  *metrics.Metrics // nil if disabled
}

func NewChecker(cfg config.StatusCheckConfig, m *metrics.Metrics) *Checker {
	return &Checker{
		targets:  make(map[string]bool),
		results:  make(map[string]Result),
		client: &http.Client{
			// Redirects still prove reachability.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout:  time.Duration(cfg.TimeoutSec) * time.Second,
		cacheTTL: time.Duration(cfg.CacheTTLSec) * time.Second,
		interval: time.Duration(cfg.IntervalSec) * time.Second,
		metrics:  m,
	}
}

// Track registers a URL for periodic probing.
func (c *Checker) Track(url string) {
	if url == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.targets[url] {
		c.targets[url] = true
		c.results[url] = Result{URL: url, Status: StatusChecking}
	}
}

// Reset drops all tracked URLs, e.g. before a re-render registers the
// current tree's links again.
func (c *Checker) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets = make(map[string]bool)
	c.results = make(map[string]Result)
}

// Run probes all targets immediately and then on the configured
// interval until the context is cancelled.
func (c *Checker) Run(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll probes every tracked URL concurrently and waits for all
// probes to finish. URLs with a fresh result are skipped.
func (c *Checker) CheckAll(ctx context.Context) {
	c.mu.RLock()
	var due []string
	for url := range c.targets {
		r, ok := c.results[url]
		if ok && r.Status != StatusChecking && time.Since(r.CheckedAt) < c.cacheTTL {
			continue
		}
		due = append(due, url)
	}
	c.mu.RUnlock()

	var wg sync.WaitGroup
	for _, url := range due {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			result := c.probe(ctx, url)

			c.mu.Lock()
			c.results[url] = result
			c.mu.Unlock()

			if c.metrics != nil {
				c.metrics.RecordProbe(result.Status)
			}
			if result.Status != StatusOnline {
				log.Printf("[status] %s is %s", url, result.Status)
			}
		}(url)
	}
	wg.Wait()
}

// probe issues a HEAD request with a hard timeout. Any HTTP response
// counts as reachable; a timeout classifies as "timeout" rather than a
// distinguished error.
func (c *Checker) probe(ctx context.Context, url string) Result {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result := Result{URL: url, CheckedAt: start}

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil)
	if err != nil {
		result.Status = StatusOffline
		return result
	}

	resp, err := c.client.Do(req)
	result.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		if probeCtx.Err() == context.DeadlineExceeded {
			result.Status = StatusTimeout
		} else {
			result.Status = StatusOffline
		}
		return result
	}
	resp.Body.Close()

	result.Status = StatusOnline
	return result
}

// Get returns the last result for a URL.
func (c *Checker) Get(url string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[url]
	return r, ok
}

// Snapshot copies the current result set.
func (c *Checker) Snapshot() map[string]Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := make(map[string]Result, len(c.results))
	for url, r := range c.results {
		snap[url] = r
	}
	return snap
}

// Summary counts tracked URLs by status.
func (c *Checker) Summary() (online, offline, timedOut, checking int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.results {
		switch r.Status {
		case StatusOnline:
			online++
		case StatusOffline:
			offline++
		case StatusTimeout:
			timedOut++
		default:
			checking++
		}
	}
	return online, offline, timedOut, checking
}
