package status

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/slatedash/slate/internal/config"
)

func testChecker(timeoutSec int) *Checker {
	return NewChecker(config.StatusCheckConfig{
		IntervalSec: 60,
		TimeoutSec:  timeoutSec,
		CacheTTLSec: 60,
	}, nil)
}

func TestProbeOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testChecker(5)
	c.Track(srv.URL)
	c.CheckAll(context.Background())

	r, ok := c.Get(srv.URL)
	if !ok {
		t.Fatal("no result recorded")
	}
	if r.Status != StatusOnline {
		t.Errorf("status = %q, want online", r.Status)
	}
}

func TestProbeErrorStatusStillOnline(t *testing.T) {
	// A 500 proves the service is reachable.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testChecker(5)
	c.Track(srv.URL)
	c.CheckAll(context.Background())

	if r, _ := c.Get(srv.URL); r.Status != StatusOnline {
		t.Errorf("status = %q, want online", r.Status)
	}
}

func TestProbeOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := testChecker(5)
	c.Track(srv.URL)
	c.CheckAll(context.Background())

	if r, _ := c.Get(srv.URL); r.Status != StatusOffline {
		t.Errorf("status = %q, want offline", r.Status)
	}
}

func TestProbeTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	c := testChecker(1)
	c.Track(srv.URL)
	c.CheckAll(context.Background())

	if r, _ := c.Get(srv.URL); r.Status != StatusTimeout {
		t.Errorf("status = %q, want timeout", r.Status)
	}
}

func TestTrackStartsAsChecking(t *testing.T) {
	c := testChecker(5)
	c.Track("http://example.invalid")

	r, ok := c.Get("http://example.invalid")
	if !ok || r.Status != StatusChecking {
		t.Fatalf("result = %+v, %v", r, ok)
	}
}

func TestFreshResultsAreSkipped(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := testChecker(5)
	c.Track(srv.URL)
	c.CheckAll(context.Background())
	c.CheckAll(context.Background()) // within cache TTL

	if hits != 1 {
		t.Errorf("probe ran %d times, want 1", hits)
	}
}

func TestSummaryCounts(t *testing.T) {
	c := testChecker(5)
	c.mu.Lock()
	c.results = map[string]Result{
		"a": {Status: StatusOnline},
		"b": {Status: StatusOnline},
		"c": {Status: StatusOffline},
		"d": {Status: StatusTimeout},
		"e": {Status: StatusChecking},
	}
	c.mu.Unlock()

	online, offline, timedOut, checking := c.Summary()
	if online != 2 || offline != 1 || timedOut != 1 || checking != 1 {
		t.Errorf("summary = %d/%d/%d/%d", online, offline, timedOut, checking)
	}
}

func TestResetDropsTargets(t *testing.T) {
	c := testChecker(5)
	c.Track("http://one.local")
	c.Reset()

	if _, ok := c.Get("http://one.local"); ok {
		t.Fatal("reset should drop results")
	}
	if len(c.Snapshot()) != 0 {
		t.Fatal("snapshot should be empty after reset")
	}
}

func TestProbeLatencyRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
	}))
	defer srv.Close()

	c := testChecker(5)
	c.Track(srv.URL)
	c.CheckAll(context.Background())

	if r, _ := c.Get(srv.URL); r.LatencyMs < 20 {
		t.Errorf("latency = %dms, want >= 20", r.LatencyMs)
	}
}
