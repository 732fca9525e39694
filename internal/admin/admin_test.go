package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/slatedash/slate/internal/config"
	"github.com/slatedash/slate/internal/metrics"
	"github.com/slatedash/slate/internal/status"
)

func testAdmin(t *testing.T, reloadFunc func() error) *httptest.Server {
	t.Helper()
	checker := status.NewChecker(config.StatusCheckConfig{IntervalSec: 60, TimeoutSec: 1, CacheTTLSec: 60}, nil)
	h := NewHandler(metrics.New(), checker, func() Stats {
		return Stats{Components: 3, Fragments: 2, WSClients: 1}
	}, reloadFunc)

	r := mux.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusReportsCounts(t *testing.T) {
	srv := testAdmin(t, nil)

	resp, err := srv.Client().Get(srv.URL + "/admin/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		UptimeSec  int              `json:"uptime_sec"`
		Components int              `json:"components"`
		Fragments  int              `json:"fragments"`
		WSClients  int              `json:"ws_clients"`
		Metrics    *json.RawMessage `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Components != 3 || body.Fragments != 2 || body.WSClients != 1 {
		t.Errorf("stats = %+v", body)
	}
	if body.Metrics == nil {
		t.Error("metrics snapshot missing")
	}
}

func TestReload(t *testing.T) {
	calls := 0
	srv := testAdmin(t, func() error {
		calls++
		if calls > 1 {
			return errors.New("config is broken")
		}
		return nil
	})

	resp, err := srv.Client().Post(srv.URL+"/admin/reload", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || calls != 1 {
		t.Errorf("reload: %d, calls = %d", resp.StatusCode, calls)
	}

	// A failed reload keeps serving and reports the error.
	resp, err = srv.Client().Post(srv.URL+"/admin/reload", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("failed reload: %d, want 500", resp.StatusCode)
	}
}

func TestReloadUnconfigured(t *testing.T) {
	srv := testAdmin(t, nil)
	resp, err := srv.Client().Post(srv.URL+"/admin/reload", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("reload without callback: %d", resp.StatusCode)
	}
}
