package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/slatedash/slate/internal/cache"
	"github.com/slatedash/slate/internal/config"
	"github.com/slatedash/slate/internal/feeds"
	"github.com/slatedash/slate/internal/hub"
	"github.com/slatedash/slate/internal/metrics"
	"github.com/slatedash/slate/internal/middleware"
	"github.com/slatedash/slate/internal/render"
	"github.com/slatedash/slate/internal/state"
	"github.com/slatedash/slate/internal/status"
	"github.com/slatedash/slate/internal/widget"
)

func testServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	if cfg.Dashboard.Columns == 0 {
		cfg.Dashboard.Columns = 4
	}
	if cfg.Dashboard.Gap == "" {
		cfg.Dashboard.Gap = "16px"
	}
	if cfg.Dashboard.Theme == "" {
		cfg.Dashboard.Theme = "dark"
	}

	m := metrics.New()
	st := state.NewStore("")
	checker := status.NewChecker(config.StatusCheckConfig{IntervalSec: 60, TimeoutSec: 1, CacheTTLSec: 60}, m)
	fr := feeds.NewRegistry(cfg.Services, cache.New(10, 60), nil)
	env := &widget.Env{State: st, Feeds: fr, Status: checker, Themes: cfg.ThemeNames()}
	session := render.NewSession(cfg, widget.NewLoader(env), st, checker)
	t.Cleanup(session.Close)

	h := hub.NewHub()
	go h.Run()

	handler := NewHandler(cfg, session, fr, st, checker, m, h)
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) *http.Response {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", path, err)
		}
	}
	return resp
}

func postJSON(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := srv.Client().Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	resp.Body.Close()
	return resp
}

func TestHealth(t *testing.T) {
	srv := testServer(t, &config.Config{})
	var body map[string]string
	resp := getJSON(t, srv, "/health", &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}
}

func TestPageServesDashboard(t *testing.T) {
	srv := testServer(t, &config.Config{
		Dashboard: config.DashboardConfig{Title: "Homelab"},
		Components: []config.Component{
			{ID: "l1", Type: "link", Name: "Git", URL: "https://git.local"},
		},
	})

	resp, err := srv.Client().Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	page := string(raw)

	if !strings.Contains(page, "<title>Homelab</title>") {
		t.Error("page title missing")
	}
	if !strings.Contains(page, `id="link-l1"`) {
		t.Error("component tree missing from page")
	}
}

func TestThemeValidation(t *testing.T) {
	srv := testServer(t, &config.Config{})

	if resp := postJSON(t, srv, "/api/state/theme", `{"theme":"neon"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown theme accepted: %d", resp.StatusCode)
	}
	if resp := postJSON(t, srv, "/api/state/theme", `{"theme":"light"}`); resp.StatusCode != http.StatusOK {
		t.Errorf("known theme rejected: %d", resp.StatusCode)
	}

	var body map[string]string
	getJSON(t, srv, "/api/state/theme", &body)
	if body["theme"] != "light" {
		t.Errorf("theme = %q after set", body["theme"])
	}
}

func TestGroupStateRoundTrip(t *testing.T) {
	srv := testServer(t, &config.Config{})

	postJSON(t, srv, "/api/state/groups/tools", `{"collapsed":true}`)

	var body map[string]any
	getJSON(t, srv, "/api/state/groups/tools", &body)
	if body["collapsed"] != true {
		t.Errorf("collapsed = %v", body["collapsed"])
	}
}

func TestWidgetConfigSanitized(t *testing.T) {
	srv := testServer(t, &config.Config{
		Components: []config.Component{
			{ID: "w1", Type: "widget", Widget: "weather",
				Config: map[string]any{"location": "97201", "apiKey": "secret"}},
			{ID: "l1", Type: "link", Name: "Git", URL: "https://git.local"},
		},
	})

	var body struct {
		Widget string         `json:"widget"`
		Config map[string]any `json:"config"`
	}
	resp := getJSON(t, srv, "/api/widget-config/w1", &body)
	if resp.StatusCode != http.StatusOK || body.Widget != "weather" {
		t.Fatalf("widget-config = %d %+v", resp.StatusCode, body)
	}
	if _, leaked := body.Config["apiKey"]; leaked {
		t.Error("apiKey must not reach the client")
	}
	if body.Config["location"] != "97201" {
		t.Errorf("config = %v", body.Config)
	}

	// Links are not widgets.
	if resp := getJSON(t, srv, "/api/widget-config/l1", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("link id resolved as widget: %d", resp.StatusCode)
	}
	if resp := getJSON(t, srv, "/api/widget-config/ghost", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id: %d", resp.StatusCode)
	}
}

func TestWidgetRegistryListing(t *testing.T) {
	srv := testServer(t, &config.Config{})

	var defs map[string]json.RawMessage
	getJSON(t, srv, "/api/widgets", &defs)
	for _, name := range []string{"clock", "weather", "theme-switcher"} {
		if _, ok := defs[name]; !ok {
			t.Errorf("registry listing missing %q", name)
		}
	}
}

func TestTriliumSearchRequiresTag(t *testing.T) {
	srv := testServer(t, &config.Config{})

	if resp := getJSON(t, srv, "/api/trilium", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing tag: %d", resp.StatusCode)
	}
	// Trilium is not configured in this config.
	if resp := getJSON(t, srv, "/api/trilium?tag=todo", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unconfigured service: %d", resp.StatusCode)
	}
}

func TestRecentErrorMapping(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	srv := testServer(t, &config.Config{
		Services: config.ServicesConfig{
			Trilium: config.TriliumConfig{URL: upstream.URL, Token: "tok"},
		},
	})

	if resp := getJSON(t, srv, "/api/trilium/recent", nil); resp.StatusCode != http.StatusBadGateway {
		t.Errorf("upstream failure: got %d, want 502", resp.StatusCode)
	}
	if resp := getJSON(t, srv, "/api/linkwarden/recent", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown service: got %d, want 404", resp.StatusCode)
	}
}

func TestFragmentEndpoints(t *testing.T) {
	srv := testServer(t, &config.Config{
		Components: []config.Component{
			{ID: "w1", Type: "widget", Widget: "clock", Config: map[string]any{"format": "24h"}},
		},
	})

	// The page render creates the mounts the fragment API serves.
	resp, err := srv.Client().Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	var all map[string]string
	getJSON(t, srv, "/api/fragments", &all)
	if _, ok := all["w1"]; !ok {
		t.Errorf("fragments = %v", all)
	}

	var one map[string]string
	r := getJSON(t, srv, "/api/fragments/w1", &one)
	if r.StatusCode != http.StatusOK || one["id"] != "w1" {
		t.Errorf("fragment w1 = %d %v", r.StatusCode, one)
	}
	if r := getJSON(t, srv, "/api/fragments/ghost", nil); r.StatusCode != http.StatusNotFound {
		t.Errorf("unknown mount: %d", r.StatusCode)
	}
}

func TestPasswordGate(t *testing.T) {
	srv := testServer(t, &config.Config{
		Server: config.ServerConfig{Password: "hunter2"},
	})

	// API calls without credentials are refused outright.
	if resp := getJSON(t, srv, "/api/fragments", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated api: %d", resp.StatusCode)
	}

	// The page shows the login form instead.
	resp, err := srv.Client().Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(raw), "Dashboard Login") {
		t.Error("expected login form for unauthenticated page request")
	}

	// Token in a header or the query string both work.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/fragments", nil)
	req.Header.Set("X-Dashboard-Token", "hunter2")
	if resp, err := srv.Client().Do(req); err != nil || resp.StatusCode != http.StatusOK {
		t.Errorf("header token: %v %d", err, resp.StatusCode)
	} else {
		resp.Body.Close()
	}
	if resp := getJSON(t, srv, "/api/fragments?token=hunter2", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("query token: %d", resp.StatusCode)
	}

	// A correct login form POST sets the cookie and redirects.
	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	form := url.Values{"password": {"hunter2"}}
	loginResp, err := client.PostForm(srv.URL+"/", form)
	if err != nil {
		t.Fatal(err)
	}
	loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusSeeOther {
		t.Errorf("login: %d, want 303", loginResp.StatusCode)
	}
	cookie := ""
	for _, c := range loginResp.Cookies() {
		if c.Name == "dashboard_token" {
			cookie = c.Value
		}
	}
	if cookie != "hunter2" {
		t.Errorf("cookie = %q", cookie)
	}
}

func TestHealthBypassesAuth(t *testing.T) {
	srv := testServer(t, &config.Config{
		Server: config.ServerConfig{Password: "hunter2"},
	})
	if resp := getJSON(t, srv, "/health", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("health should not require auth: %d", resp.StatusCode)
	}
}

func TestWebsocketUpgradeThroughMiddleware(t *testing.T) {
	cfg := &config.Config{
		Dashboard: config.DashboardConfig{Theme: "dark", Columns: 4, Gap: "16px"},
	}
	m := metrics.New()
	st := state.NewStore("")
	checker := status.NewChecker(config.StatusCheckConfig{IntervalSec: 60, TimeoutSec: 1, CacheTTLSec: 60}, m)
	fr := feeds.NewRegistry(cfg.Services, cache.New(10, 60), nil)
	env := &widget.Env{State: st, Feeds: fr, Status: checker, Themes: cfg.ThemeNames()}
	session := render.NewSession(cfg, widget.NewLoader(env), st, checker)
	t.Cleanup(session.Close)

	h := hub.NewHub()
	go h.Run()

	handler := NewHandler(cfg, session, fr, st, checker, m, h)
	r := mux.NewRouter()
	handler.RegisterRoutes(r)

	// The same chain main builds: the upgrade must hijack through the
	// logging middleware's recorder.
	var chained http.Handler = middleware.Logging(m)(r)
	chained = middleware.RequestID(chained)
	srv := httptest.NewServer(chained)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		code := 0
		if resp != nil {
			code = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", wsURL, err, code)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with the hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	h.BroadcastFragment("w1", `<div class="clock-widget">12:00</div>`)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg hub.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "fragment" || msg.ID != "w1" {
		t.Errorf("msg = %+v", msg)
	}
}
