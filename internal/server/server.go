package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/slatedash/slate/internal/config"
	"github.com/slatedash/slate/internal/feeds"
	"github.com/slatedash/slate/internal/hub"
	"github.com/slatedash/slate/internal/metrics"
	"github.com/slatedash/slate/internal/registry"
	"github.com/slatedash/slate/internal/render"
	"github.com/slatedash/slate/internal/state"
	"github.com/slatedash/slate/internal/status"
)

// Handler serves the dashboard page, the fragment/state API and the
// websocket endpoint. The config, session and feed registry are
// swapped wholesale on reload; everything else lives for the process.
type Handler struct {
	mu      sync.RWMutex
	cfg     *config.Config
	session *render.Session
	feeds   *feeds.Registry

	state   *state.Store
	status  *status.Checker
	metrics *metrics.Metrics
	hub     *hub.Hub
}

func NewHandler(cfg *config.Config, session *render.Session, fr *feeds.Registry,
	st *state.Store, checker *status.Checker, m *metrics.Metrics, h *hub.Hub) *Handler {
	return &Handler{
		cfg:     cfg,
		session: session,
		feeds:   fr,
		state:   st,
		status:  checker,
		metrics: m,
		hub:     h,
	}
}

// Swap replaces the live config, session and feed registry after a
// reload. The caller closes the old session.
func (h *Handler) Swap(cfg *config.Config, session *render.Session, fr *feeds.Registry) {
	h.mu.Lock()
	h.cfg = cfg
	h.session = session
	h.feeds = fr
	h.mu.Unlock()
}

func (h *Handler) current() (*config.Config, *render.Session, *feeds.Registry) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg, h.session, h.feeds
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.authWrap(h.servePage)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/ws", h.authWrap(h.serveWS)).Methods(http.MethodGet)

	r.HandleFunc("/api/fragments", h.authWrap(h.serveFragments)).Methods(http.MethodGet)
	r.HandleFunc("/api/fragments/{id}", h.authWrap(h.serveFragment)).Methods(http.MethodGet)

	r.HandleFunc("/api/state/theme", h.authWrap(h.serveTheme)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/api/state/groups/{id}", h.authWrap(h.serveGroupState)).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/api/widgets", h.authWrap(h.serveRegistry)).Methods(http.MethodGet)
	r.HandleFunc("/api/widget-config/{id}", h.authWrap(h.serveWidgetConfig)).Methods(http.MethodGet)
	r.HandleFunc("/api/status", h.authWrap(h.serveStatus)).Methods(http.MethodGet)

	r.HandleFunc("/api/trilium", h.authWrap(h.serveTriliumSearch)).Methods(http.MethodGet)
	r.HandleFunc("/api/{service}/recent", h.authWrap(h.serveRecent)).Methods(http.MethodGet)

	r.HandleFunc("/health", h.serveHealth).Methods(http.MethodGet)
	r.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)
}

// authWrap optionally protects endpoints with the dashboard password.
func (h *Handler) authWrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, _, _ := h.current()
		pw := cfg.Server.Password
		if pw == "" {
			next(w, r)
			return
		}
		if r.URL.Query().Get("token") == pw || r.Header.Get("X-Dashboard-Token") == pw {
			next(w, r)
			return
		}
		if c, err := r.Cookie("dashboard_token"); err == nil && c.Value == pw {
			next(w, r)
			return
		}
		// For the HTML page, show a login form
		if r.URL.Path == "/" && r.Method == http.MethodPost {
			r.ParseForm()
			if r.FormValue("password") == pw {
				http.SetCookie(w, &http.Cookie{Name: "dashboard_token", Value: pw, Path: "/", MaxAge: 86400})
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
		}
		if r.URL.Path == "/" {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(loginHTML))
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	cfg, session, _ := h.current()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(renderPage(cfg, h.state, session.Render())))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-host service, origins are not a trust boundary here.
		return true
	},
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[server] websocket upgrade: %v", err)
		return
	}
	client := hub.NewClient(h.hub, conn)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) serveFragments(w http.ResponseWriter, r *http.Request) {
	_, session, _ := h.current()
	writeJSON(w, http.StatusOK, session.Fragments())
}

func (h *Handler) serveFragment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, session, _ := h.current()
	html, ok := session.Fragment(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown mount: " + id})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "html": html})
}

func (h *Handler) serveTheme(w http.ResponseWriter, r *http.Request) {
	cfg, _, _ := h.current()
	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]string{"theme": h.state.Theme(cfg.Dashboard.Theme)})
		return
	}

	var req struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Theme == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "theme field is required"})
		return
	}
	valid := false
	for _, name := range cfg.ThemeNames() {
		if name == req.Theme {
			valid = true
			break
		}
	}
	if !valid {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown theme: " + req.Theme})
		return
	}
	h.state.SetTheme(req.Theme)
	writeJSON(w, http.StatusOK, map[string]string{"theme": req.Theme})
}

func (h *Handler) serveGroupState(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "collapsed": h.state.Collapsed(id, false)})
		return
	}

	var req struct {
		Collapsed bool `json:"collapsed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "collapsed field is required"})
		return
	}
	h.state.SetCollapsed(id, req.Collapsed)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "collapsed": req.Collapsed})
}

func (h *Handler) serveRegistry(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]registry.Definition)
	for _, name := range registry.All() {
		def, _ := registry.Get(name)
		out[name] = def
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) serveWidgetConfig(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	cfg, _, _ := h.current()
	c := cfg.FindComponent(id)
	if c == nil || c.Type != "widget" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown widget: " + id})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     c.ID,
		"widget": c.Widget,
		"config": config.SanitizeWidgetConfig(c.Config),
	})
}

func (h *Handler) serveStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status.Snapshot())
}

func (h *Handler) serveTriliumSearch(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tag parameter is required"})
		return
	}
	_, _, fr := h.current()
	items, err := fr.TriliumNotesByTag(r.Context(), tag, queryLimit(r, 10))
	if err != nil {
		writeJSON(w, upstreamStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) serveRecent(w http.ResponseWriter, r *http.Request) {
	service := mux.Vars(r)["service"]
	_, _, fr := h.current()
	items, err := fr.RecentItems(r.Context(), service, queryLimit(r, 5))
	if err != nil {
		writeJSON(w, upstreamStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Stats reports live counts for the admin status endpoint.
func (h *Handler) Stats() (components, fragments, wsClients int) {
	cfg, session, _ := h.current()
	return len(cfg.Components), len(session.Fragments()), h.hub.ClientCount()
}

func (h *Handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func queryLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// upstreamStatus maps feed errors to a response code: upstream API
// failures surface as 502, everything else as 500. Unknown services
// are the caller's mistake and get 404.
func upstreamStatus(err error) int {
	if feeds.IsUnknownService(err) {
		return http.StatusNotFound
	}
	if feeds.IsUpstream(err) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

var loginHTML = "<html><head><title>Login</title><style>body{background:var(--bg,#0f172a);color:#e2e8f0;font-family:sans-serif;display:flex;justify-content:center;align-items:center;min-height:100vh}form{background:#1e293b;padding:32px;border-radius:12px;border:1px solid #334155}input{display:block;margin:12px 0;padding:8px 12px;border-radius:6px;border:1px solid #475569;background:#0f172a;color:#e2e8f0;width:250px}button{padding:8px 20px;background:#3b82f6;color:white;border:none;border-radius:6px;cursor:pointer;font-weight:600}</style></head><body><form method='POST'><h2>Dashboard Login</h2><input type='password' name='password' placeholder='Password' autofocus><button type='submit'>Login</button></form></body></html>"
