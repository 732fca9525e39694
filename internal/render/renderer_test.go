package render

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slatedash/slate/internal/config"
	"github.com/slatedash/slate/internal/state"
	"github.com/slatedash/slate/internal/status"
	"github.com/slatedash/slate/internal/widget"
)

func testSession(t *testing.T, components []config.Component) (*Session, *state.Store) {
	t.Helper()
	cfg := &config.Config{
		Dashboard:  config.DashboardConfig{Title: "Test", Columns: 4, Gap: "12px"},
		Components: components,
	}
	st := state.NewStore("")
	checker := status.NewChecker(config.StatusCheckConfig{IntervalSec: 60, TimeoutSec: 1, CacheTTLSec: 60}, nil)
	loader := widget.NewLoader(&widget.Env{State: st, Status: checker, Themes: []string{"dark", "light"}})
	s := NewSession(cfg, loader, st, checker)
	t.Cleanup(s.Close)
	return s, st
}

// waitForMount polls a session fragment until it stops showing the
// loading placeholder, since widgets initialize off the tree walk.
func waitForMount(t *testing.T, s *Session, id string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		html, ok := s.Fragment(id)
		if ok && !strings.Contains(html, `class="loading"`) {
			return html
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("mount %s never left the loading state", id)
	return ""
}

func TestRenderGridAndOrder(t *testing.T) {
	s, _ := testSession(t, []config.Component{
		{ID: "w1", Type: "widget", Widget: "clock", Config: map[string]any{"format": "24h"}},
		{ID: "l1", Type: "link", Name: "Git", URL: "https://git.local", Icon: "github"},
	})

	html := s.Render()
	if !strings.Contains(html, `grid-template-columns: repeat(4, 1fr); gap: 12px;`) {
		t.Errorf("grid style missing: %s", html)
	}
	w := strings.Index(html, `id="mount-w1"`)
	l := strings.Index(html, `id="link-l1"`)
	if w < 0 || l < 0 || w > l {
		t.Errorf("declaration order not preserved (widget at %d, link at %d)", w, l)
	}
	if !strings.Contains(html, `<span class="link-icon">🐙</span>`) {
		t.Errorf("builtin icon not resolved: %s", html)
	}
}

func TestUnknownComponentTypeSkipped(t *testing.T) {
	s, _ := testSession(t, []config.Component{
		{ID: "bogus", Type: "banner"},
		{ID: "l1", Type: "link", Name: "Git", URL: "https://git.local"},
	})

	html := s.Render()
	if strings.Contains(html, "bogus") {
		t.Errorf("unknown type should be dropped: %s", html)
	}
	if !strings.Contains(html, `id="link-l1"`) {
		t.Errorf("sibling should survive: %s", html)
	}
}

func TestReparentGroupMembership(t *testing.T) {
	// The link declares membership before its group appears; the
	// orphan references a group that never exists.
	s, _ := testSession(t, []config.Component{
		{ID: "l1", Type: "link", Name: "Git", URL: "https://git.local", Group: "svc"},
		{ID: "orphan", Type: "link", Name: "Lost", URL: "https://lost.local", Group: "nope"},
		{ID: "svc", Type: "group", Title: "Services"},
	})

	html := s.Render()
	if strings.Contains(html, "orphan") {
		t.Errorf("child of unknown group should be dropped, not promoted: %s", html)
	}
	group := strings.Index(html, `id="group-svc"`)
	link := strings.Index(html, `id="link-l1"`)
	end := strings.Index(html, "</section>")
	if group < 0 || link < group || link > end {
		t.Errorf("link should render inside its group: %s", html)
	}
}

func TestCollapsedStateFromStore(t *testing.T) {
	s, st := testSession(t, []config.Component{
		{ID: "g1", Type: "group", Title: "Tools"},
	})

	if strings.Contains(s.Render(), "collapsed") {
		t.Error("group should start expanded")
	}
	st.SetCollapsed("g1", true)
	if !strings.Contains(s.Render(), `class="dashboard-group collapsed"`) {
		t.Error("stored collapse flag should override the config default")
	}
}

func TestNonCollapsibleGroupHasNoToggle(t *testing.T) {
	no := false
	s, _ := testSession(t, []config.Component{
		{ID: "g1", Type: "group", Title: "Pinned", Collapsible: &no},
	})

	html := s.Render()
	if strings.Contains(html, "data-collapse-target") || strings.Contains(html, "collapse-toggle") {
		t.Errorf("collapsible: false should remove the affordance: %s", html)
	}
}

func TestWidgetInitializesAfterRender(t *testing.T) {
	s, _ := testSession(t, []config.Component{
		{ID: "w1", Type: "widget", Widget: "clock", Config: map[string]any{"format": "24h", "showDate": false}},
	})

	page := s.Render()
	if !strings.Contains(page, `class="loading"`) {
		t.Errorf("first paint shows the loading placeholder: %s", page)
	}

	html := waitForMount(t, s, "w1")
	if !strings.Contains(html, `class="clock-widget"`) {
		t.Errorf("clock fragment = %s", html)
	}
}

func TestBrokenWidgetIsIsolated(t *testing.T) {
	s, _ := testSession(t, []config.Component{
		{ID: "bad", Type: "widget", Widget: "no-such-widget"},
		{ID: "good", Type: "widget", Widget: "clock", Config: map[string]any{"format": "24h"}},
	})
	s.Render()

	bad := waitForMount(t, s, "bad")
	if !strings.Contains(bad, "widget-error") || !strings.Contains(bad, "no-such-widget") {
		t.Errorf("failed widget should show an error panel naming the type: %s", bad)
	}

	good := waitForMount(t, s, "good")
	if !strings.Contains(good, `class="clock-widget"`) {
		t.Errorf("sibling widget should be unaffected: %s", good)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	s, _ := testSession(t, []config.Component{
		{ID: "w1", Type: "widget", Widget: "clock", Config: map[string]any{"format": "24h"}},
	})

	s.Render()
	waitForMount(t, s, "w1")

	// A page reload walks the tree again; the live mount carries over
	// instead of resetting to the loading placeholder.
	again := s.Render()
	if strings.Contains(again, `class="loading"`) {
		t.Errorf("second render reset the mount:\n%s", again)
	}
	if !strings.Contains(again, `class="clock-widget"`) {
		t.Errorf("second render should embed the live fragment:\n%s", again)
	}
	if len(s.Fragments()) != 1 {
		t.Errorf("fragments = %v, want one mount", s.Fragments())
	}
}

func TestLinkStatusCheckTracked(t *testing.T) {
	s, _ := testSession(t, []config.Component{
		{ID: "l1", Type: "link", Name: "NAS", URL: "https://nas.local", StatusCheck: true},
	})

	html := s.Render()
	if !strings.Contains(html, `data-status-url="https://nas.local"`) {
		t.Errorf("status dot missing: %s", html)
	}
	if _, ok := s.status.Get("https://nas.local"); !ok {
		t.Error("rendering a statusCheck link should register the target")
	}
}

func TestStyleAttr(t *testing.T) {
	cases := []struct {
		name string
		c    config.Component
		want string
	}{
		{"none", config.Component{}, ""},
		{"columnSpan", config.Component{Position: &config.Position{Column: 2, Span: 3}}, "grid-column: 2 / span 3"},
		{"verbatim", config.Component{Position: &config.Position{ColumnSpec: "3 / span 4"}}, "grid-column: 3 / span 4"},
		{"row", config.Component{Position: &config.Position{Row: 2}}, "grid-row: 2"},
		{"background", config.Component{BackgroundColor: "#223"}, "background-color: #223"},
	}
	for _, tc := range cases {
		got := styleAttr(&tc.c)
		if tc.want == "" {
			if got != "" {
				t.Errorf("%s: styleAttr = %q, want empty", tc.name, got)
			}
			continue
		}
		if !strings.Contains(got, tc.want) {
			t.Errorf("%s: styleAttr = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCloseDestroysWidgets(t *testing.T) {
	s, _ := testSession(t, []config.Component{
		{ID: "w1", Type: "widget", Widget: "clock", Config: map[string]any{"format": "24h"}},
	})
	s.Render()
	waitForMount(t, s, "w1")

	s.Close()
	if _, ok := s.Fragment("missing"); ok {
		t.Error("unknown mount should not resolve")
	}
}

func TestReparentDoesNotAliasConfigBacking(t *testing.T) {
	// Mimic the children+items fold: the group's slice carries spare
	// capacity, so a careless append would write into the config's
	// backing array and alias every walk's result.
	children := append(make([]config.Component, 0, 4),
		config.Component{ID: "a", Type: "link", Name: "A", URL: "https://a.local"},
		config.Component{ID: "b", Type: "link", Name: "B", URL: "https://b.local"},
		config.Component{ID: "c", Type: "link", Name: "C", URL: "https://c.local"},
	)
	components := []config.Component{
		{ID: "svc", Type: "group", Title: "Services", Children: children},
		{ID: "extra", Type: "link", Name: "Extra", URL: "https://extra.local", Group: "svc"},
	}

	out1 := reparent(components)
	if len(out1[0].Children) != 4 {
		t.Fatalf("children = %d, want 4", len(out1[0].Children))
	}
	out1[0].Children[3].Name = "changed"

	out2 := reparent(components)
	if out2[0].Children[3].Name != "Extra" {
		t.Errorf("second walk sees a mutation from the first: %q", out2[0].Children[3].Name)
	}
	if out1[0].Children[3].Name != "changed" {
		t.Error("walks share one backing array; each must own its children")
	}
}

func TestConcurrentRenders(t *testing.T) {
	children := append(make([]config.Component, 0, 4),
		config.Component{ID: "a", Type: "link", Name: "A", URL: "https://a.local"},
	)
	s, _ := testSession(t, []config.Component{
		{ID: "svc", Type: "group", Title: "Services", Children: children},
		{ID: "extra", Type: "link", Name: "Extra", URL: "https://extra.local", Group: "svc"},
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if html := s.Render(); !strings.Contains(html, `id="link-extra"`) {
				t.Errorf("render lost the reparented child")
			}
		}()
	}
	wg.Wait()
}
