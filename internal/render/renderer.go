package render

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"

	"github.com/slatedash/slate/internal/config"
	"github.com/slatedash/slate/internal/state"
	"github.com/slatedash/slate/internal/status"
	"github.com/slatedash/slate/internal/widget"
)

// builtinIcons maps well-known link icon names to glyphs. Entries in
// the config's icons map override these.
var builtinIcons = map[string]string{
	"github":   "🐙",
	"gitea":    "🍵",
	"docs":     "📄",
	"notes":    "📝",
	"tasks":    "✅",
	"media":    "🎬",
	"music":    "🎵",
	"photos":   "📷",
	"home":     "🏠",
	"router":   "📡",
	"server":   "🖥️",
	"storage":  "💾",
	"monitor":  "📈",
	"calendar": "📅",
	"mail":     "✉️",
	"rss":      "📰",
	"link":     "🔗",
}

// Session owns one rendered view of the dashboard: the mount for every
// widget node and the live widget behind it. Widgets initialize
// asynchronously after the tree HTML is built; Close tears them all
// down. A session lives from one config load to the next.
type Session struct {
	cfg    *config.Config
	loader *widget.Loader
	state  *state.Store
	status *status.Checker

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	widgets map[string]widget.Widget
	mounts  map[string]*widget.Mount

	onFragment func(id, html string)
}

func NewSession(cfg *config.Config, loader *widget.Loader, st *state.Store, checker *status.Checker) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:     cfg,
		loader:  loader,
		state:   st,
		status:  checker,
		ctx:     ctx,
		cancel:  cancel,
		widgets: make(map[string]widget.Widget),
		mounts:  make(map[string]*widget.Mount),
	}
}

// OnFragment registers the callback wired into every mount, invoked
// whenever a widget replaces its fragment. Set it before Render.
func (s *Session) OnFragment(fn func(id, html string)) {
	s.onFragment = fn
}

// Render builds the dashboard grid HTML. Widget nodes get a mount
// placeholder immediately; their content arrives asynchronously, so
// sibling order in the page is guaranteed but first-paint order is
// not. Per-node failures never abort the walk.
func (s *Session) Render() string {
	components := reparent(s.cfg.Components)

	var b strings.Builder
	b.WriteString(fmt.Sprintf(
		`<div class="dashboard-grid" style="grid-template-columns: repeat(%d, 1fr); gap: %s;">`,
		s.cfg.Dashboard.Columns, html.EscapeString(s.cfg.Dashboard.Gap)))
	for i := range components {
		s.renderNode(&b, &components[i])
	}
	b.WriteString(`</div>`)
	return b.String()
}

// reparent resolves group membership declared on non-group nodes. The
// result keeps declaration order; a node referencing an unknown group
// is dropped with a warning rather than promoted to top level.
func reparent(components []config.Component) []config.Component {
	out := make([]config.Component, 0, len(components))
	groups := make(map[string]*config.Component)
	for _, c := range components {
		if c.Type != "group" && c.Group != "" {
			continue
		}
		out = append(out, c)
		if c.Type == "group" {
			groups[c.ID] = &out[len(out)-1]
		}
	}
	// Second pass so a node may join a group declared after it.
	for _, c := range components {
		if c.Type == "group" || c.Group == "" {
			continue
		}
		if g, ok := groups[c.Group]; ok {
			// Clamp capacity so the append reallocates instead of
			// writing into the config's shared backing array.
			g.Children = append(g.Children[:len(g.Children):len(g.Children)], c)
		} else {
			log.Printf("[render] component %q references unknown group %q, skipping", c.ID, c.Group)
		}
	}
	return out
}

func (s *Session) renderNode(b *strings.Builder, c *config.Component) {
	switch c.Type {
	case "group":
		s.renderGroup(b, c)
	case "widget":
		s.renderWidget(b, c)
	case "link":
		s.renderLink(b, c)
	default:
		log.Printf("[render] unknown component type %q (id %s), skipping", c.Type, c.ID)
	}
}

func (s *Session) renderGroup(b *strings.Builder, c *config.Component) {
	collapsed := s.state.Collapsed(c.ID, c.Collapsed)

	classes := "dashboard-group"
	if collapsed {
		classes += " collapsed"
	}
	b.WriteString(fmt.Sprintf(`<section class="%s" id="group-%s"%s>`,
		classes, html.EscapeString(c.ID), styleAttr(c)))

	b.WriteString(`<header class="group-header"`)
	if c.IsCollapsible() {
		b.WriteString(fmt.Sprintf(` data-collapse-target="%s"`, html.EscapeString(c.ID)))
	}
	b.WriteString(`>`)
	b.WriteString(fmt.Sprintf(`<h2>%s</h2>`, html.EscapeString(c.Title)))
	if c.IsCollapsible() {
		b.WriteString(`<span class="collapse-toggle">▾</span>`)
	}
	b.WriteString(`</header>`)

	layout := "group-grid"
	if c.Layout == "rows" {
		layout = "group-rows"
	}
	b.WriteString(fmt.Sprintf(`<div class="group-content %s">`, layout))
	for i := range c.Children {
		s.renderNode(b, &c.Children[i])
	}
	b.WriteString(`</div></section>`)
}

func (s *Session) renderWidget(b *strings.Builder, c *config.Component) {
	// The first walk creates the mount and starts the widget; later
	// walks (page reloads) reuse the live mount and its current HTML.
	s.mu.Lock()
	mount, exists := s.mounts[c.ID]
	if !exists {
		mount = widget.NewMount(c.ID)
		if s.onFragment != nil {
			mount.OnUpdate(s.onFragment)
		}
		s.mounts[c.ID] = mount
	}
	s.mu.Unlock()

	if !exists {
		mount.SetLoading("")
		// Initialization happens off the tree walk so one slow or
		// broken widget never delays its siblings.
		go s.initWidget(c.ID, c.Widget, c.Config, mount)
	}

	b.WriteString(fmt.Sprintf(
		`<div class="dashboard-widget widget-%s" id="mount-%s" data-mount="%s"%s>%s</div>`,
		html.EscapeString(c.Widget), html.EscapeString(c.ID), html.EscapeString(c.ID),
		styleAttr(c), mount.HTML()))
}

func (s *Session) initWidget(id, widgetType string, cfg map[string]any, mount *widget.Mount) {
	w, err := s.loader.Create(widgetType, mount, cfg)
	if err != nil {
		log.Printf("[render] widget %s (%s): %v", id, widgetType, err)
		mount.SetError(fmt.Sprintf("Failed to load widget %q", widgetType), err.Error())
		return
	}

	if err := w.Init(s.ctx); err != nil {
		log.Printf("[render] widget %s (%s) init: %v", id, widgetType, err)
		mount.SetError(fmt.Sprintf("Widget %q failed to start", widgetType), err.Error())
		w.Destroy()
		return
	}

	s.mu.Lock()
	s.widgets[id] = w
	s.mu.Unlock()
}

func (s *Session) renderLink(b *strings.Builder, c *config.Component) {
	if c.StatusCheck {
		s.status.Track(c.URL)
	}

	classes := "dashboard-link"
	if c.Compact {
		classes += " compact"
	}

	icon := c.Icon
	if glyph, ok := s.cfg.Icons[icon]; ok {
		icon = glyph
	} else if glyph, ok := builtinIcons[icon]; ok {
		icon = glyph
	}

	b.WriteString(fmt.Sprintf(`<a class="%s" id="link-%s" href="%s" target="_blank" rel="noopener"%s>`,
		classes, html.EscapeString(c.ID), html.EscapeString(c.URL), styleAttr(c)))
	if icon != "" {
		b.WriteString(fmt.Sprintf(`<span class="link-icon">%s</span>`, html.EscapeString(icon)))
	}
	b.WriteString(fmt.Sprintf(`<span class="link-name">%s</span>`, html.EscapeString(c.Name)))
	if c.Description != "" && !c.Compact {
		b.WriteString(fmt.Sprintf(`<span class="link-desc">%s</span>`, html.EscapeString(c.Description)))
	}
	if c.StatusCheck {
		b.WriteString(fmt.Sprintf(`<span class="status-dot status-checking" data-status-url="%s"></span>`,
			html.EscapeString(c.URL)))
	}
	b.WriteString(`</a>`)
}

// styleAttr builds the inline grid placement style for a node. An
// integer column pairs with span as a range; a legacy column string is
// used verbatim.
func styleAttr(c *config.Component) string {
	var rules []string
	if p := c.Position; p != nil {
		switch {
		case p.ColumnSpec != "":
			rules = append(rules, fmt.Sprintf("grid-column: %s", p.ColumnSpec))
		case p.Column > 0 && p.Span > 0:
			rules = append(rules, fmt.Sprintf("grid-column: %d / span %d", p.Column, p.Span))
		case p.Column > 0:
			rules = append(rules, fmt.Sprintf("grid-column: %d", p.Column))
		}
		if p.Row > 0 {
			rules = append(rules, fmt.Sprintf("grid-row: %d", p.Row))
		}
	}
	if c.BackgroundColor != "" {
		rules = append(rules, fmt.Sprintf("background-color: %s", c.BackgroundColor))
	}
	if len(rules) == 0 {
		return ""
	}
	return fmt.Sprintf(` style="%s;"`, html.EscapeString(strings.Join(rules, "; ")))
}

// Fragment returns the current HTML for one mount.
func (s *Session) Fragment(id string) (string, bool) {
	s.mu.Lock()
	mount, ok := s.mounts[id]
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	return mount.HTML(), true
}

// Fragments snapshots every mount's current HTML, for the polling
// fallback when websockets are unavailable.
func (s *Session) Fragments() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.mounts))
	for id, mount := range s.mounts {
		out[id] = mount.HTML()
	}
	return out
}

// Close destroys every widget and stops their refresh loops. The
// session is unusable afterwards.
func (s *Session) Close() {
	s.cancel()
	s.mu.Lock()
	widgets := s.widgets
	s.widgets = make(map[string]widget.Widget)
	s.mu.Unlock()
	for _, w := range widgets {
		w.Destroy()
	}
}
