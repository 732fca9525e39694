// Package widget holds the widget lifecycle contract, the loader that
// validates configs against the registry and constructs instances, and
// the widget implementations themselves.
package widget

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/slatedash/slate/internal/feeds"
	"github.com/slatedash/slate/internal/metrics"
	"github.com/slatedash/slate/internal/state"
	"github.com/slatedash/slate/internal/status"
)

// Widget is the uniform lifecycle every widget kind implements. Init
// performs the first render: it must set a loading state synchronously,
// fetch asynchronously, and end in either a success or an inline error
// render. Destroy cancels any refresh timer and is safe to call more
// than once, or never.
type Widget interface {
	Init(ctx context.Context) error
	Destroy()
}

// Env carries the per-page-view collaborators widgets depend on. It is
// passed explicitly instead of living in package globals so a session's
// lifetime is visible.
type Env struct {
	State   *state.Store
	Feeds   *feeds.Registry
	Status  *status.Checker
	Metrics *metrics.Metrics // nil if disabled
	Themes  []string
}

func (e *Env) recordRefresh(widgetType string) {
	if e.Metrics != nil {
		e.Metrics.RecordRefresh(widgetType)
	}
}

func (e *Env) recordFetchError() {
	if e.Metrics != nil {
		e.Metrics.RecordFetchError()
	}
}

// esc escapes a string for inclusion in HTML fragments.
func esc(s string) string { return html.EscapeString(s) }

// cfgString reads a string config value with a fallback.
func cfgString(cfg map[string]any, key, fallback string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// cfgBool reads a boolean config value with a fallback.
func cfgBool(cfg map[string]any, key string, fallback bool) bool {
	if v, ok := cfg[key].(bool); ok {
		return v
	}
	return fallback
}

// cfgInt reads an integer config value with a fallback. YAML decodes
// integers as int, JSON as float64; both are accepted.
func cfgInt(cfg map[string]any, key string, fallback int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return fallback
}

// formatRelativeDate renders a timestamp the way the preview lists
// show it: "Today", "Yesterday", "N days ago", then a plain date.
func formatRelativeDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	now := time.Now()
	if t.Format("2006-01-02") == now.Format("2006-01-02") {
		return "Today"
	}
	days := int(now.Sub(t).Hours()/24) + 1
	switch {
	case days <= 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 2, 2006")
	}
}
