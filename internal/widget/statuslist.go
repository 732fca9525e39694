package widget

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/slatedash/slate/internal/status"
)

type statusTarget struct {
	name string
	url  string
}

// statusList shows reachability for a configured set of services.
// Probing is centralized in the status checker; this widget registers
// its targets and re-renders from the checker's snapshot.
type statusList struct {
	mount   *Mount
	env     *Env
	title   string
	targets []statusTarget
	refresh *refresher
}

func newStatusList(mount *Mount, cfg map[string]any, env *Env) *statusList {
	w := &statusList{
		mount: mount,
		env:   env,
		title: cfgString(cfg, "title", "Service Status"),
	}
	if raw, ok := cfg["services"].([]any); ok {
		for _, entry := range raw {
			switch v := entry.(type) {
			case string:
				w.targets = append(w.targets, statusTarget{name: v, url: v})
			case map[string]any:
				t := statusTarget{
					name: cfgString(v, "name", ""),
					url:  cfgString(v, "url", ""),
				}
				if t.name == "" {
					t.name = t.url
				}
				if t.url != "" {
					w.targets = append(w.targets, t)
				}
			}
		}
	}
	return w
}

func (w *statusList) Init(ctx context.Context) error {
	for _, t := range w.targets {
		w.env.Status.Track(t.url)
	}
	w.render()
	w.refresh = startRefresher(ctx, 30*time.Second, func(context.Context) {
		w.env.recordRefresh("status")
		w.render()
	})
	return nil
}

func (w *statusList) Destroy() {
	w.refresh.Stop()
}

func (w *statusList) render() {
	var b strings.Builder
	b.WriteString(`<div class="status-widget">`)
	b.WriteString(fmt.Sprintf(`<div class="status-title">%s</div>`, esc(w.title)))
	b.WriteString(`<ul class="status-list">`)
	for _, t := range w.targets {
		result, ok := w.env.Status.Get(t.url)
		state := status.StatusChecking
		latency := ""
		if ok {
			state = result.Status
			if state == status.StatusOnline {
				latency = fmt.Sprintf(`<span class="status-latency">%dms</span>`, result.LatencyMs)
			}
		}
		b.WriteString(fmt.Sprintf(
			`<li class="status-item"><span class="status-dot status-%s" title="%s"></span><span class="status-name">%s</span>%s</li>`,
			esc(state), esc(state), esc(t.name), latency))
	}
	b.WriteString(`</ul></div>`)
	w.mount.SetHTML(b.String())
}
