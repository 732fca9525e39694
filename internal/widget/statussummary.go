package widget

import (
	"context"
	"fmt"
	"time"
)

// statusSummary aggregates every tracked probe into a single count
// line. It takes no configuration.
type statusSummary struct {
	mount   *Mount
	env     *Env
	refresh *refresher
}

func newStatusSummary(mount *Mount, _ map[string]any, env *Env) *statusSummary {
	return &statusSummary{mount: mount, env: env}
}

func (w *statusSummary) Init(ctx context.Context) error {
	w.render()
	w.refresh = startRefresher(ctx, 30*time.Second, func(context.Context) {
		w.env.recordRefresh("status-summary")
		w.render()
	})
	return nil
}

func (w *statusSummary) Destroy() {
	w.refresh.Stop()
}

func (w *statusSummary) render() {
	online, offline, timedOut, checking := w.env.Status.Summary()
	total := online + offline + timedOut + checking

	if total == 0 {
		w.mount.SetHTML(`<div class="status-summary-widget"><p class="status-summary-empty">No services monitored</p></div>`)
		return
	}

	overall := "status-online"
	label := "All systems online"
	switch {
	case offline > 0 || timedOut > 0:
		overall = "status-offline"
		label = fmt.Sprintf("%d of %d services down", offline+timedOut, total)
	case checking > 0:
		overall = "status-checking"
		label = "Checking services..."
	}

	w.mount.SetHTML(fmt.Sprintf(
		`<div class="status-summary-widget"><span class="status-dot %s"></span><span class="status-summary-label">%s</span><span class="status-summary-counts">%d online / %d offline / %d timeout</span></div>`,
		overall, esc(label), online, offline, timedOut))
}
