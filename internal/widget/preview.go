package widget

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// preview lists the most recent items from one configured backend
// service. An empty result is a normal state, not an error.
type preview struct {
	mount   *Mount
	env     *Env
	service string
	title   string
	limit   int
	refresh *refresher
}

func newPreview(mount *Mount, cfg map[string]any, env *Env) *preview {
	w := &preview{
		mount:   mount,
		env:     env,
		service: cfgString(cfg, "service", ""),
		title:   cfgString(cfg, "title", ""),
		limit:   cfgInt(cfg, "limit", 3),
	}
	if w.title == "" {
		w.title = "Recent " + titleFirst(w.service)
	}
	return w
}

func (w *preview) Init(ctx context.Context) error {
	w.mount.SetLoading("Loading recent items...")
	go w.update(ctx)
	w.refresh = startRefresher(ctx, 5*time.Minute, w.update)
	return nil
}

func (w *preview) Destroy() {
	w.refresh.Stop()
}

func (w *preview) update(ctx context.Context) {
	w.env.recordRefresh("preview")
	items, err := w.env.Feeds.RecentItems(ctx, w.service, w.limit)
	if err != nil {
		w.env.recordFetchError()
		w.mount.SetError(fmt.Sprintf("Could not load %s items", w.service), err.Error())
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="preview-widget">`)
	b.WriteString(fmt.Sprintf(`<div class="preview-title">%s</div>`, esc(w.title)))
	if len(items) == 0 {
		b.WriteString(`<p class="preview-empty">No recent items found</p>`)
	} else {
		b.WriteString(`<ul class="preview-list">`)
		for _, item := range items {
			b.WriteString(`<li class="preview-item">`)
			if item.URL != "" {
				b.WriteString(fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener">%s</a>`, esc(item.URL), esc(item.Title)))
			} else {
				b.WriteString(fmt.Sprintf(`<span>%s</span>`, esc(item.Title)))
			}
			if !item.Date.IsZero() {
				b.WriteString(fmt.Sprintf(`<span class="preview-date">%s</span>`, esc(formatRelativeDate(item.Date))))
			}
			b.WriteString(`</li>`)
		}
		b.WriteString(`</ul>`)
	}
	b.WriteString(`</div>`)
	w.mount.SetHTML(b.String())
}
