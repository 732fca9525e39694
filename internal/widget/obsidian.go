package widget

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// obsidian lists vault notes via the Local REST API plugin. The API
// does not expose tags or modification times, so the listing is
// best-effort.
type obsidian struct {
	mount    *Mount
	env      *Env
	maxNotes int
	refresh  *refresher
}

func newObsidian(mount *Mount, cfg map[string]any, env *Env) *obsidian {
	return &obsidian{
		mount:    mount,
		env:      env,
		maxNotes: cfgInt(cfg, "maxNotes", 5),
	}
}

func (w *obsidian) Init(ctx context.Context) error {
	w.mount.SetLoading("Loading vault...")
	go w.update(ctx)
	w.refresh = startRefresher(ctx, 5*time.Minute, w.update)
	return nil
}

func (w *obsidian) Destroy() {
	w.refresh.Stop()
}

func (w *obsidian) update(ctx context.Context) {
	w.env.recordRefresh("obsidian")
	notes, err := w.env.Feeds.RecentItems(ctx, "obsidian", w.maxNotes)
	if err != nil {
		w.env.recordFetchError()
		w.mount.SetError("Could not load Obsidian notes", err.Error())
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="obsidian-widget"><div class="obsidian-title">Obsidian</div>`)
	if len(notes) == 0 {
		b.WriteString(`<p class="obsidian-empty">Vault is empty</p>`)
	} else {
		b.WriteString(`<ul class="obsidian-list">`)
		for _, note := range notes {
			b.WriteString(fmt.Sprintf(
				`<li class="obsidian-note"><a href="%s">%s</a></li>`,
				esc(note.URL), esc(note.Title)))
		}
		b.WriteString(`</ul>`)
	}
	b.WriteString(`</div>`)
	w.mount.SetHTML(b.String())
}
