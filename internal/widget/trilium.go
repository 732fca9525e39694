package widget

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// trilium lists notes carrying a configured tag, newest first.
type trilium struct {
	mount    *Mount
	env      *Env
	tag      string
	maxNotes int
	refresh  *refresher
}

func newTrilium(mount *Mount, cfg map[string]any, env *Env) *trilium {
	return &trilium{
		mount:    mount,
		env:      env,
		tag:      cfgString(cfg, "tag", ""),
		maxNotes: cfgInt(cfg, "maxNotes", 5),
	}
}

func (w *trilium) Init(ctx context.Context) error {
	w.mount.SetLoading("Loading notes...")
	go w.update(ctx)
	w.refresh = startRefresher(ctx, 5*time.Minute, w.update)
	return nil
}

func (w *trilium) Destroy() {
	w.refresh.Stop()
}

func (w *trilium) update(ctx context.Context) {
	w.env.recordRefresh("trilium")
	notes, err := w.env.Feeds.TriliumNotesByTag(ctx, w.tag, w.maxNotes)
	if err != nil {
		w.env.recordFetchError()
		w.mount.SetError("Could not load Trilium notes", err.Error())
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="trilium-widget">`)
	b.WriteString(fmt.Sprintf(`<div class="trilium-title">#%s</div>`, esc(w.tag)))
	if len(notes) == 0 {
		b.WriteString(fmt.Sprintf(`<p class="trilium-empty">No notes tagged #%s</p>`, esc(w.tag)))
	} else {
		b.WriteString(`<ul class="trilium-list">`)
		for _, note := range notes {
			b.WriteString(`<li class="trilium-note">`)
			b.WriteString(fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener">%s</a>`, esc(note.URL), esc(note.Title)))
			if !note.Date.IsZero() {
				b.WriteString(fmt.Sprintf(`<span class="trilium-date">%s</span>`, esc(formatRelativeDate(note.Date))))
			}
			b.WriteString(`</li>`)
		}
		b.WriteString(`</ul>`)
	}
	b.WriteString(`</div>`)
	w.mount.SetHTML(b.String())
}
