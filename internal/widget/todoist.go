package widget

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// todoist lists open tasks, optionally filtered by project and label.
// When nothing is due the widget collapses to nothing rather than
// showing an empty shell.
type todoist struct {
	mount    *Mount
	env      *Env
	project  string
	tag      string
	maxTasks int
	refresh  *refresher
}

func newTodoist(mount *Mount, cfg map[string]any, env *Env) *todoist {
	return &todoist{
		mount:    mount,
		env:      env,
		project:  cfgString(cfg, "projectName", ""),
		tag:      cfgString(cfg, "tag", ""),
		maxTasks: cfgInt(cfg, "maxTasks", 5),
	}
}

func (w *todoist) Init(ctx context.Context) error {
	w.mount.SetLoading("Loading tasks...")
	go w.update(ctx)
	w.refresh = startRefresher(ctx, 5*time.Minute, w.update)
	return nil
}

func (w *todoist) Destroy() {
	w.refresh.Stop()
}

func (w *todoist) update(ctx context.Context) {
	w.env.recordRefresh("todoist")
	tasks, err := w.env.Feeds.TodoistTasks(ctx, w.project, w.tag)
	if err != nil {
		w.env.recordFetchError()
		w.mount.SetError("Could not load tasks", err.Error())
		return
	}
	if len(tasks) > w.maxTasks {
		tasks = tasks[:w.maxTasks]
	}
	if len(tasks) == 0 {
		w.mount.SetHTML("")
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="todoist-widget">`)
	title := "Tasks"
	if w.project != "" {
		title = w.project
	}
	b.WriteString(fmt.Sprintf(`<div class="todoist-title">%s</div>`, esc(title)))
	b.WriteString(`<ul class="todoist-list">`)
	for _, task := range tasks {
		b.WriteString(`<li class="todoist-task">`)
		if task.URL != "" {
			b.WriteString(fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener">%s</a>`, esc(task.URL), esc(task.Content)))
		} else {
			b.WriteString(fmt.Sprintf(`<span>%s</span>`, esc(task.Content)))
		}
		if task.Due != nil && task.Due.Date != "" {
			b.WriteString(fmt.Sprintf(`<span class="todoist-due">%s</span>`, esc(task.Due.Date)))
		}
		b.WriteString(`</li>`)
	}
	b.WriteString(`</ul></div>`)
	w.mount.SetHTML(b.String())
}
