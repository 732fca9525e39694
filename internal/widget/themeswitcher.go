package widget

import (
	"context"
	"fmt"
	"strings"
)

// themeSwitcher renders a theme selector. Selection is applied by the
// page script, which posts the choice to the state endpoint; the
// persisted theme survives reloads.
type themeSwitcher struct {
	mount  *Mount
	env    *Env
	themes []string
}

func newThemeSwitcher(mount *Mount, cfg map[string]any, env *Env) *themeSwitcher {
	themes := env.Themes
	if raw, ok := cfg["availableThemes"].([]any); ok && len(raw) > 0 {
		themes = themes[:0:0]
		for _, v := range raw {
			if s, ok := v.(string); ok {
				themes = append(themes, s)
			}
		}
	}
	if len(themes) == 0 {
		themes = []string{"dark", "light"}
	}
	return &themeSwitcher{mount: mount, env: env, themes: themes}
}

func (w *themeSwitcher) Init(ctx context.Context) error {
	current := w.env.State.Theme(w.themes[0])

	var b strings.Builder
	b.WriteString(`<div class="theme-switcher-widget"><label class="theme-switcher-label">🎨 Theme</label>`)
	b.WriteString(`<select class="theme-switcher-select" data-role="theme-select">`)
	for _, theme := range w.themes {
		selected := ""
		if theme == current {
			selected = " selected"
		}
		b.WriteString(fmt.Sprintf(`<option value="%s"%s>%s</option>`, esc(theme), selected, esc(titleFirst(theme))))
	}
	b.WriteString(`</select></div>`)

	w.mount.SetHTML(b.String())
	return nil
}

func (w *themeSwitcher) Destroy() {}

func titleFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
