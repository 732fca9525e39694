package widget

import (
	"context"
	"fmt"
	"time"
)

// clock renders the current time, re-rendering every second.
type clock struct {
	mount   *Mount
	env     *Env
	format  string
	date    bool
	refresh *refresher
}

func newClock(mount *Mount, cfg map[string]any, env *Env) *clock {
	return &clock{
		mount:  mount,
		env:    env,
		format: cfgString(cfg, "format", "12h"),
		date:   cfgBool(cfg, "showDate", true),
	}
}

func (c *clock) Init(ctx context.Context) error {
	c.render()
	c.refresh = startRefresher(ctx, time.Second, func(context.Context) {
		c.render()
	})
	return nil
}

func (c *clock) render() {
	c.env.recordRefresh("clock")

	now := time.Now()
	timeStr := now.Format("3:04:05 PM")
	if c.format == "24h" {
		timeStr = now.Format("15:04:05")
	}

	html := fmt.Sprintf(`<div class="clock-widget"><div class="clock-time">%s</div>`, esc(timeStr))
	if c.date {
		html += fmt.Sprintf(`<div class="clock-date">%s</div>`, esc(now.Format("Monday, January 2, 2006")))
	}
	html += `</div>`
	c.mount.SetHTML(html)
}

func (c *clock) Destroy() {
	c.refresh.Stop()
}
