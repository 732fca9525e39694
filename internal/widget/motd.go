package widget

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var motdMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// motd shows a message of the day. The message body is rendered as
// GitHub-flavored markdown.
type motd struct {
	mount *Mount
	cfg   map[string]any
}

func newMOTD(mount *Mount, cfg map[string]any) *motd {
	return &motd{mount: mount, cfg: cfg}
}

func (w *motd) Init(ctx context.Context) error {
	title := cfgString(w.cfg, "title", "Message of the Day")
	message := cfgString(w.cfg, "message", "No message configured")
	icon := cfgString(w.cfg, "icon", "📢")
	priority := cfgString(w.cfg, "priority", "normal")
	dismissible := cfgBool(w.cfg, "dismissible", false)
	timestamp := cfgBool(w.cfg, "timestamp", true)
	className := cfgString(w.cfg, "className", "")

	var body bytes.Buffer
	if err := motdMarkdown.Convert([]byte(message), &body); err != nil {
		log.Printf("[widget] motd markdown render failed: %v", err)
		body.Reset()
		body.WriteString("<p>" + esc(message) + "</p>")
	}

	html := fmt.Sprintf(`<div class="motd-widget %s" data-priority="%s"><div class="motd-header"><span class="motd-icon">%s</span><h3 class="motd-title">%s</h3>`,
		esc(className), esc(priority), esc(icon), esc(title))
	if dismissible {
		html += `<button class="motd-dismiss" title="Dismiss message">&times;</button>`
	}
	html += fmt.Sprintf(`</div><div class="motd-message">%s</div>`, body.String())
	if timestamp {
		html += fmt.Sprintf(`<div class="motd-timestamp">Updated: %s</div>`, esc(time.Now().Format("Jan 2, 2006 3:04 PM")))
	}
	html += `</div>`

	w.mount.SetHTML(html)
	return nil
}

func (w *motd) Destroy() {}
