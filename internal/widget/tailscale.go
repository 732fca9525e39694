package widget

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// tailscale lists tailnet devices with their online state.
type tailscale struct {
	mount   *Mount
	env     *Env
	refresh *refresher
}

func newTailscale(mount *Mount, _ map[string]any, env *Env) *tailscale {
	return &tailscale{mount: mount, env: env}
}

func (w *tailscale) Init(ctx context.Context) error {
	w.mount.SetLoading("Loading tailnet...")
	go w.update(ctx)
	w.refresh = startRefresher(ctx, 2*time.Minute, w.update)
	return nil
}

func (w *tailscale) Destroy() {
	w.refresh.Stop()
}

func (w *tailscale) update(ctx context.Context) {
	w.env.recordRefresh("tailscale")
	devices, err := w.env.Feeds.TailscaleDevices(ctx)
	if err != nil {
		w.env.recordFetchError()
		w.mount.SetError("Could not load Tailscale devices", err.Error())
		return
	}

	online := 0
	for _, d := range devices {
		if d.Online {
			online++
		}
	}

	var b strings.Builder
	b.WriteString(`<div class="tailscale-widget">`)
	b.WriteString(fmt.Sprintf(`<div class="tailscale-title">Tailscale <span class="tailscale-count">%d/%d online</span></div>`, online, len(devices)))
	b.WriteString(`<ul class="tailscale-list">`)
	for _, d := range devices {
		state := "status-offline"
		if d.Online {
			state = "status-online"
		}
		addr := ""
		if len(d.Addrs) > 0 {
			addr = fmt.Sprintf(`<span class="tailscale-addr">%s</span>`, esc(d.Addrs[0]))
		}
		b.WriteString(fmt.Sprintf(
			`<li class="tailscale-device"><span class="status-dot %s"></span><span class="tailscale-name">%s</span><span class="tailscale-os">%s</span>%s</li>`,
			state, esc(d.Hostname), esc(d.OS), addr))
	}
	b.WriteString(`</ul></div>`)
	w.mount.SetHTML(b.String())
}
