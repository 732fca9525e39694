package widget

import (
	"context"
	"fmt"
)

// radar embeds a Windy precipitation map centered on the configured
// location. Geocoding runs once at init; the embed itself is live.
type radar struct {
	mount    *Mount
	env      *Env
	location string
	display  string
	zoom     int
}

func newRadar(mount *Mount, cfg map[string]any, env *Env) *radar {
	return &radar{
		mount:    mount,
		env:      env,
		location: cfgString(cfg, "location", ""),
		display:  cfgString(cfg, "displayName", ""),
		zoom:     cfgInt(cfg, "zoom", 7),
	}
}

func (w *radar) Init(ctx context.Context) error {
	w.mount.SetLoading("Loading radar...")
	go func() {
		w.env.recordRefresh("radar")
		coords, err := w.env.Feeds.Geocode(ctx, w.location)
		if err != nil {
			w.env.recordFetchError()
			w.mount.SetError("Radar unavailable", err.Error())
			return
		}
		name := w.display
		if name == "" {
			name = coords.Name
		}
		src := fmt.Sprintf("https://embed.windy.com/embed2.html?lat=%.4f&lon=%.4f&zoom=%d&overlay=radar&level=surface&menu=false&message=false&marker=true&calendar=false&type=map&metricWind=mph&metricTemp=%%C2%%B0F",
			coords.Lat, coords.Lon, w.zoom)
		w.mount.SetHTML(fmt.Sprintf(
			`<div class="radar-widget"><div class="radar-location">%s</div><iframe class="radar-frame" src="%s" frameborder="0" loading="lazy"></iframe></div>`,
			esc(name), esc(src)))
	}()
	return nil
}

func (w *radar) Destroy() {}
