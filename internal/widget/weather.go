package widget

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// weather shows current conditions for a configured location,
// refreshed every ten minutes.
type weather struct {
	mount    *Mount
	env      *Env
	location string
	display  string
	units    string
	refresh  *refresher
}

func newWeather(mount *Mount, cfg map[string]any, env *Env) *weather {
	return &weather{
		mount:    mount,
		env:      env,
		location: cfgString(cfg, "location", ""),
		display:  cfgString(cfg, "displayName", ""),
		units:    cfgString(cfg, "units", "fahrenheit"),
	}
}

func (w *weather) Init(ctx context.Context) error {
	w.mount.SetLoading("Loading weather...")
	go w.update(ctx)
	w.refresh = startRefresher(ctx, 10*time.Minute, w.update)
	return nil
}

func (w *weather) Destroy() {
	w.refresh.Stop()
}

func (w *weather) update(ctx context.Context) {
	w.env.recordRefresh("weather")
	cond, err := w.env.Feeds.CurrentWeather(ctx, w.location, w.units)
	if err != nil {
		w.env.recordFetchError()
		w.mount.SetError("Weather unavailable", err.Error())
		return
	}

	unit := "°F"
	speed := "mph"
	if w.units == "celsius" {
		unit = "°C"
		speed = "m/s"
	}
	name := w.display
	if name == "" {
		name = cond.Location
	}

	var b strings.Builder
	b.WriteString(`<div class="weather-widget">`)
	b.WriteString(fmt.Sprintf(`<div class="weather-location">%s</div>`, esc(name)))
	b.WriteString(`<div class="weather-main">`)
	if cond.Icon != "" {
		b.WriteString(fmt.Sprintf(`<img class="weather-icon" src="https://openweathermap.org/img/wn/%s@2x.png" alt="%s">`, esc(cond.Icon), esc(cond.Condition)))
	}
	b.WriteString(fmt.Sprintf(`<div class="weather-temp">%d%s</div>`, cond.Temp, unit))
	b.WriteString(`</div>`)
	b.WriteString(fmt.Sprintf(`<div class="weather-desc">%s</div>`, esc(cond.Condition)))
	b.WriteString(`<div class="weather-details">`)
	b.WriteString(fmt.Sprintf(`<span>H %d%s / L %d%s</span>`, cond.High, unit, cond.Low, unit))
	b.WriteString(fmt.Sprintf(`<span>Feels like %d%s</span>`, cond.FeelsLike, unit))
	b.WriteString(fmt.Sprintf(`<span>Humidity %d%%</span>`, cond.Humidity))
	b.WriteString(fmt.Sprintf(`<span>Wind %d %s</span>`, cond.WindSpeed, speed))
	b.WriteString(`</div></div>`)

	w.mount.SetHTML(b.String())
}
