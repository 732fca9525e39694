package widget

import (
	"context"
	"fmt"
)

// image is a static image or logo. No network, no timer.
type image struct {
	mount *Mount
	cfg   map[string]any
}

func newImage(mount *Mount, cfg map[string]any) *image {
	return &image{mount: mount, cfg: cfg}
}

func (w *image) Init(ctx context.Context) error {
	src := cfgString(w.cfg, "src", "")
	alt := cfgString(w.cfg, "alt", "")
	height := cfgString(w.cfg, "height", "")
	objectFit := cfgString(w.cfg, "objectFit", "contain")
	className := cfgString(w.cfg, "className", "")

	style := fmt.Sprintf("object-fit:%s;", esc(objectFit))
	if height != "" {
		style += fmt.Sprintf("height:%s;", esc(height))
	}

	w.mount.SetHTML(fmt.Sprintf(
		`<div class="image-widget %s"><img src="%s" alt="%s" style="%s"></div>`,
		esc(className), esc(src), esc(alt), style))
	return nil
}

func (w *image) Destroy() {}
