package widget

import (
	"fmt"
	"sync"
)

// Mount is a widget's render target: the server-side stand-in for the
// DOM node a widget exclusively owns. Widgets replace its HTML fragment
// wholesale on every render; the renderer reads it when building the
// page and the live-update hub pushes changes to connected browsers.
type Mount struct {
	ID string

	mu       sync.Mutex
	html     string
	onUpdate func(id, html string)
}

func NewMount(id string) *Mount {
	return &Mount{ID: id}
}

// OnUpdate registers a callback invoked after every fragment change.
// The callback must not call back into the mount.
func (m *Mount) OnUpdate(fn func(id, html string)) {
	m.mu.Lock()
	m.onUpdate = fn
	m.mu.Unlock()
}

// SetHTML replaces the mount's fragment.
func (m *Mount) SetHTML(html string) {
	m.mu.Lock()
	m.html = html
	fn := m.onUpdate
	m.mu.Unlock()

	if fn != nil {
		fn(m.ID, html)
	}
}

// SetLoading renders the synchronous loading state.
func (m *Mount) SetLoading(message string) {
	if message == "" {
		message = "Loading..."
	}
	m.SetHTML(fmt.Sprintf(`<div class="loading"><div class="spinner"></div><p>%s</p></div>`, esc(message)))
}

// SetError renders the inline error panel. Failures stay inside the
// mount; nothing propagates to sibling nodes.
func (m *Mount) SetError(context, message string) {
	m.SetHTML(fmt.Sprintf(`<div class="widget-error"><p>%s</p><small>%s</small></div>`,
		esc(context), esc(message)))
}

// HTML returns the current fragment.
func (m *Mount) HTML() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.html
}
