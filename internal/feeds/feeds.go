// Package feeds talks to the external note/task/link services and
// normalizes their responses. Every backend that can feed the preview
// widget implements Provider; the registry wires configured backends
// together with the shared response cache so widgets and the HTTP API
// hit the same cached data.
package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/slatedash/slate/internal/cache"
	"github.com/slatedash/slate/internal/config"
)

// Item is the normalized shape every backend maps into.
type Item struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Date        time.Time `json:"date"`
	Tags        []string  `json:"tags"`
}

// Provider fetches recent items from one backend.
type Provider interface {
	Name() string
	RecentItems(ctx context.Context, limit int) ([]Item, error)
}

// UpstreamError reports a non-success response from a backend API.
type UpstreamError struct {
	Service string
	Status  int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Service, e.Status)
}

// NotConfiguredError reports a request for a backend that has no
// credentials configured.
type NotConfiguredError struct {
	Service string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("service %q is not configured", e.Service)
}

// IsUpstream reports whether err came from a backend API response.
func IsUpstream(err error) bool {
	var e *UpstreamError
	return errors.As(err, &e)
}

// IsUnknownService reports whether err names an unconfigured backend.
func IsUnknownService(err error) bool {
	var e *NotConfiguredError
	return errors.As(err, &e)
}

// Registry owns the configured backend clients and the response cache.
// Unconfigured backends are left nil and surface as "not configured"
// errors at call time rather than at startup.
type Registry struct {
	Trilium    *Trilium
	Linkwarden *Linkwarden
	Obsidian   *Obsidian
	Todoist    *Todoist
	Weather    *Weather
	Tailscale  *Tailscale

	providers map[string]Provider
	cache     *cache.Cache
}

func NewRegistry(cfg config.ServicesConfig, c *cache.Cache, client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	r := &Registry{cache: c, providers: make(map[string]Provider)}

	if cfg.Trilium.URL != "" {
		r.Trilium = &Trilium{baseURL: cfg.Trilium.URL, token: cfg.Trilium.Token, client: client}
		r.providers[r.Trilium.Name()] = r.Trilium
	}
	if cfg.Linkwarden.URL != "" {
		r.Linkwarden = &Linkwarden{baseURL: cfg.Linkwarden.URL, apiKey: cfg.Linkwarden.APIKey, client: client}
		r.providers[r.Linkwarden.Name()] = r.Linkwarden
	}
	if cfg.Obsidian.URL != "" {
		r.Obsidian = &Obsidian{baseURL: cfg.Obsidian.URL, apiKey: cfg.Obsidian.APIKey, vault: cfg.Obsidian.Vault, client: client}
		r.providers[r.Obsidian.Name()] = r.Obsidian
	}
	if cfg.Todoist.Token != "" {
		r.Todoist = &Todoist{token: cfg.Todoist.Token, client: client}
		r.providers[r.Todoist.Name()] = r.Todoist
	}
	if cfg.Weather.APIKey != "" {
		r.Weather = &Weather{apiKey: cfg.Weather.APIKey, client: client}
	}
	if cfg.Tailscale.APIKey != "" {
		r.Tailscale = &Tailscale{tailnet: cfg.Tailscale.Tailnet, apiKey: cfg.Tailscale.APIKey, client: client}
	}

	return r
}

// Provider returns the named backend, if configured.
func (r *Registry) Provider(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// RecentItems fetches recent items from the named backend through the
// response cache. A failed refresh serves the stale entry when one
// exists.
func (r *Registry) RecentItems(ctx context.Context, service string, limit int) ([]Item, error) {
	p, ok := r.providers[service]
	if !ok {
		return nil, &NotConfiguredError{Service: service}
	}

	key := fmt.Sprintf("%s_recent_%d", service, limit)
	data, err := r.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		items, err := p.RecentItems(ctx, limit)
		if err != nil {
			return nil, err
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return data.([]Item), nil
}

// TriliumNotesByTag searches Trilium notes by tag through the cache.
func (r *Registry) TriliumNotesByTag(ctx context.Context, tag string, limit int) ([]Item, error) {
	if r.Trilium == nil {
		return nil, &NotConfiguredError{Service: "trilium"}
	}
	key := fmt.Sprintf("trilium_tag_%s_%d", tag, limit)
	data, err := r.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.Trilium.NotesByTag(ctx, tag, limit)
		if err != nil {
			return nil, err
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return data.([]Item), nil
}

// TodoistTasks fetches Todoist tasks through the cache.
func (r *Registry) TodoistTasks(ctx context.Context, projectName, tag string) ([]Task, error) {
	if r.Todoist == nil {
		return nil, &NotConfiguredError{Service: "todoist"}
	}
	key := fmt.Sprintf("todoist_%s_%s", projectName, tag)
	data, err := r.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		tasks, err := r.Todoist.Tasks(ctx, projectName, tag)
		if err != nil {
			return nil, err
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return data.([]Task), nil
}

// CurrentWeather fetches current conditions through the cache.
func (r *Registry) CurrentWeather(ctx context.Context, location, units string) (*Conditions, error) {
	if r.Weather == nil {
		return nil, &NotConfiguredError{Service: "weather"}
	}
	key := fmt.Sprintf("weather_%s_%s", location, units)
	data, err := r.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return r.Weather.Current(ctx, location, units)
	})
	if err != nil {
		return nil, err
	}
	return data.(*Conditions), nil
}

// Geocode resolves a location to coordinates through the cache.
func (r *Registry) Geocode(ctx context.Context, location string) (*Coordinates, error) {
	if r.Weather == nil {
		return nil, &NotConfiguredError{Service: "weather"}
	}
	key := "geocode_" + location
	data, err := r.cache.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return r.Weather.Geocode(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	return data.(*Coordinates), nil
}

// TailscaleDevices lists tailnet devices through the cache.
func (r *Registry) TailscaleDevices(ctx context.Context) ([]Device, error) {
	if r.Tailscale == nil {
		return nil, &NotConfiguredError{Service: "tailscale"}
	}
	data, err := r.cache.Fetch(ctx, "tailscale_devices", func(ctx context.Context) (any, error) {
		devices, err := r.Tailscale.Devices(ctx)
		if err != nil {
			return nil, err
		}
		return devices, nil
	})
	if err != nil {
		return nil, err
	}
	return data.([]Device), nil
}

// getJSON performs an authenticated GET and decodes the JSON body.
func getJSON(ctx context.Context, client *http.Client, service, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching from %s: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &UpstreamError{Service: service, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", service, err)
	}
	return nil
}

// parseDate parses the assorted timestamp formats the backends emit.
// Unparseable dates come back as the zero time, never an error.
func parseDate(s string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05.000Z07:00",
		"2006-01-02 15:04:05.000Z",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
