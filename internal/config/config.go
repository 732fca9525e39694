package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Component is one node in the declarative layout tree. Its Type decides
// which of the remaining fields are meaningful.
type Component struct {
	ID              string    `yaml:"id"`
	Type            string    `yaml:"type"` // "group", "widget" or "link"
	Position        *Position `yaml:"position"`
	BackgroundColor string    `yaml:"backgroundColor"`
	Group           string    `yaml:"group"` // id of the group this node belongs to

	// Group fields
	Title       string      `yaml:"title"`
	Collapsed   bool        `yaml:"collapsed"`
	Collapsible *bool       `yaml:"collapsible"` // nil means true
	Layout      string      `yaml:"layout"`
	Children    []Component `yaml:"children"`
	Items       []Component `yaml:"items"` // legacy alias for children

	// Widget fields
	Widget string         `yaml:"widget"`
	Config map[string]any `yaml:"config"`

	// Link fields
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
	StatusCheck bool   `yaml:"statusCheck"`
	Compact     bool   `yaml:"compact"`
}

// IsCollapsible reports whether a group renders a collapse affordance.
// Unset defaults to true.
func (c *Component) IsCollapsible() bool {
	return c.Collapsible == nil || *c.Collapsible
}

// Position is the optional grid placement of a component. Column accepts
// either an integer (paired with span) or a legacy verbatim span string
// such as "3 / span 4".
type Position struct {
	Row        int
	Column     int
	Span       int
	ColumnSpec string
}

func (p *Position) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Row    int       `yaml:"row"`
		Column yaml.Node `yaml:"column"`
		Span   int       `yaml:"span"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	p.Row = raw.Row
	p.Span = raw.Span
	if raw.Column.Kind == yaml.ScalarNode {
		var n int
		if err := raw.Column.Decode(&n); err == nil {
			p.Column = n
		} else if err := raw.Column.Decode(&p.ColumnSpec); err != nil {
			return fmt.Errorf("position column: %w", err)
		}
	}
	return nil
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"` // e.g. ":8080"
	StateFile  string `yaml:"state_file"`  // path for persisted UI state
	Password   string `yaml:"password"`    // optional dashboard password
}

type DashboardConfig struct {
	Title   string `yaml:"title"`
	Theme   string `yaml:"theme"`
	Columns int    `yaml:"columns"`
	Gap     string `yaml:"gap"`
}

type TriliumConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type LinkwardenConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

type ObsidianConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Vault  string `yaml:"vault"`
}

type TodoistConfig struct {
	Token string `yaml:"token"`
}

type WeatherConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Tailnet string `yaml:"tailnet"`
	APIKey  string `yaml:"api_key"`
}

type ServicesConfig struct {
	Trilium    TriliumConfig    `yaml:"trilium"`
	Linkwarden LinkwardenConfig `yaml:"linkwarden"`
	Obsidian   ObsidianConfig   `yaml:"obsidian"`
	Todoist    TodoistConfig    `yaml:"todoist"`
	Weather    WeatherConfig    `yaml:"weather"`
	Tailscale  TailscaleConfig  `yaml:"tailscale"`
}

type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
	TTLSec     int `yaml:"ttl_sec"`
}

type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled"`
	RequestsPerMin int  `yaml:"requests_per_min"`
	BurstSize      int  `yaml:"burst_size"`
}

type StatusCheckConfig struct {
	IntervalSec int `yaml:"interval_sec"` // re-probe cadence
	TimeoutSec  int `yaml:"timeout_sec"`  // per-probe hard timeout
	CacheTTLSec int `yaml:"cache_ttl_sec"`
}

type LoggingConfig struct {
	Format string `yaml:"format"` // "json" or "text" (default "text")
}

type Config struct {
	Server      ServerConfig                 `yaml:"server"`
	Dashboard   DashboardConfig              `yaml:"dashboard"`
	Themes      map[string]map[string]string `yaml:"themes"`
	Icons       map[string]string            `yaml:"icons"`
	Components  []Component                  `yaml:"components"`
	Services    ServicesConfig               `yaml:"services"`
	Cache       CacheConfig                  `yaml:"cache"`
	RateLimit   RateLimitConfig              `yaml:"rate_limit"`
	StatusCheck StatusCheckConfig            `yaml:"status_check"`
	Logging     LoggingConfig                `yaml:"logging"`

	configPath string `yaml:"-"` // set during Load
}

// ConfigPath returns the path to the loaded config file.
func (c *Config) ConfigPath() string { return c.configPath }

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			StateFile:  "slate-state.json",
		},
		Dashboard: DashboardConfig{
			Title:   "Dashboard",
			Theme:   "dark",
			Columns: 12,
			Gap:     "1rem",
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Dashboard.Columns <= 0 {
		cfg.Dashboard.Columns = 12
	}
	if cfg.Dashboard.Gap == "" {
		cfg.Dashboard.Gap = "1rem"
	}
	if cfg.Dashboard.Theme == "" {
		cfg.Dashboard.Theme = "dark"
	}

	// Defaults for the response cache
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 500
	}
	if cfg.Cache.TTLSec == 0 {
		cfg.Cache.TTLSec = 300
	}

	// Defaults for rate limiting
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerMin == 0 {
		cfg.RateLimit.RequestsPerMin = 120
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.BurstSize == 0 {
		cfg.RateLimit.BurstSize = 20
	}

	// Defaults for status checking
	if cfg.StatusCheck.IntervalSec == 0 {
		cfg.StatusCheck.IntervalSec = 60
	}
	if cfg.StatusCheck.TimeoutSec == 0 {
		cfg.StatusCheck.TimeoutSec = 5
	}
	if cfg.StatusCheck.CacheTTLSec == 0 {
		cfg.StatusCheck.CacheTTLSec = 60
	}

	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	cfg.applyEnvFallbacks()
	normalizeComponents(cfg.Components)

	cfg.configPath = path
	return cfg, nil
}

// applyEnvFallbacks fills service credentials from the environment when
// the config file leaves them empty, so secrets can stay out of YAML.
func (c *Config) applyEnvFallbacks() {
	fill(&c.Services.Trilium.URL, "TRILIUM_URL")
	fill(&c.Services.Trilium.Token, "TRILIUM_TOKEN")
	fill(&c.Services.Linkwarden.URL, "LINKWARDEN_URL")
	fill(&c.Services.Linkwarden.APIKey, "LINKWARDEN_API_KEY")
	fill(&c.Services.Obsidian.URL, "OBSIDIAN_API_URL")
	fill(&c.Services.Obsidian.APIKey, "OBSIDIAN_API_KEY")
	fill(&c.Services.Todoist.Token, "TODOIST_API_TOKEN")
	fill(&c.Services.Weather.APIKey, "OPENWEATHER_API_KEY")
	fill(&c.Services.Tailscale.Tailnet, "TAILSCALE_TAILNET")
	fill(&c.Services.Tailscale.APIKey, "TAILSCALE_API_KEY")
}

func fill(dst *string, envKey string) {
	if *dst == "" {
		*dst = os.Getenv(envKey)
	}
}

// normalizeComponents assigns ids to nodes that lack one and folds the
// legacy "items" list into "children", recursively.
func normalizeComponents(components []Component) {
	for i := range components {
		c := &components[i]
		if c.ID == "" {
			c.ID = "component-" + uuid.NewString()[:8]
		}
		if len(c.Items) > 0 {
			c.Children = append(c.Children, c.Items...)
			c.Items = nil
		}
		normalizeComponents(c.Children)
	}
}

// FindComponent looks up a component by id anywhere in the tree.
func (c *Config) FindComponent(id string) *Component {
	return findComponent(c.Components, id)
}

func findComponent(components []Component, id string) *Component {
	for i := range components {
		if components[i].ID == id {
			return &components[i]
		}
		if found := findComponent(components[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}

// sensitiveKeys are config fields that must never reach the browser.
var sensitiveKeys = []string{
	"apiKey", "apiToken", "token", "password", "secret", "key",
	"vaultPath", "basePath", "filePath", "privateKey", "accessToken",
}

// SanitizeWidgetConfig returns a copy of a widget config with all
// secret-bearing keys removed.
func SanitizeWidgetConfig(raw map[string]any) map[string]any {
	safe := make(map[string]any, len(raw))
	for k, v := range raw {
		safe[k] = v
	}
	for _, k := range sensitiveKeys {
		delete(safe, k)
	}
	return safe
}

// ThemeNames lists the configured theme names, always including the
// built-in defaults. Custom names are sorted so option lists and
// emitted CSS keep a stable order across requests.
func (c *Config) ThemeNames() []string {
	names := []string{"dark", "light"}
	seen := map[string]bool{"dark": true, "light": true}
	var custom []string
	for name := range c.Themes {
		if !seen[name] {
			custom = append(custom, name)
			seen[name] = true
		}
	}
	sort.Strings(custom)
	return append(names, custom...)
}
