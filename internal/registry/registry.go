// Package registry holds the static definitions of every widget type:
// its config schema, capabilities and external dependencies. The table
// is pure data, loaded once and never mutated; the widget loader
// consumes it for validation and capability lookups.
package registry

import "sort"

// FieldType enumerates the schema types a config field can declare.
type FieldType string

const (
	String  FieldType = "string"
	Boolean FieldType = "boolean"
	Integer FieldType = "integer"
	Array   FieldType = "array"
	Enum    FieldType = "enum"
)

// Field describes one config field of a widget schema.
type Field struct {
	Type     FieldType `json:"type"`
	Required bool      `json:"required,omitempty"`
	Default  any       `json:"default,omitempty"`
	Enum     []string  `json:"enum,omitempty"`
}

// Capability flags a widget can declare.
const (
	CapAPIIntegration    = "apiIntegration"
	CapCaching           = "caching"
	CapRealTimeUpdates   = "realTimeUpdates"
	CapStatusMonitoring  = "statusMonitoring"
	CapStatusAggregation = "statusAggregation"
	CapUserInteraction   = "userInteraction"
	CapCustomStyling     = "customStyling"
	CapMultiService      = "multiService"
	CapHasChildren       = "hasChildren"
	CapLocalState        = "localState"
)

// Dependencies names the external requirements of a widget type.
type Dependencies struct {
	Env       []string `json:"env,omitempty"`       // environment variables
	Endpoints []string `json:"endpoints,omitempty"` // server endpoints the widget relies on
}

// Definition is one immutable registry entry.
type Definition struct {
	Category     string           `json:"category"` // "container", "interactive", "service", "content", "widget"
	Description  string           `json:"description"`
	Schema       map[string]Field `json:"schema,omitempty"` // nil means legacy/unchecked
	Capabilities map[string]bool  `json:"capabilities,omitempty"`
	Dependencies Dependencies     `json:"dependencies,omitempty"`
}

var definitions = map[string]Definition{
	"group": {
		Category:    "container",
		Description: "Collapsible container for organizing other components",
		Schema: map[string]Field{
			"title":           {Type: String},
			"collapsed":       {Type: Boolean, Default: false},
			"backgroundColor": {Type: String},
			"items":           {Type: Array, Required: true},
		},
		Capabilities: map[string]bool{
			CapHasChildren:   true,
			CapCustomStyling: true,
		},
	},
	"link": {
		Category:    "interactive",
		Description: "Clickable link with optional status monitoring",
		Schema: map[string]Field{
			"name":        {Type: String, Required: true},
			"url":         {Type: String, Required: true},
			"icon":        {Type: String},
			"description": {Type: String},
			"statusCheck": {Type: Boolean, Default: false},
			"compact":     {Type: Boolean, Default: false},
		},
		Capabilities: map[string]bool{
			CapStatusMonitoring: true,
			CapCustomStyling:    true,
		},
	},
	"trilium": {
		Category:    "service",
		Description: "Displays Trilium notes filtered by tag",
		Schema: map[string]Field{
			"tag":      {Type: String, Required: true},
			"maxNotes": {Type: Integer, Default: 5},
		},
		Capabilities: map[string]bool{
			CapAPIIntegration:  true,
			CapCaching:         true,
			CapRealTimeUpdates: true,
		},
		Dependencies: Dependencies{
			Env:       []string{"TRILIUM_TOKEN", "TRILIUM_URL"},
			Endpoints: []string{"/api/trilium"},
		},
	},
	"obsidian": {
		Category:    "service",
		Description: "Displays Obsidian notes (limited functionality)",
		Schema: map[string]Field{
			"tag":      {Type: String},
			"maxNotes": {Type: Integer, Default: 5},
		},
		Capabilities: map[string]bool{
			CapAPIIntegration: true,
			CapCaching:        true,
		},
		Dependencies: Dependencies{
			Env:       []string{"OBSIDIAN_API_KEY", "OBSIDIAN_API_URL"},
			Endpoints: []string{"/api/obsidian"},
		},
	},
	"todoist": {
		Category:    "service",
		Description: "Displays tasks from Todoist",
		Schema: map[string]Field{
			"projectName": {Type: String},
			"tag":         {Type: String},
			"maxTasks":    {Type: Integer, Default: 5},
		},
		Capabilities: map[string]bool{
			CapAPIIntegration:  true,
			CapCaching:         true,
			CapRealTimeUpdates: true,
		},
		Dependencies: Dependencies{
			Env: []string{"TODOIST_API_TOKEN"},
		},
	},
	"preview": {
		Category:    "service",
		Description: "Shows recent items from external services",
		Schema: map[string]Field{
			"service": {Type: Enum, Required: true, Enum: []string{"trilium", "linkwarden", "obsidian"}},
			"title":   {Type: String},
			"limit":   {Type: Integer, Default: 3},
		},
		Capabilities: map[string]bool{
			CapMultiService:   true,
			CapAPIIntegration: true,
			CapCaching:        true,
		},
		Dependencies: Dependencies{
			Endpoints: []string{"/api/trilium/recent", "/api/linkwarden/recent", "/api/obsidian/recent"},
		},
	},
	"motd": {
		Category:    "content",
		Description: "Message of the day with markdown support",
		Schema: map[string]Field{
			"title":       {Type: String},
			"message":     {Type: String, Required: true},
			"icon":        {Type: String},
			"priority":    {Type: Enum, Enum: []string{"low", "normal", "high"}, Default: "normal"},
			"dismissible": {Type: Boolean, Default: false},
			"timestamp":   {Type: Boolean, Default: true},
			"className":   {Type: String},
		},
		Capabilities: map[string]bool{
			CapUserInteraction: true,
			CapCustomStyling:   true,
			CapLocalState:      true,
		},
	},
	"clock": {
		Category:    "widget",
		Description: "Digital clock with date display",
		Schema: map[string]Field{
			"format":   {Type: Enum, Enum: []string{"12h", "24h"}, Default: "12h"},
			"showDate": {Type: Boolean, Default: true},
		},
		Capabilities: map[string]bool{
			CapRealTimeUpdates: true,
		},
	},
	"weather": {
		Category:    "widget",
		Description: "Current weather conditions",
		Schema: map[string]Field{
			"location":    {Type: String, Required: true},
			"displayName": {Type: String},
			"units":       {Type: Enum, Enum: []string{"fahrenheit", "celsius"}, Default: "fahrenheit"},
		},
		Capabilities: map[string]bool{
			CapAPIIntegration: true,
			CapCaching:        true,
		},
		Dependencies: Dependencies{
			Env: []string{"OPENWEATHER_API_KEY"},
		},
	},
	"radar": {
		Category:    "widget",
		Description: "Weather radar overlay",
		Schema: map[string]Field{
			"location":    {Type: String, Required: true},
			"displayName": {Type: String},
			"zoom":        {Type: Integer, Default: 7},
		},
		Capabilities: map[string]bool{
			CapAPIIntegration: true,
			CapCaching:        true,
		},
		Dependencies: Dependencies{
			Env: []string{"OPENWEATHER_API_KEY"},
		},
	},
	"theme-switcher": {
		Category:    "widget",
		Description: "Theme switching interface",
		Schema: map[string]Field{
			"availableThemes": {Type: Array},
		},
		Capabilities: map[string]bool{
			CapUserInteraction: true,
			CapLocalState:      true,
			CapRealTimeUpdates: true,
		},
	},
	"image": {
		Category:    "widget",
		Description: "Displays images and logos",
		Schema: map[string]Field{
			"src":       {Type: String, Required: true},
			"alt":       {Type: String},
			"height":    {Type: String},
			"objectFit": {Type: Enum, Enum: []string{"contain", "cover", "fill", "scale-down"}, Default: "contain"},
			"className": {Type: String},
		},
		Capabilities: map[string]bool{
			CapCustomStyling: true,
		},
	},
	"status": {
		Category:    "widget",
		Description: "Reachability list for a set of services",
		Schema: map[string]Field{
			"services": {Type: Array, Required: true},
			"title":    {Type: String},
		},
		Capabilities: map[string]bool{
			CapStatusMonitoring: true,
			CapRealTimeUpdates:  true,
		},
	},
	"status-summary": {
		Category:    "widget",
		Description: "Aggregate status monitoring display",
		Schema:      map[string]Field{},
		Capabilities: map[string]bool{
			CapStatusAggregation: true,
			CapRealTimeUpdates:   true,
		},
	},
	// Experimental: schema not settled yet, validated as legacy.
	"tailscale": {
		Category:    "widget",
		Description: "Tailscale network status monitoring",
		Capabilities: map[string]bool{
			CapAPIIntegration:   true,
			CapStatusMonitoring: true,
		},
		Dependencies: Dependencies{
			Env: []string{"TAILSCALE_API_KEY", "TAILSCALE_TAILNET"},
		},
	},
}

// Get returns the definition for a widget type. The second return value
// is false for unknown types; callers treat that as a load-time error.
func Get(widgetType string) (Definition, bool) {
	def, ok := definitions[widgetType]
	return def, ok
}

// All returns every known widget type name, sorted.
func All() []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByCategory returns the widget types in the given category, sorted.
func ByCategory(category string) []string {
	var names []string
	for name, def := range definitions {
		if def.Category == category {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ByCapability returns the widget types declaring the given capability
// flag, sorted.
func ByCapability(capability string) []string {
	var names []string
	for name, def := range definitions {
		if def.Capabilities[capability] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
