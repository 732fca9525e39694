package widget

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/slatedash/slate/internal/registry"
)

// ValidationResult is the outcome of checking a raw config against a
// widget schema. Config is the input with defaults filled in for
// missing optional fields.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
	Config   map[string]any
}

// Loader validates widget configs against the registry and constructs
// widget instances bound to a mount point.
type Loader struct {
	env *Env
}

func NewLoader(env *Env) *Loader {
	return &Loader{env: env}
}

// Validate checks rawConfig against the registry schema for widgetType.
// It never fails: schema violations are reported in the result, and a
// type with no schema is treated as legacy and passes with a warning.
func (l *Loader) Validate(widgetType string, rawConfig map[string]any) ValidationResult {
	cfg := make(map[string]any, len(rawConfig))
	for k, v := range rawConfig {
		cfg[k] = v
	}

	def, ok := registry.Get(widgetType)
	if !ok || def.Schema == nil {
		return ValidationResult{
			Valid:    true,
			Warnings: []string{fmt.Sprintf("widget %q using legacy format (no schema)", widgetType)},
			Config:   cfg,
		}
	}

	result := ValidationResult{Config: cfg}

	// Deterministic error ordering
	fields := make([]string, 0, len(def.Schema))
	for field := range def.Schema {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		spec := def.Schema[field]
		value, present := cfg[field]

		if !present {
			if spec.Required {
				result.Errors = append(result.Errors, fmt.Sprintf("missing required field: %s", field))
			} else if spec.Default != nil {
				cfg[field] = spec.Default
				result.Warnings = append(result.Warnings, fmt.Sprintf("applied default value for %s: %v", field, spec.Default))
			}
			continue
		}

		if msg := checkType(field, spec, value); msg != "" {
			result.Errors = append(result.Errors, msg)
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func checkType(field string, spec registry.Field, value any) string {
	switch spec.Type {
	case registry.String:
		if _, ok := value.(string); !ok {
			return fmt.Sprintf("field %s must be a string", field)
		}
	case registry.Boolean:
		if _, ok := value.(bool); !ok {
			return fmt.Sprintf("field %s must be a boolean", field)
		}
	case registry.Integer:
		if !isInteger(value) {
			return fmt.Sprintf("field %s must be an integer", field)
		}
	case registry.Array:
		if !isArray(value) {
			return fmt.Sprintf("field %s must be an array", field)
		}
	case registry.Enum:
		s, ok := value.(string)
		if !ok || !contains(spec.Enum, s) {
			return fmt.Sprintf("field %s must be one of: %s", field, strings.Join(spec.Enum, ", "))
		}
	}
	return ""
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int64, uint64:
		return true
	case float64:
		return n == float64(int64(n))
	}
	return false
}

func isArray(v any) bool {
	switch v.(type) {
	case []any, []string, []map[string]any:
		return true
	}
	return false
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// Create validates, resolves and constructs a widget instance. The
// returned widget is live but not yet initialized. Errors: a
// *ValidationError when the config fails its schema, a *NotFoundError
// for an identifier unknown to both registry and factory, and a
// *ModuleError for registry entries with no implementation.
func (l *Loader) Create(widgetType string, mount *Mount, rawConfig map[string]any) (Widget, error) {
	result := l.Validate(widgetType, rawConfig)
	if !result.Valid {
		return nil, &ValidationError{WidgetType: widgetType, Errors: result.Errors}
	}
	for _, warning := range result.Warnings {
		log.Printf("[widget] %s: %s", widgetType, warning)
	}

	w, err := l.construct(widgetType, mount, result.Config)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// construct is the dispatch table from widget-type tag to
// implementation. The set is closed; registry entries without a case
// here are data-only and fail with a ModuleError.
func (l *Loader) construct(widgetType string, mount *Mount, cfg map[string]any) (Widget, error) {
	switch widgetType {
	case "clock":
		return newClock(mount, cfg, l.env), nil
	case "image":
		return newImage(mount, cfg), nil
	case "theme-switcher":
		return newThemeSwitcher(mount, cfg, l.env), nil
	case "motd":
		return newMOTD(mount, cfg), nil
	case "weather":
		return newWeather(mount, cfg, l.env), nil
	case "radar":
		return newRadar(mount, cfg, l.env), nil
	case "status":
		return newStatusList(mount, cfg, l.env), nil
	case "status-summary":
		return newStatusSummary(mount, cfg, l.env), nil
	case "preview":
		return newPreview(mount, cfg, l.env), nil
	case "trilium":
		return newTrilium(mount, cfg, l.env), nil
	case "todoist":
		return newTodoist(mount, cfg, l.env), nil
	case "obsidian":
		return newObsidian(mount, cfg, l.env), nil
	case "tailscale":
		return newTailscale(mount, cfg, l.env), nil
	}

	if _, ok := registry.Get(widgetType); ok {
		return nil, &ModuleError{WidgetType: widgetType}
	}
	return nil, &NotFoundError{WidgetType: widgetType}
}

// Capabilities returns the capability flags for a widget type, empty
// for unknown types.
func (l *Loader) Capabilities(widgetType string) map[string]bool {
	def, ok := registry.Get(widgetType)
	if !ok || def.Capabilities == nil {
		return map[string]bool{}
	}
	return def.Capabilities
}

// Dependencies returns the declared external requirements for a widget
// type, zero-valued for unknown types.
func (l *Loader) Dependencies(widgetType string) registry.Dependencies {
	def, ok := registry.Get(widgetType)
	if !ok {
		return registry.Dependencies{}
	}
	return def.Dependencies
}
