package widget

import (
	"fmt"
	"strings"
)

// NotFoundError reports a widget-type identifier unknown to both the
// registry and the factory.
type NotFoundError struct {
	WidgetType string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("widget type %q not found", e.WidgetType)
}

// ValidationError carries the accumulated schema violations for a
// widget config.
type ValidationError struct {
	WidgetType string
	Errors     []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("widget %q validation failed: %s", e.WidgetType, strings.Join(e.Errors, ", "))
}

// ModuleError reports a registry entry with no constructible widget
// implementation behind it (e.g. the pure-renderer "group" and "link"
// types).
type ModuleError struct {
	WidgetType string
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("widget type %q has no constructible implementation", e.WidgetType)
}
