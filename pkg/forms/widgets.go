package forms

import (
	"sort"
	"strings"
	"sync"
)

// Built-in widget identifiers.
const (
	WidgetText     = "text"
	WidgetTextarea = "textarea"
	WidgetEmail    = "email"
	WidgetURL      = "url"
	WidgetNumber   = "number"
	WidgetCheckbox = "checkbox"
	WidgetDateTime = "datetime"
	WidgetSelect   = "select"
	WidgetFile     = "file"
	WidgetHidden   = "hidden"
	WidgetPassword = "password"
)

// WidgetMatcher decides whether a widget should handle the supplied field.
type WidgetMatcher func(field *Field) bool

type widgetRule struct {
	name     string
	priority int
	match    WidgetMatcher
	order    int
}

// WidgetRegistry selects widgets for fields based on explicit assignments or
// registered matchers. Higher priority wins; ties fall back to registration
// order.
type WidgetRegistry struct {
	mu    sync.RWMutex
	rules []widgetRule
}

// NewWidgetRegistry constructs a registry with the built-in matchers
// registered.
func NewWidgetRegistry() *WidgetRegistry {
	reg := &WidgetRegistry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher. Higher priority values take precedence.
func (r *WidgetRegistry) Register(name string, priority int, matcher WidgetMatcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, widgetRule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget for a field. An explicit Widget assignment on
// the field is honoured before matcher evaluation.
func (r *WidgetRegistry) Resolve(field *Field) (string, bool) {
	if field == nil {
		return "", false
	}
	if explicit := strings.TrimSpace(field.Widget); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	rules := append([]widgetRule(nil), r.rules...)
	r.mu.RUnlock()
	if len(rules) == 0 {
		return "", false
	}
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, rule := range rules {
		if rule.match(field) {
			return rule.name, true
		}
	}
	return "", false
}

// Decorate assigns a resolved widget to every field that lacks one.
func (r *WidgetRegistry) Decorate(fields []*Field) {
	for _, field := range fields {
		if field == nil || field.Widget != "" {
			continue
		}
		if widget, ok := r.Resolve(field); ok {
			field.Widget = widget
		}
	}
}

func (r *WidgetRegistry) registerBuiltins() {
	r.Register(WidgetSelect, 90, func(field *Field) bool {
		return len(field.Choices) > 0
	})

	r.Register(WidgetCheckbox, 80, func(field *Field) bool {
		return field.Coerce == CoerceBool
	})

	r.Register(WidgetNumber, 70, func(field *Field) bool {
		return field.Coerce == CoerceInt || field.Coerce == CoerceFloat
	})

	r.Register(WidgetDateTime, 60, func(field *Field) bool {
		return field.Coerce == CoerceDateTime
	})

	r.Register(WidgetFile, 50, func(field *Field) bool {
		return field.Coerce == CoerceFile
	})

	r.Register(WidgetTextarea, 40, func(field *Field) bool {
		return field.Coerce == CoerceString && field.MaxLength == nil
	})

	r.Register(WidgetText, 0, func(field *Field) bool {
		return true
	})
}
