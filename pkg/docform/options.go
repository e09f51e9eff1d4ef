// Package docform binds web forms to document schemas: form definitions are
// derived from a document's fields, bound forms validate submitted data
// against both the form layer and the schema layer, and saves write the
// result back through a document store.
package docform

import (
	"github.com/goliatone/go-docforms/pkg/forms"
	"github.com/goliatone/go-docforms/pkg/generator"
)

// CleanFunc is a form-level clean hook. Replacing the default clean step
// disables uniqueness validation unless the hook calls
// (*Form).EnableUniqueValidation, mirroring how overriding clean without
// calling up skips uniqueness checks.
type CleanFunc func(*Form) error

type config struct {
	fields        []string
	exclude       []string
	widgets       map[string]string
	embeddedField string
	declared      []*forms.Field
	clean         CleanFunc
	registry      *forms.WidgetRegistry

	gen         generator.Generator
	genSet      bool
	callback    generator.FieldCallback
	callbackSet bool
}

// Option customises a form definition.
type Option func(*config)

// WithFields restricts auto-derivation to the named schema fields and pins
// their order. Every name must resolve to a derived or declared field.
func WithFields(names ...string) Option {
	return func(c *config) {
		c.fields = append([]string(nil), names...)
	}
}

// WithExclude removes the named schema fields from auto-derivation.
func WithExclude(names ...string) Option {
	return func(c *config) {
		c.exclude = append([]string(nil), names...)
	}
}

// WithWidgets overrides the widget of individual derived fields by name.
func WithWidgets(widgets map[string]string) Option {
	return func(c *config) {
		if len(widgets) == 0 {
			return
		}
		if c.widgets == nil {
			c.widgets = make(map[string]string, len(widgets))
		}
		for name, widget := range widgets {
			c.widgets[name] = widget
		}
	}
}

// WithEmbeddedField names the parent list field an embedded form appends to.
func WithEmbeddedField(name string) Option {
	return func(c *config) {
		c.embeddedField = name
	}
}

// WithGenerator overrides the default field generator.
func WithGenerator(gen generator.Generator) Option {
	return func(c *config) {
		c.gen = gen
		c.genSet = true
	}
}

// WithFieldCallback registers a callback that can replace any generated
// field.
func WithFieldCallback(callback generator.FieldCallback) Option {
	return func(c *config) {
		c.callback = callback
		c.callbackSet = true
	}
}

// WithDeclaredFields adds explicitly declared form fields. Declared fields
// replace auto-derived fields of the same name and are appended in
// declaration order otherwise.
func WithDeclaredFields(fields ...*forms.Field) Option {
	return func(c *config) {
		c.declared = append(c.declared, fields...)
	}
}

// WithClean replaces the default form-level clean step.
func WithClean(clean CleanFunc) Option {
	return func(c *config) {
		c.clean = clean
	}
}

// WithWidgetRegistry overrides the registry used to assign widgets to
// derived fields that carry none.
func WithWidgetRegistry(registry *forms.WidgetRegistry) Option {
	return func(c *config) {
		if registry != nil {
			c.registry = registry
		}
	}
}
