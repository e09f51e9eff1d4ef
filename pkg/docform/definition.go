package docform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-docforms/pkg/document"
	"github.com/goliatone/go-docforms/pkg/forms"
	"github.com/goliatone/go-docforms/pkg/generator"
)

// Configuration errors surfaced while building a definition. These are
// programmer errors: they fail fast at registration time, never during a
// request.
var (
	ErrNilGenerator = errors.New("docform: generator override must not be nil")
	ErrNilCallback  = errors.New("docform: field callback must not be nil")
)

// Definition is the built, immutable form description for one document: the
// merged field mapping plus the options that shaped it. Build it once at
// startup and share it across requests; per-request state lives on Form.
type Definition struct {
	doc           *document.Document
	fields        []*forms.Field
	declared      []*forms.Field
	allow         []string
	exclude       []string
	embeddedField string
	clean         CleanFunc
}

// NewDefinition derives the form fields for a document, merges declared
// fields over them, and validates the allow-list. A nil document yields a
// declared-fields-only definition; constructing a form from it fails.
func NewDefinition(doc *document.Document, opts ...Option) (*Definition, error) {
	cfg := &config{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.genSet && cfg.gen == nil {
		return nil, ErrNilGenerator
	}
	if cfg.callbackSet && cfg.callback == nil {
		return nil, ErrNilCallback
	}

	def := &Definition{
		doc:           doc,
		declared:      append([]*forms.Field(nil), cfg.declared...),
		allow:         cfg.fields,
		exclude:       cfg.exclude,
		embeddedField: cfg.embeddedField,
		clean:         cfg.clean,
	}

	declaredNames := make(map[string]*forms.Field, len(cfg.declared))
	for _, fld := range cfg.declared {
		declaredNames[fld.Name] = fld
	}

	var derived []*forms.Field
	if doc != nil {
		gen := cfg.gen
		if gen == nil {
			gen = generator.Default{}
		}
		var err error
		derived, _, err = FieldsForDocument(doc, DeriveConfig{
			Fields:   cfg.fields,
			Exclude:  cfg.exclude,
			Widgets:  cfg.widgets,
			Callback: cfg.callback,
		}, gen)
		if err != nil {
			return nil, err
		}

		if err := checkAllowList(doc, cfg.fields, derived, declaredNames); err != nil {
			return nil, err
		}
	}

	def.fields = mergeFields(derived, cfg.declared, cfg.fields)

	registry := cfg.registry
	if registry == nil {
		registry = forms.NewWidgetRegistry()
	}
	registry.Decorate(def.fields)

	return def, nil
}

// MustDefinition panics on configuration errors. Intended for package-level
// form registration.
func MustDefinition(doc *document.Document, opts ...Option) *Definition {
	def, err := NewDefinition(doc, opts...)
	if err != nil {
		panic(err)
	}
	return def
}

// Document returns the target document schema, possibly nil.
func (d *Definition) Document() *document.Document {
	return d.doc
}

// Fields returns the ordered form fields.
func (d *Definition) Fields() []*forms.Field {
	return append([]*forms.Field(nil), d.fields...)
}

// Field looks up a form field by name.
func (d *Definition) Field(name string) (*forms.Field, bool) {
	for _, fld := range d.fields {
		if fld.Name == name {
			return fld, true
		}
	}
	return nil, false
}

// Declared returns only the explicitly declared fields.
func (d *Definition) Declared() []*forms.Field {
	return append([]*forms.Field(nil), d.declared...)
}

// EmbeddedField returns the parent list field name for embedded forms.
func (d *Definition) EmbeddedField() string {
	return d.embeddedField
}

// DeriveConfig restricts and adjusts automatic field derivation.
type DeriveConfig struct {
	Fields   []string
	Exclude  []string
	Widgets  map[string]string
	Callback generator.FieldCallback
}

// FieldsForDocument derives form fields from a document schema in schema
// order. It returns the derived fields plus the names the generator chose to
// skip (identity, collections, embedded sub-documents).
func FieldsForDocument(doc *document.Document, cfg DeriveConfig, gen generator.Generator) ([]*forms.Field, []string, error) {
	if gen == nil {
		gen = generator.Default{}
	}

	var out []*forms.Field
	var ignored []string
	for _, schemaField := range doc.Fields() {
		if cfg.Fields != nil && !containsName(cfg.Fields, schemaField.Name) {
			continue
		}
		if containsName(cfg.Exclude, schemaField.Name) {
			continue
		}

		formField, err := gen.Generate(schemaField)
		if err != nil {
			return nil, nil, fmt.Errorf("docform: generate field %q for %s: %w", schemaField.Name, doc.Name, err)
		}
		if formField != nil {
			if widget := cfg.Widgets[schemaField.Name]; widget != "" {
				formField.Widget = widget
			}
		}
		if cfg.Callback != nil {
			formField, err = cfg.Callback(schemaField, formField)
			if err != nil {
				return nil, nil, fmt.Errorf("docform: field callback for %q on %s: %w", schemaField.Name, doc.Name, err)
			}
		}

		if formField == nil {
			ignored = append(ignored, schemaField.Name)
			continue
		}
		out = append(out, formField)
	}
	return out, ignored, nil
}

// InitialFromInstance extracts a form initial-data map from an instance,
// honoring allow/deny lists. Feeding the result back into an unbound form
// reproduces the instance's display values.
func InitialFromInstance(inst *document.Instance, fields, exclude []string) map[string]any {
	data := make(map[string]any)
	for _, schemaField := range inst.Document().Fields() {
		if fields != nil && !containsName(fields, schemaField.Name) {
			continue
		}
		if containsName(exclude, schemaField.Name) {
			continue
		}
		data[schemaField.Name] = inst.Get(schemaField.Name)
	}
	return data
}

// checkAllowList enforces that every allow-list name resolves to a derived
// field that survived generation, or to a declared field.
func checkAllowList(doc *document.Document, allow []string, derived []*forms.Field, declared map[string]*forms.Field) error {
	if allow == nil {
		return nil
	}
	derivedNames := make(map[string]struct{}, len(derived))
	for _, fld := range derived {
		derivedNames[fld.Name] = struct{}{}
	}

	var missing []string
	for _, name := range allow {
		if _, ok := derivedNames[name]; ok {
			continue
		}
		if _, ok := declared[name]; ok {
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("docform: unknown field(s) (%s) specified for %s", strings.Join(missing, ", "), doc.Name)
	}
	return nil
}

// mergeFields overlays declared fields on the derived mapping: declared wins
// on collision, new declared names append in declaration order. When an
// allow-list is present the derived portion already follows schema order
// filtered to it; the allow-list order is restored here.
func mergeFields(derived []*forms.Field, declared []*forms.Field, allow []string) []*forms.Field {
	byName := make(map[string]*forms.Field, len(derived)+len(declared))
	order := make([]string, 0, len(derived)+len(declared))
	add := func(fld *forms.Field) {
		if _, exists := byName[fld.Name]; !exists {
			order = append(order, fld.Name)
		}
		byName[fld.Name] = fld
	}
	for _, fld := range derived {
		add(fld)
	}
	for _, fld := range declared {
		add(fld)
	}

	// The reorder runs after the declared overlay so an allow-list name
	// satisfied by a declared field still takes its allow-list position.
	if allow != nil {
		reordered := make([]string, 0, len(order))
		seen := make(map[string]struct{}, len(order))
		for _, name := range allow {
			if _, ok := byName[name]; ok {
				if _, dup := seen[name]; !dup {
					reordered = append(reordered, name)
					seen[name] = struct{}{}
				}
			}
		}
		for _, name := range order {
			if _, ok := seen[name]; !ok {
				reordered = append(reordered, name)
				seen[name] = struct{}{}
			}
		}
		order = reordered
	}

	out := make([]*forms.Field, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}

func containsName(names []string, name string) bool {
	for _, candidate := range names {
		if candidate == name {
			return true
		}
	}
	return false
}
