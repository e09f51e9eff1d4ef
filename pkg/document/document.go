package document

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Meta is the structured metadata block attached to every Document. Older
// declarations used a loose map; New upgrades those once at build time.
type Meta struct {
	// Collection names the backing store collection. Embedded documents have
	// no collection of their own.
	Collection string
	// Embedded marks records that only exist inside a parent document. They
	// carry no independent identity and cannot be deleted on their own.
	Embedded bool
	// VerboseName is the human readable document name used in messages.
	VerboseName string
	// Ordering lists field names used as the default queryset order.
	Ordering []string
}

// Deletable reports whether records of this document support standalone
// deletion. Embedded records do not.
func (m *Meta) Deletable() bool {
	return m != nil && !m.Embedded
}

// CleanHook is an optional whole-instance validation hook run after field
// level validation. Returned errors surface as non-field errors.
type CleanHook func(*Instance) error

// Document is the declarative schema for one record type: an ordered field
// set plus metadata. Documents are immutable after New returns.
type Document struct {
	Name   string
	Meta   *Meta
	Clean  CleanHook
	fields []Field
	index  map[string]int
}

// Option customises document construction.
type Option func(*Document)

// WithMeta attaches a structured metadata block.
func WithMeta(meta *Meta) Option {
	return func(d *Document) {
		if meta != nil {
			d.Meta = meta
		}
	}
}

// WithLegacyMeta accepts an old-style loose metadata map and upgrades it to
// a structured Meta. The upgrade happens here, once, rather than being
// re-checked during option parsing.
func WithLegacyMeta(raw map[string]any) Option {
	return func(d *Document) {
		if len(raw) == 0 {
			return
		}
		d.Meta = metaFromLegacy(raw)
	}
}

// WithClean registers the whole-instance clean hook.
func WithClean(hook CleanHook) Option {
	return func(d *Document) {
		d.Clean = hook
	}
}

// New builds a Document from an ordered field list. Field names must be
// unique and kinds valid; list fields need an item descriptor and embedded
// fields a sub-schema.
func New(name string, fields []Field, opts ...Option) (*Document, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("document: name is required")
	}

	doc := &Document{
		Name:   name,
		fields: append([]Field(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(doc)
		}
	}
	if doc.Meta == nil {
		doc.Meta = &Meta{}
	}
	if doc.Meta.Collection == "" && !doc.Meta.Embedded {
		doc.Meta.Collection = strings.ToLower(name) + "s"
	}
	if doc.Meta.VerboseName == "" {
		doc.Meta.VerboseName = name
	}

	for i, f := range doc.fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("document %s: field %d has no name", name, i)
		}
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("document %s: field %q has unknown kind %q", name, f.Name, f.Kind)
		}
		if f.Kind == KindList && f.Item == nil {
			return nil, fmt.Errorf("document %s: list field %q needs an item descriptor", name, f.Name)
		}
		if f.Kind == KindEmbedded && f.Embedded == nil {
			return nil, fmt.Errorf("document %s: embedded field %q needs a sub-schema", name, f.Name)
		}
		if _, exists := doc.index[f.Name]; exists {
			return nil, fmt.Errorf("document %s: duplicate field %q", name, f.Name)
		}
		// Fields() and Field() hand out copies, so the compiled pattern
		// must be shared from construction time.
		if f.Pattern != "" {
			re, err := regexp.Compile(f.Pattern)
			if err != nil {
				return nil, fmt.Errorf("document %s: field %q has an invalid pattern: %w", name, f.Name, err)
			}
			doc.fields[i].pattern = re
		}
		doc.index[f.Name] = i
	}

	return doc, nil
}

// MustNew panics on construction errors. Useful for package-level schemas
// and tests.
func MustNew(name string, fields []Field, opts ...Option) *Document {
	doc, err := New(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return doc
}

// Fields returns the ordered field descriptors.
func (d *Document) Fields() []Field {
	return append([]Field(nil), d.fields...)
}

// Field looks up a descriptor by name.
func (d *Document) Field(name string) (Field, bool) {
	idx, ok := d.index[name]
	if !ok {
		return Field{}, false
	}
	return d.fields[idx], true
}

// Has reports whether the document declares the named field.
func (d *Document) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// metaFromLegacy normalises a loose metadata map into a Meta value. Unknown
// keys are ignored.
func metaFromLegacy(raw map[string]any) *Meta {
	meta := &Meta{}
	if v, ok := raw["collection"].(string); ok {
		meta.Collection = v
	}
	if v, ok := raw["embedded"].(bool); ok {
		meta.Embedded = v
	}
	if v, ok := raw["verbose_name"].(string); ok {
		meta.VerboseName = v
	}
	switch ordering := raw["ordering"].(type) {
	case []string:
		meta.Ordering = append([]string(nil), ordering...)
	case []any:
		for _, entry := range ordering {
			if s, ok := entry.(string); ok {
				meta.Ordering = append(meta.Ordering, s)
			}
		}
	}
	return meta
}
