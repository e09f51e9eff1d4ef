package docform

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-docforms/pkg/document"
)

// EmbeddedForm edits an embedded sub-document as part of a parent record.
// Saving builds the embedded instance, appends it to the parent's list
// field, and persists the parent in a single write.
type EmbeddedForm struct {
	*Form
	parent *document.Instance
}

// NewEmbedded constructs an embedded form. The definition must name the
// parent's list field that holds the embedded documents, and that field must
// exist on the parent's schema; anything else is a configuration error.
func NewEmbedded(def *Definition, parent *document.Instance, opts ...FormOption) (*EmbeddedForm, error) {
	if def == nil {
		return nil, errors.New("docform: definition is required")
	}
	if parent == nil {
		return nil, errors.New("docform: embedded forms require a parent instance")
	}
	if def.embeddedField == "" {
		return nil, fmt.Errorf("docform: %s definition does not name an embedded field", def.doc.Name)
	}
	parentField, ok := parent.Document().Field(def.embeddedField)
	if !ok {
		return nil, fmt.Errorf("docform: %s has no field %q to embed %s into",
			parent.Document().Name, def.embeddedField, def.doc.Name)
	}
	if parentField.Kind != document.KindList {
		return nil, fmt.Errorf("docform: %s.%s is not a list field", parent.Document().Name, def.embeddedField)
	}

	form, err := NewForm(def, opts...)
	if err != nil {
		return nil, err
	}
	return &EmbeddedForm{Form: form, parent: parent}, nil
}

// Parent returns the instance the embedded document belongs to.
func (f *EmbeddedForm) Parent() *document.Instance {
	return f.parent
}

// Save validates and builds the embedded instance. When commit is true it
// appends the instance to the parent's list field and persists the parent;
// otherwise the parent is left untouched so the caller can repeat Save with
// commit later without duplicating the entry.
func (f *EmbeddedForm) Save(ctx context.Context, commit bool) (*document.Instance, error) {
	embedded, err := f.Form.Save(ctx, false)
	if err != nil {
		return nil, err
	}

	if commit {
		name := f.def.embeddedField
		current, _ := f.parent.Get(name).([]*document.Instance)
		if err := f.parent.Set(name, append(current, embedded)); err != nil {
			return nil, err
		}
		if f.store == nil {
			return nil, errors.New("docform: no store configured")
		}
		if err := f.store.Save(ctx, f.parent); err != nil {
			return nil, fmt.Errorf("docform: save %s: %w", f.parent.Document().Name, err)
		}
	}
	return embedded, nil
}
