// Package docforms generates, binds and persists HTML forms from MongoDB
// document schemas. The root package re-exports the common entry points; the
// sub-packages under pkg/ carry the full API.
package docforms

import (
	"github.com/goliatone/go-docforms/pkg/docform"
	"github.com/goliatone/go-docforms/pkg/document"
	"github.com/goliatone/go-docforms/pkg/formset"
)

// Document aliases the schema type most callers start from.
type Document = document.Document

// Field aliases the schema field descriptor.
type Field = document.Field

// Instance aliases one record of a document schema.
type Instance = document.Instance

// Definition aliases the resolved form definition for a document.
type Definition = docform.Definition

// Form aliases a single bound form.
type Form = docform.Form

// ForDocument builds the form definition for a document schema.
func ForDocument(doc *document.Document, opts ...docform.Option) (*docform.Definition, error) {
	return docform.NewDefinition(doc, opts...)
}

// NewForm binds a definition into a working form.
func NewForm(def *docform.Definition, opts ...docform.FormOption) (*docform.Form, error) {
	return docform.NewForm(def, opts...)
}

// NewEmbeddedForm binds a definition that edits an embedded sub-document of
// the parent instance.
func NewEmbeddedForm(def *docform.Definition, parent *document.Instance, opts ...docform.FormOption) (*docform.EmbeddedForm, error) {
	return docform.NewEmbedded(def, parent, opts...)
}

// NewFormSet builds a formset over a definition.
func NewFormSet(def *docform.Definition, opts ...formset.Option) (*formset.FormSet, error) {
	return formset.New(def, opts...)
}

// NewInlineFormSet builds a formset scoped to the documents whose fk field
// references the parent instance.
func NewInlineFormSet(def *docform.Definition, parent *document.Instance, fk string, opts ...formset.InlineOption) (*formset.InlineFormSet, error) {
	return formset.NewInline(def, parent, fk, opts...)
}
