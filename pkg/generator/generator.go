// Package generator translates document schema descriptors into form field
// instances. The default generator covers every scalar kind; identity and
// collection kinds are skipped because no generic widget can edit them
// safely.
package generator

import (
	"regexp"

	"github.com/goliatone/go-docforms/pkg/document"
	"github.com/goliatone/go-docforms/pkg/forms"
)

// Generator derives a form field from a schema descriptor. A nil field with
// a nil error means "skip this descriptor".
type Generator interface {
	Generate(field document.Field) (*forms.Field, error)
}

// FieldCallback can replace or adjust any generated field. It receives the
// schema descriptor and the generated field (nil when the generator skipped
// the descriptor) and returns the field to use.
type FieldCallback func(field document.Field, generated *forms.Field) (*forms.Field, error)

// Default is the stock generator. The zero value is ready to use.
type Default struct {
	// Labeler overrides the label derivation; forms.Label by default.
	Labeler func(string) string
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
var urlPattern = regexp.MustCompile(`^https?://\S+$`)

// Generate maps one schema descriptor onto a form field. ObjectID and list
// descriptors return nil: identity is never edited through a form, and
// collections need an explicit declaration (or a formset).
func (g Default) Generate(field document.Field) (*forms.Field, error) {
	if field.Kind.Identity() || field.Kind.Collection() {
		return nil, nil
	}
	// Sub-documents are edited through embedded forms, not inline widgets.
	if field.Kind == document.KindEmbedded {
		return nil, nil
	}

	labeler := g.Labeler
	if labeler == nil {
		labeler = forms.Label
	}
	label := field.Label
	if label == "" {
		label = labeler(field.Name)
	}

	out := &forms.Field{
		Name:      field.Name,
		Label:     label,
		HelpText:  field.HelpText,
		Required:  field.Required,
		Initial:   field.Default,
		MinLength: field.MinLength,
		MaxLength: field.MaxLength,
		Min:       field.Min,
		Max:       field.Max,
	}
	if field.Pattern != "" {
		re, err := regexp.Compile(field.Pattern)
		if err != nil {
			return nil, err
		}
		out.Pattern = re
	}
	for _, choice := range field.Choices {
		out.Choices = append(out.Choices, forms.Choice{
			Value: choice,
			Label: forms.Label(forms.FormatChoice(choice)),
		})
	}

	switch field.Kind {
	case document.KindString, document.KindText:
		out.Coerce = forms.CoerceString
	case document.KindEmail:
		out.Coerce = forms.CoerceString
		out.Widget = forms.WidgetEmail
		if out.Pattern == nil {
			out.Pattern = emailPattern
		}
	case document.KindURL:
		out.Coerce = forms.CoerceString
		out.Widget = forms.WidgetURL
		if out.Pattern == nil {
			out.Pattern = urlPattern
		}
	case document.KindInt:
		out.Coerce = forms.CoerceInt
	case document.KindFloat, document.KindDecimal:
		out.Coerce = forms.CoerceFloat
	case document.KindBool:
		out.Coerce = forms.CoerceBool
	case document.KindDateTime:
		out.Coerce = forms.CoerceDateTime
	case document.KindRef:
		out.Coerce = forms.CoerceObjectID
		out.Widget = forms.WidgetSelect
	case document.KindFile:
		out.Coerce = forms.CoerceFile
	}

	return out, nil
}
