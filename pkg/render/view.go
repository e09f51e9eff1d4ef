package render

import (
	"github.com/goliatone/go-docforms/pkg/docform"
	"github.com/goliatone/go-docforms/pkg/forms"
	"github.com/goliatone/go-docforms/pkg/formset"
)

// FormView is the template-facing shape of a form.
type FormView struct {
	Prefix         string
	NonFieldErrors []string
	Fields         []FieldView
}

// FieldView is the template-facing shape of one field.
type FieldView struct {
	Name      string
	ID        string
	Label     string
	Widget    string
	InputType string
	Value     string
	Help      string
	Required  bool
	Checked   bool
	Choices   []ChoiceView
	Errors    []string
}

// ChoiceView is one option of a select field.
type ChoiceView struct {
	Value    string
	Label    string
	Selected bool
}

// FormSetView is the template-facing shape of a formset.
type FormSetView struct {
	Prefix     string
	Management []ManagementInput
	Errors     []string
	Forms      []FormView
}

// ManagementInput is one hidden input carrying formset bookkeeping.
type ManagementInput struct {
	Name  string
	Value string
}

func formView(form *docform.Form) FormView {
	view := FormView{
		Prefix:         form.Prefix(),
		NonFieldErrors: form.Errors().NonField(),
	}
	for _, fld := range form.Fields() {
		view.Fields = append(view.Fields, fieldView(form, fld))
	}
	return view
}

func fieldView(form *docform.Form, fld *forms.Field) FieldView {
	name := form.AddPrefix(fld.Name)
	view := FieldView{
		Name:      name,
		ID:        "id_" + name,
		Label:     fld.Label,
		Widget:    fld.Widget,
		InputType: inputType(fld.Widget),
		Value:     form.DisplayValue(fld.Name),
		Help:      sanitizeHelp(fld.HelpText),
		Required:  fld.Required,
		Errors:    form.Errors().Field(fld.Name),
	}
	if fld.Widget == forms.WidgetCheckbox {
		view.Checked = view.Value == "true" || view.Value == "on" || view.Value == "1"
	}
	for _, choice := range fld.Choices {
		value := forms.FormatChoice(choice.Value)
		view.Choices = append(view.Choices, ChoiceView{
			Value:    value,
			Label:    choice.Label,
			Selected: value == view.Value,
		})
	}
	return view
}

func formSetView(fset *formset.FormSet) FormSetView {
	view := FormSetView{
		Prefix: fset.Prefix(),
		Errors: fset.Errors().NonField(),
	}
	for key, values := range fset.ManagementData() {
		if len(values) > 0 {
			view.Management = append(view.Management, ManagementInput{Name: key, Value: values[0]})
		}
	}
	for _, form := range fset.Forms() {
		view.Forms = append(view.Forms, formView(form))
	}
	return view
}

func inputType(widget string) string {
	switch widget {
	case forms.WidgetEmail:
		return "email"
	case forms.WidgetURL:
		return "url"
	case forms.WidgetNumber:
		return "number"
	case forms.WidgetDateTime:
		return "datetime-local"
	case forms.WidgetCheckbox:
		return "checkbox"
	case forms.WidgetFile:
		return "file"
	case forms.WidgetHidden:
		return "hidden"
	case forms.WidgetPassword:
		return "password"
	default:
		return "text"
	}
}
