package docform

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/goliatone/go-docforms/pkg/document"
	"github.com/goliatone/go-docforms/pkg/forms"
)

// Form is one request-scoped binding of a definition to a document instance.
// Lifecycle: construct, bind data, validate, save; a form whose validation
// failed is redisplayed with its errors and discarded.
type Form struct {
	def      *Definition
	doc      *document.Document
	instance *document.Instance
	store    document.Store
	blobs    document.BlobStore

	prefix  string
	data    url.Values
	files   map[string]*forms.Upload
	initial map[string]any
	display map[string]any
	fields  []*forms.Field

	cleaned        map[string]any
	errs           forms.Errors
	uniqueErrs     forms.Errors
	deferDelete    []string
	validated      bool
	validateUnique bool
	emptyPermitted bool
}

// FormOption customises form construction.
type FormOption func(*Form)

// WithInstance binds the form to an existing record instead of a fresh one.
func WithInstance(inst *document.Instance) FormOption {
	return func(f *Form) {
		f.instance = inst
	}
}

// WithData binds submitted form values.
func WithData(data url.Values) FormOption {
	return func(f *Form) {
		f.data = data
	}
}

// WithFiles binds submitted uploads keyed by prefixed field name.
func WithFiles(files map[string]*forms.Upload) FormOption {
	return func(f *Form) {
		f.files = files
	}
}

// WithPrefix namespaces every field name, the way formsets address their
// sub-forms.
func WithPrefix(prefix string) FormOption {
	return func(f *Form) {
		f.prefix = prefix
	}
}

// WithInitial supplies display data that overrides instance-derived values.
func WithInitial(initial map[string]any) FormOption {
	return func(f *Form) {
		f.initial = initial
	}
}

// WithStore wires the document store used for saves and uniqueness checks.
func WithStore(store document.Store) FormOption {
	return func(f *Form) {
		f.store = store
	}
}

// WithBlobStore wires the blob store backing file fields.
func WithBlobStore(blobs document.BlobStore) FormOption {
	return func(f *Form) {
		f.blobs = blobs
	}
}

// WithEmptyPermitted lets a completely untouched submission validate as
// empty. Formsets use this for their blank extra forms.
func WithEmptyPermitted() FormOption {
	return func(f *Form) {
		f.emptyPermitted = true
	}
}

// WithExtraFields appends per-form fields beyond the definition, such as the
// deletion/order flags formsets add to their sub-forms.
func WithExtraFields(fields ...*forms.Field) FormOption {
	return func(f *Form) {
		f.fields = append(f.fields, fields...)
	}
}

// NewForm constructs a form from a definition. Definitions without a
// document cannot be instantiated.
func NewForm(def *Definition, opts ...FormOption) (*Form, error) {
	if def == nil {
		return nil, errors.New("docform: definition is required")
	}
	if def.doc == nil {
		return nil, errors.New("docform: definition has no document")
	}

	f := &Form{
		def:    def,
		doc:    def.doc,
		fields: def.Fields(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	if f.instance == nil {
		f.instance = document.NewInstance(def.doc)
		f.display = make(map[string]any)
	} else {
		f.display = InitialFromInstance(f.instance, def.allow, def.exclude)
	}
	for name, value := range f.initial {
		f.display[name] = value
	}

	return f, nil
}

// Instance returns the document instance the form reads and writes.
func (f *Form) Instance() *document.Instance {
	return f.instance
}

// Fields returns the form's ordered fields, including per-form extras.
func (f *Form) Fields() []*forms.Field {
	return append([]*forms.Field(nil), f.fields...)
}

// Field looks up one of the form's fields by bare name.
func (f *Form) Field(name string) (*forms.Field, bool) {
	for _, fld := range f.fields {
		if fld.Name == name {
			return fld, true
		}
	}
	return nil, false
}

// Prefix returns the name prefix, empty for standalone forms.
func (f *Form) Prefix() string {
	return f.prefix
}

// Bound reports whether submitted data is attached.
func (f *Form) Bound() bool {
	return f.data != nil || f.files != nil
}

// AddPrefix returns the submitted-data key for a field name.
func (f *Form) AddPrefix(name string) string {
	if f.prefix == "" {
		return name
	}
	return f.prefix + "-" + name
}

// RawValue returns the submitted string for a field, empty when absent.
func (f *Form) RawValue(name string) string {
	if f.data == nil {
		return ""
	}
	return f.data.Get(f.AddPrefix(name))
}

// InitialValue returns the display value for a field: explicit initial data,
// then instance data, then the field's own default.
func (f *Form) InitialValue(name string) any {
	if value, ok := f.display[name]; ok && value != nil {
		return value
	}
	if fld, ok := f.Field(name); ok {
		return fld.Initial
	}
	return nil
}

// DisplayValue returns what an input element should show: the submitted raw
// value on bound forms, the formatted initial value otherwise.
func (f *Form) DisplayValue(name string) string {
	if f.Bound() {
		return f.RawValue(name)
	}
	fld, ok := f.Field(name)
	if !ok {
		return ""
	}
	return fld.FormatValue(f.InitialValue(name))
}

// Valid validates the bound data once and reports the outcome. Unbound forms
// are never valid.
func (f *Form) Valid(ctx context.Context) bool {
	if !f.Bound() {
		return false
	}
	if !f.validated {
		f.fullClean(ctx)
	}
	return f.errs.Empty()
}

// Errors returns the messages collected by validation.
func (f *Form) Errors() forms.Errors {
	if f.errs == nil {
		return forms.Errors{}
	}
	return f.errs
}

// CleanedData returns the validated, coerced values.
func (f *Form) CleanedData() map[string]any {
	return f.cleaned
}

// DeferredDeletions returns the fields scheduled for removal from the write
// set before persistence. Populated by validation, consumed by Save.
func (f *Form) DeferredDeletions() []string {
	return append([]string(nil), f.deferDelete...)
}

// EnableUniqueValidation re-enables the uniqueness check from inside a
// custom clean hook.
func (f *Form) EnableUniqueValidation() {
	f.validateUnique = true
}

// HasChanged reports whether any submitted value differs from its initial.
func (f *Form) HasChanged() bool {
	return len(f.ChangedFields()) > 0
}

// ChangedFields lists fields whose submitted value differs from the
// initial display value.
func (f *Form) ChangedFields() []string {
	if !f.Bound() {
		return nil
	}
	var changed []string
	for _, fld := range f.fields {
		if f.fieldChanged(fld) {
			changed = append(changed, fld.Name)
		}
	}
	return changed
}

func (f *Form) fieldChanged(fld *forms.Field) bool {
	if fld.Coerce == forms.CoerceFile {
		upload := f.files[f.AddPrefix(fld.Name)]
		return upload != nil && len(upload.Content) > 0
	}

	raw := f.RawValue(fld.Name)
	initial := f.InitialValue(fld.Name)
	if fld.Coerce == forms.CoerceBool {
		submitted := raw == "1" || raw == "true" || raw == "on" || raw == "yes"
		current, _ := initial.(bool)
		return submitted != current
	}
	if initial == nil {
		return raw != ""
	}
	return raw != fld.FormatValue(initial)
}

// fullClean runs the complete validation pipeline: per-field cleaning, the
// form-level clean step, then post-clean reconciliation with the schema.
func (f *Form) fullClean(ctx context.Context) {
	f.validated = true
	f.errs = make(forms.Errors)
	f.uniqueErrs = make(forms.Errors)
	f.cleaned = make(map[string]any)

	if f.emptyPermitted && !f.HasChanged() {
		return
	}

	for _, fld := range f.fields {
		if fld.Coerce == forms.CoerceFile {
			value, err := fld.CleanUpload(f.files[f.AddPrefix(fld.Name)])
			if err != nil {
				f.errs.Add(fld.Name, err.Error())
			} else if value != nil {
				f.cleaned[fld.Name] = value
			}
			continue
		}

		value, err := fld.Clean(f.RawValue(fld.Name))
		if err != nil {
			f.errs.Add(fld.Name, err.Error())
			continue
		}
		f.cleaned[fld.Name] = value
	}

	// The default clean step turns uniqueness validation on. A custom hook
	// that wants it must re-enable it explicitly.
	f.validateUnique = false
	if f.def.clean != nil {
		if err := f.def.clean(f); err != nil {
			f.errs.AddNonField(err.Error())
		}
	} else {
		f.validateUnique = true
	}

	f.postClean(ctx)
}

func (f *Form) postClean(ctx context.Context) {
	if err := f.constructInstance(ctx); err != nil {
		f.errs.AddNonField(err.Error())
	}

	excluded := f.validationExclusions()

	f.deferDelete = nil
	for _, schemaField := range f.doc.Fields() {
		value := f.instance.Get(schemaField.Name)
		if !excluded[schemaField.Name] {
			if err := schemaField.Validate(value); err != nil {
				f.errs.Add(schemaField.Name, err.Error())
				delete(f.cleaned, schemaField.Name)
			}
			continue
		}
		// The schema layer rejects empty strings on optional fields even
		// though the form accepts them; such fields are removed from the
		// write set at save time, not from the in-memory instance.
		if s, ok := value.(string); ok && s == "" {
			f.deferDelete = append(f.deferDelete, schemaField.Name)
		}
	}

	if err := f.instance.RunClean(); err != nil {
		f.errs.AddNonField(err.Error())
	}

	if f.validateUnique {
		f.ValidateUnique(ctx)
	}
}

// validationExclusions lists schema fields that must not be re-validated by
// the schema layer: fields not on the form, fields outside the configured
// lists, fields that already failed, and optional fields left empty.
func (f *Form) validationExclusions() map[string]bool {
	excluded := make(map[string]bool)
	for _, schemaField := range f.doc.Fields() {
		name := schemaField.Name
		if _, onForm := f.Field(name); !onForm {
			excluded[name] = true
			continue
		}
		if f.def.allow != nil && !containsName(f.def.allow, name) {
			excluded[name] = true
			continue
		}
		if containsName(f.def.exclude, name) {
			excluded[name] = true
			continue
		}
		if len(f.errs[name]) > 0 {
			excluded[name] = true
			continue
		}
		if !schemaField.Required && schemaField.IsEmpty(f.cleaned[name]) {
			excluded[name] = true
		}
	}
	return excluded
}

// ValidateUnique checks every unique-marked, non-excluded schema field for a
// conflicting record and records one field error per conflict. It returns
// the errors it found so formsets can aggregate them. Composite uniqueness
// declarations are not checked.
func (f *Form) ValidateUnique(ctx context.Context) forms.Errors {
	found := make(forms.Errors)
	if f.store == nil {
		return found
	}

	excluded := f.validationExclusions()
	for _, schemaField := range f.doc.Fields() {
		if !schemaField.Unique || excluded[schemaField.Name] {
			continue
		}
		value := f.instance.Get(schemaField.Name)
		conflicts, err := f.store.CountConflicts(ctx, f.instance, schemaField.Name, value)
		if err != nil {
			f.errs.AddNonField(fmt.Sprintf("could not verify %s is unique: %v", schemaField.Name, err))
			continue
		}
		if conflicts > 0 {
			label := schemaField.Name
			if fld, ok := f.Field(schemaField.Name); ok && fld.Label != "" {
				label = fld.Label
			}
			found.Add(schemaField.Name, fmt.Sprintf("%s with this %s already exists.", f.doc.Meta.VerboseName, label))
		}
	}

	f.errs.Merge(found)
	f.uniqueErrs.Merge(found)
	return found
}

// UniqueErrors returns the uniqueness conflicts recorded by the last
// validation run.
func (f *Form) UniqueErrors() forms.Errors {
	if f.uniqueErrs == nil {
		return forms.Errors{}
	}
	return f.uniqueErrs
}

// Save writes the form's cleaned data into its instance and, when commit is
// true, persists it. Saving with outstanding validation errors is caller
// misuse and returns an error.
func (f *Form) Save(ctx context.Context, commit bool) (*document.Instance, error) {
	if f.Bound() && !f.validated {
		f.fullClean(ctx)
	}
	if !f.validated {
		return nil, fmt.Errorf("docform: cannot save an unbound %s form", f.doc.Name)
	}
	if !f.errs.Empty() {
		action := "created"
		if f.instance.HasID() {
			action = "changed"
		}
		return nil, fmt.Errorf("docform: the %s could not be %s because the data didn't validate", f.doc.Name, action)
	}

	if commit {
		if f.store == nil {
			return nil, errors.New("docform: no store configured")
		}
		if err := f.store.Save(ctx, f.instance, f.deferDelete...); err != nil {
			return nil, fmt.Errorf("docform: save %s: %w", f.doc.Name, err)
		}
	}
	return f.instance, nil
}
