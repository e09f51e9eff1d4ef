// Package formset edits collections of documents through repeated forms
// sharing one submission. Each sub-form is addressed by an indexed prefix
// and the set carries management data describing how many forms were
// rendered.
package formset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/goliatone/go-docforms/pkg/docform"
	"github.com/goliatone/go-docforms/pkg/document"
	"github.com/goliatone/go-docforms/pkg/forms"
)

const (
	// DefaultPrefix namespaces formsets that do not set their own.
	DefaultPrefix = "form"

	// DeletionField is the per-form checkbox name marking a form for removal.
	DeletionField = "DELETE"

	// OrderingField is the per-form number input carrying explicit ordering.
	OrderingField = "ORDER"

	totalFormsKey   = "TOTAL_FORMS"
	initialFormsKey = "INITIAL_FORMS"
)

// FormSet binds one submission to a queryset of document instances.
type FormSet struct {
	def      *docform.Definition
	prefix   string
	data     url.Values
	files    map[string]*forms.Upload
	queryset []*document.Instance
	store    document.Store
	blobs    document.BlobStore

	extra     int
	maxNum    int
	canDelete bool
	canOrder  bool

	forms     []*docform.Form
	errs      forms.Errors
	validated bool
}

// Option configures a formset.
type Option func(*FormSet)

// WithPrefix overrides the default form prefix.
func WithPrefix(prefix string) Option {
	return func(fs *FormSet) { fs.prefix = prefix }
}

// WithData binds the submitted values.
func WithData(data url.Values) Option {
	return func(fs *FormSet) { fs.data = data }
}

// WithFiles binds submitted uploads keyed by prefixed field name.
func WithFiles(files map[string]*forms.Upload) Option {
	return func(fs *FormSet) { fs.files = files }
}

// WithQueryset supplies the existing instances the initial forms edit.
func WithQueryset(queryset []*document.Instance) Option {
	return func(fs *FormSet) { fs.queryset = queryset }
}

// WithStore wires the document store used for saves, deletions and
// uniqueness checks.
func WithStore(store document.Store) Option {
	return func(fs *FormSet) { fs.store = store }
}

// WithBlobStore wires the blob store backing file fields.
func WithBlobStore(blobs document.BlobStore) Option {
	return func(fs *FormSet) { fs.blobs = blobs }
}

// WithExtra sets how many blank forms render beyond the queryset.
func WithExtra(n int) Option {
	return func(fs *FormSet) { fs.extra = n }
}

// WithMaxNum caps the total number of forms. Zero means no cap.
func WithMaxNum(n int) Option {
	return func(fs *FormSet) { fs.maxNum = n }
}

// WithCanDelete adds a deletion checkbox to every form.
func WithCanDelete() Option {
	return func(fs *FormSet) { fs.canDelete = true }
}

// WithCanOrder adds an ordering input to every form.
func WithCanOrder() Option {
	return func(fs *FormSet) { fs.canOrder = true }
}

// New builds the formset and its sub-forms.
func New(def *docform.Definition, opts ...Option) (*FormSet, error) {
	if def == nil {
		return nil, errors.New("formset: definition is required")
	}

	fs := &FormSet{
		def:    def,
		prefix: DefaultPrefix,
		extra:  1,
		errs:   make(forms.Errors),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(fs)
		}
	}

	total, err := fs.totalFormCount()
	if err != nil {
		return nil, err
	}
	if err := fs.buildForms(total); err != nil {
		return nil, err
	}
	return fs, nil
}

// Bound reports whether submitted data is attached.
func (fs *FormSet) Bound() bool {
	return fs.data != nil || fs.files != nil
}

// Prefix returns the formset's form prefix.
func (fs *FormSet) Prefix() string {
	return fs.prefix
}

// Forms returns the sub-forms in index order.
func (fs *FormSet) Forms() []*docform.Form {
	return append([]*docform.Form(nil), fs.forms...)
}

// InitialFormCount reports how many forms edit existing instances.
func (fs *FormSet) InitialFormCount() int {
	if fs.Bound() {
		n, err := fs.managementInt(initialFormsKey)
		if err != nil {
			return 0
		}
		return n
	}
	return len(fs.queryset)
}

func (fs *FormSet) totalFormCount() (int, error) {
	if fs.Bound() {
		return fs.managementInt(totalFormsKey)
	}
	total := len(fs.queryset) + fs.extra
	if fs.maxNum > 0 && total > fs.maxNum {
		total = fs.maxNum
		if total < len(fs.queryset) {
			total = len(fs.queryset)
		}
	}
	return total, nil
}

func (fs *FormSet) managementInt(key string) (int, error) {
	raw := fs.data.Get(fs.prefix + "-" + key)
	if raw == "" {
		return 0, fmt.Errorf("formset: management data for %q is missing or has been tampered with", fs.prefix)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("formset: management data for %q is invalid: %q", fs.prefix, raw)
	}
	return n, nil
}

// ManagementData returns the hidden values a template must render so the
// submission round-trips the form counts.
func (fs *FormSet) ManagementData() url.Values {
	initial := fs.InitialFormCount()
	return url.Values{
		fs.prefix + "-" + totalFormsKey:   {strconv.Itoa(len(fs.forms))},
		fs.prefix + "-" + initialFormsKey: {strconv.Itoa(initial)},
	}
}

func (fs *FormSet) buildForms(total int) error {
	initial := fs.InitialFormCount()
	for i := 0; i < total; i++ {
		form, err := fs.buildForm(i, i < initial)
		if err != nil {
			return err
		}
		fs.forms = append(fs.forms, form)
	}
	return nil
}

func (fs *FormSet) buildForm(index int, hasInstance bool) (*docform.Form, error) {
	opts := []docform.FormOption{
		docform.WithPrefix(fmt.Sprintf("%s-%d", fs.prefix, index)),
		docform.WithStore(fs.store),
		docform.WithBlobStore(fs.blobs),
	}
	if fs.Bound() {
		opts = append(opts, docform.WithData(fs.data), docform.WithFiles(fs.files))
	}
	if hasInstance && index < len(fs.queryset) {
		opts = append(opts, docform.WithInstance(fs.queryset[index]))
	} else {
		opts = append(opts, docform.WithEmptyPermitted())
	}
	if extras := fs.extraFields(); len(extras) > 0 {
		opts = append(opts, docform.WithExtraFields(extras...))
	}
	return docform.NewForm(fs.def, opts...)
}

func (fs *FormSet) extraFields() []*forms.Field {
	var extras []*forms.Field
	if fs.canOrder {
		extras = append(extras, &forms.Field{
			Name:   OrderingField,
			Label:  "Order",
			Widget: forms.WidgetNumber,
			Coerce: forms.CoerceInt,
		})
	}
	if fs.canDelete {
		extras = append(extras, &forms.Field{
			Name:   DeletionField,
			Label:  "Delete",
			Widget: forms.WidgetCheckbox,
			Coerce: forms.CoerceBool,
		})
	}
	return extras
}

// Valid validates every sub-form plus the set-level checks and reports the
// aggregate outcome.
func (fs *FormSet) Valid(ctx context.Context) bool {
	if !fs.Bound() {
		return false
	}
	if fs.validated {
		return fs.valid()
	}
	fs.validated = true
	fs.errs = make(forms.Errors)

	for _, form := range fs.forms {
		form.Valid(ctx)
	}
	fs.clean()
	return fs.valid()
}

func (fs *FormSet) valid() bool {
	if !fs.errs.Empty() {
		return false
	}
	for _, form := range fs.forms {
		if !form.Errors().Empty() {
			return false
		}
	}
	return true
}

// clean runs set-level validation: uniqueness conflicts recorded by the
// sub-forms surface once as a set error.
func (fs *FormSet) clean() {
	for _, form := range fs.forms {
		if !form.UniqueErrors().Empty() {
			fs.errs.AddNonField("Please correct the duplicate values below.")
			return
		}
	}
}

// Errors returns the set-level messages. Per-form messages live on the
// individual forms.
func (fs *FormSet) Errors() forms.Errors {
	return fs.errs
}

// MarkedForDeletion reports whether a validated form's deletion box is
// checked. Always false when deletion is disabled.
func (fs *FormSet) MarkedForDeletion(form *docform.Form) bool {
	if !fs.canDelete {
		return false
	}
	flag, _ := form.CleanedData()[DeletionField].(bool)
	return flag
}

// OrderedForms returns the forms sorted by their submitted order value.
// Forms without one keep their index position after the ordered ones.
func (fs *FormSet) OrderedForms() []*docform.Form {
	if !fs.canOrder {
		return fs.Forms()
	}
	type ranked struct {
		form  *docform.Form
		order int
		has   bool
		index int
	}
	rankedForms := make([]ranked, len(fs.forms))
	for i, form := range fs.forms {
		order, ok := form.CleanedData()[OrderingField].(int64)
		rankedForms[i] = ranked{form: form, order: int(order), has: ok, index: i}
	}
	sort.SliceStable(rankedForms, func(a, b int) bool {
		ra, rb := rankedForms[a], rankedForms[b]
		if ra.has != rb.has {
			return ra.has
		}
		if ra.has {
			return ra.order < rb.order
		}
		return ra.index < rb.index
	})
	out := make([]*docform.Form, len(rankedForms))
	for i, r := range rankedForms {
		out[i] = r.form
	}
	return out
}

// Save persists every changed form and returns the surviving instances.
// Forms marked for deletion are removed from the store when their documents
// allow it and are always excluded from the result. Untouched blank forms
// are skipped.
func (fs *FormSet) Save(ctx context.Context, commit bool) ([]*document.Instance, error) {
	if !fs.Valid(ctx) {
		return nil, fmt.Errorf("formset: the %s forms could not be saved because the data didn't validate", fs.def.Document().Name)
	}
	if commit && fs.store == nil {
		return nil, errors.New("formset: no store configured")
	}

	initial := fs.InitialFormCount()
	var saved []*document.Instance
	for i, form := range fs.forms {
		if i >= initial && !form.HasChanged() {
			continue
		}

		if fs.MarkedForDeletion(form) {
			inst := form.Instance()
			if !inst.Deletable() {
				continue
			}
			if commit && inst.HasID() {
				if err := fs.store.Delete(ctx, inst); err != nil {
					return saved, fmt.Errorf("formset: delete %s: %w", fs.def.Document().Name, err)
				}
			}
			continue
		}

		inst, err := form.Save(ctx, commit)
		if err != nil {
			return saved, err
		}
		saved = append(saved, inst)
	}
	return saved, nil
}
