package formset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-docforms/pkg/docform"
	"github.com/goliatone/go-docforms/pkg/document"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InlineFormSet edits the documents referencing one parent record. The
// foreign-key field is managed by the set, never by the submission.
type InlineFormSet struct {
	*FormSet
	parent    *document.Instance
	fk        string
	saveAsNew bool
}

// InlineOption configures an inline formset on top of the base options.
type InlineOption func(*inlineConfig)

type inlineConfig struct {
	saveAsNew bool
	opts      []Option
}

// SaveAsNew makes the set persist copies of the submitted records instead of
// updating the originals.
func SaveAsNew() InlineOption {
	return func(c *inlineConfig) { c.saveAsNew = true }
}

// WithOptions forwards base formset options to the inline set.
func WithOptions(opts ...Option) InlineOption {
	return func(c *inlineConfig) { c.opts = append(c.opts, opts...) }
}

// NewInline builds a formset scoped to the documents whose fk field points
// at the parent. The fk field must exist on the definition's document and
// hold a reference.
func NewInline(def *docform.Definition, parent *document.Instance, fk string, opts ...InlineOption) (*InlineFormSet, error) {
	if def == nil {
		return nil, errors.New("formset: definition is required")
	}
	if parent == nil {
		return nil, errors.New("formset: inline formsets require a parent instance")
	}
	fkField, ok := def.Document().Field(fk)
	if !ok {
		return nil, fmt.Errorf("formset: %s has no field %q", def.Document().Name, fk)
	}
	if fkField.Kind != document.KindRef && !fkField.Kind.Identity() {
		return nil, fmt.Errorf("formset: %s.%s does not hold a reference", def.Document().Name, fk)
	}

	cfg := &inlineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	inline := &InlineFormSet{
		parent:    parent,
		fk:        fk,
		saveAsNew: cfg.saveAsNew,
	}

	base := []Option{WithPrefix(strings.ToLower(def.Document().Name))}
	base = append(base, cfg.opts...)
	base = append(base, inline.scopeQueryset())

	fs, err := New(def, base...)
	if err != nil {
		return nil, err
	}
	inline.FormSet = fs
	return inline, nil
}

// scopeQueryset trims the configured queryset to instances referencing the
// parent. Saving as new discards the queryset entirely so every form builds
// a fresh record.
func (ifs *InlineFormSet) scopeQueryset() Option {
	return func(fs *FormSet) {
		if ifs.saveAsNew {
			fs.queryset = nil
			return
		}
		if !ifs.parent.HasID() {
			fs.queryset = nil
			return
		}
		var scoped []*document.Instance
		for _, inst := range fs.queryset {
			if ref, ok := inst.Get(ifs.fk).(primitive.ObjectID); ok && ref == ifs.parent.ID() {
				scoped = append(scoped, inst)
			}
		}
		fs.queryset = scoped
	}
}

// Parent returns the record the inline documents reference.
func (ifs *InlineFormSet) Parent() *document.Instance {
	return ifs.parent
}

// Save points every surviving instance at the parent before persisting. A
// parent that has never been saved cannot be referenced.
func (ifs *InlineFormSet) Save(ctx context.Context, commit bool) ([]*document.Instance, error) {
	if !ifs.Valid(ctx) {
		return nil, fmt.Errorf("formset: the %s forms could not be saved because the data didn't validate", ifs.def.Document().Name)
	}
	if !ifs.parent.HasID() {
		return nil, fmt.Errorf("formset: %s parent must be saved before its %s records",
			ifs.parent.Document().Name, ifs.def.Document().Name)
	}
	if commit && ifs.store == nil {
		return nil, errors.New("formset: no store configured")
	}

	initial := ifs.InitialFormCount()
	var saved []*document.Instance
	for i, form := range ifs.forms {
		if i >= initial && !form.HasChanged() {
			continue
		}

		if ifs.MarkedForDeletion(form) {
			inst := form.Instance()
			if !inst.Deletable() {
				continue
			}
			if commit && inst.HasID() {
				if err := ifs.store.Delete(ctx, inst); err != nil {
					return saved, fmt.Errorf("formset: delete %s: %w", ifs.def.Document().Name, err)
				}
			}
			continue
		}

		inst, err := form.Save(ctx, false)
		if err != nil {
			return saved, err
		}
		if ifs.saveAsNew {
			inst.ClearID()
		}
		if err := inst.Set(ifs.fk, ifs.parent.ID()); err != nil {
			return saved, err
		}
		if commit {
			if err := ifs.store.Save(ctx, inst, form.DeferredDeletions()...); err != nil {
				return saved, fmt.Errorf("formset: save %s: %w", ifs.def.Document().Name, err)
			}
		}
		saved = append(saved, inst)
	}
	return saved, nil
}
