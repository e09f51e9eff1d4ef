// Package render turns forms and formsets into HTML using pongo2 templates.
// The built-in templates can be replaced wholesale through an fs.FS, and a
// theme selection contributes CSS variables to the rendered markup.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-docforms/pkg/docform"
	"github.com/goliatone/go-docforms/pkg/formset"
)

// Option configures the renderer before construction.
type Option func(*config)

type config struct {
	templates fs.FS
	extension string
	selection *theme.Selection
}

// WithTemplatesFS replaces the built-in templates.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the default .tpl template extension.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithTheme applies a theme selection; its tokens surface as CSS variables
// on the form wrapper.
func WithTheme(selection *theme.Selection) Option {
	return func(cfg *config) {
		cfg.selection = selection
	}
}

// Renderer renders forms through a pongo2 template set. Safe for concurrent
// use once constructed.
type Renderer struct {
	mu sync.RWMutex

	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
	tplExt    string

	themeName    string
	themeVariant string
	cssVars      map[string]string
}

// New constructs a renderer. Without options it serves the embedded
// templates.
func New(options ...Option) (*Renderer, error) {
	cfg := &config{
		templates: builtinTemplates(),
		extension: ".tpl",
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.templates == nil {
		return nil, errors.New("render: templates fs is required")
	}

	r := &Renderer{
		set:       pongo2.NewSet("docforms", pongo2.NewFSLoader(cfg.templates)),
		templates: make(map[string]*pongo2.Template),
		tplExt:    cfg.extension,
	}
	if cfg.selection != nil {
		r.themeName = cfg.selection.Theme
		r.themeVariant = cfg.selection.Variant
		r.cssVars = cssVariables(cfg.selection)
	}
	return r, nil
}

// RenderForm renders a complete form body: non-field errors followed by
// every field. The surrounding <form> element is the caller's.
func (r *Renderer) RenderForm(form *docform.Form) (string, error) {
	if form == nil {
		return "", errors.New("render: form is nil")
	}
	return r.execute("form", pongo2.Context{
		"form":  formView(form),
		"theme": r.themeContext(),
	})
}

// RenderField renders a single named field of the form.
func (r *Renderer) RenderField(form *docform.Form, name string) (string, error) {
	if form == nil {
		return "", errors.New("render: form is nil")
	}
	fld, ok := form.Field(name)
	if !ok {
		return "", fmt.Errorf("render: form for %s has no field %q", form.Instance().Document().Name, name)
	}
	return r.execute("field", pongo2.Context{
		"field": fieldView(form, fld),
		"theme": r.themeContext(),
	})
}

// RenderFormSet renders the management inputs and every sub-form.
func (r *Renderer) RenderFormSet(fset *formset.FormSet) (string, error) {
	if fset == nil {
		return "", errors.New("render: formset is nil")
	}
	return r.execute("formset", pongo2.Context{
		"formset": formSetView(fset),
		"theme":   r.themeContext(),
	})
}

func (r *Renderer) themeContext() pongo2.Context {
	return pongo2.Context{
		"name":    r.themeName,
		"variant": r.themeVariant,
		"cssVars": r.cssVars,
		"style":   inlineStyle(r.cssVars),
	}
}

func (r *Renderer) execute(name string, ctx pongo2.Context) (string, error) {
	tmpl, err := r.template(name + r.tplExt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	r.mu.RLock()
	err = tmpl.ExecuteWriter(ctx, &buf)
	r.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("render: execute template %q: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) template(path string) (*pongo2.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[path]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := r.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: load template %q: %w", path, err)
	}
	r.templates[path] = tmpl
	return tmpl, nil
}
