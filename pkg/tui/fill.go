package tui

import (
	"context"
	"fmt"
	"net/url"

	"github.com/goliatone/go-docforms/pkg/docform"
	"github.com/goliatone/go-docforms/pkg/forms"
)

// FillOption configures a fill flow.
type FillOption func(*filler)

// WithDriver swaps the prompt driver, usually for tests.
func WithDriver(driver PromptDriver) FillOption {
	return func(f *filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithPrefix namespaces the produced value keys the way a prefixed form
// expects them.
func WithPrefix(prefix string) FillOption {
	return func(f *filler) {
		f.prefix = prefix
	}
}

// WithDefaults seeds prompt defaults per field name.
func WithDefaults(defaults map[string]string) FillOption {
	return func(f *filler) {
		f.defaults = defaults
	}
}

type filler struct {
	driver   PromptDriver
	prefix   string
	defaults map[string]string
}

// Fill prompts for every field of the definition and returns the collected
// values ready to bind to a form. Aborting any prompt aborts the fill.
func Fill(ctx context.Context, def *docform.Definition, opts ...FillOption) (url.Values, error) {
	if def == nil {
		return nil, fmt.Errorf("tui: definition is required")
	}

	f := &filler{driver: &surveyDriver{}}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	values := url.Values{}
	for _, fld := range def.Fields() {
		raw, err := f.prompt(ctx, fld)
		if err != nil {
			return nil, err
		}
		values.Set(f.key(fld.Name), raw)
	}
	return values, nil
}

func (f *filler) key(name string) string {
	if f.prefix == "" {
		return name
	}
	return f.prefix + "-" + name
}

func (f *filler) prompt(ctx context.Context, fld *forms.Field) (string, error) {
	message := fld.Label
	if message == "" {
		message = fld.Name
	}

	switch fld.Widget {
	case forms.WidgetCheckbox:
		ok, err := f.driver.Confirm(ctx, ConfirmConfig{
			Message: message,
			Help:    fld.HelpText,
			Default: f.defaults[fld.Name] == "true",
		})
		if err != nil {
			return "", err
		}
		if ok {
			return "true", nil
		}
		return "", nil

	case forms.WidgetSelect:
		options := make([]string, len(fld.Choices))
		defaultIndex := 0
		for i, choice := range fld.Choices {
			options[i] = choice.Label
			if forms.FormatChoice(choice.Value) == f.defaults[fld.Name] {
				defaultIndex = i
			}
		}
		index, err := f.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      options,
			DefaultIndex: defaultIndex,
			Help:         fld.HelpText,
		})
		if err != nil {
			return "", err
		}
		if index < 0 || index >= len(fld.Choices) {
			return "", nil
		}
		return forms.FormatChoice(fld.Choices[index].Value), nil

	case forms.WidgetTextarea:
		return f.driver.TextArea(ctx, TextAreaConfig{
			Message: message,
			Help:    fld.HelpText,
			Default: f.defaults[fld.Name],
		})

	case forms.WidgetPassword:
		return f.driver.Password(ctx, InputConfig{
			Message: message,
			Help:    fld.HelpText,
		})

	default:
		cfg := InputConfig{
			Message: message,
			Help:    fld.HelpText,
			Default: f.defaults[fld.Name],
		}
		if fld.Required {
			cfg.Validator = func(raw string) error {
				if raw == "" {
					return fmt.Errorf("%s is required", message)
				}
				return nil
			}
		}
		return f.driver.Input(ctx, cfg)
	}
}
