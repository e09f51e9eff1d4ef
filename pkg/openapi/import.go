// Package openapi imports OpenAPI component schemas as document schemas, so
// existing API definitions can drive form generation without hand-written
// declarations.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-docforms/pkg/document"
)

// Vendor extensions recognised on component schemas and their properties.
const (
	uniqueExtensionKey     = "x-unique"
	collectionExtensionKey = "x-collection"
	embeddedExtensionKey   = "x-embedded"
)

// Import parses an OpenAPI document and converts every object schema under
// components into a document schema. Schemas are returned sorted by name.
func Import(ctx context.Context, raw []byte) ([]*document.Document, error) {
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, errors.New("openapi: document has no component schemas")
	}

	names := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []*document.Document
	for _, name := range names {
		ref := spec.Components.Schemas[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		if !isObject(ref.Value) {
			continue
		}
		doc, err := buildDocument(name, ref.Value)
		if err != nil {
			return nil, fmt.Errorf("openapi: schema %s: %w", name, err)
		}
		out = append(out, doc)
	}
	if len(out) == 0 {
		return nil, errors.New("openapi: no object schemas found")
	}
	return out, nil
}

func buildDocument(name string, src *openapi3.Schema) (*document.Document, error) {
	meta := &document.Meta{
		Embedded: boolExtension(src.Extensions, embeddedExtensionKey),
	}
	if collection, ok := src.Extensions[collectionExtensionKey].(string); ok {
		meta.Collection = collection
	}

	fields, err := buildFields(name, src)
	if err != nil {
		return nil, err
	}
	return document.New(name, fields, document.WithMeta(meta))
}

func buildFields(docName string, src *openapi3.Schema) ([]document.Field, error) {
	required := make(map[string]bool, len(src.Required))
	for _, name := range src.Required {
		required[name] = true
	}

	names := make([]string, 0, len(src.Properties))
	for name := range src.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var fields []document.Field
	for _, name := range names {
		ref := src.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		field, err := buildField(docName, name, ref.Value)
		if err != nil {
			return nil, err
		}
		field.Required = required[name]
		fields = append(fields, field)
	}
	return fields, nil
}

func buildField(docName, name string, src *openapi3.Schema) (document.Field, error) {
	field := document.Field{
		Name:     name,
		Kind:     fieldKind(src),
		Unique:   boolExtension(src.Extensions, uniqueExtensionKey),
		HelpText: src.Description,
		Default:  src.Default,
		Pattern:  src.Pattern,
	}

	for _, value := range src.Enum {
		field.Choices = append(field.Choices, value)
	}
	if src.Min != nil {
		value := *src.Min
		field.Min = &value
	}
	if src.Max != nil {
		value := *src.Max
		field.Max = &value
	}
	if src.MinLength != 0 {
		value := int(src.MinLength)
		field.MinLength = &value
	}
	if src.MaxLength != nil {
		value := int(*src.MaxLength)
		field.MaxLength = &value
	}

	switch field.Kind {
	case document.KindEmbedded:
		embedded, err := buildEmbedded(docName, name, src)
		if err != nil {
			return document.Field{}, err
		}
		field.Embedded = embedded

	case document.KindList:
		if src.Items == nil || src.Items.Value == nil {
			return document.Field{}, fmt.Errorf("array property %q has no items schema", name)
		}
		item, err := buildField(docName, name, src.Items.Value)
		if err != nil {
			return document.Field{}, err
		}
		field.Item = &item
	}
	return field, nil
}

func buildEmbedded(docName, name string, src *openapi3.Schema) (*document.Document, error) {
	fields, err := buildFields(docName, src)
	if err != nil {
		return nil, err
	}
	return document.New(docName+capitalize(name), fields, document.WithMeta(&document.Meta{Embedded: true}))
}

func fieldKind(src *openapi3.Schema) document.Kind {
	switch firstType(src.Type) {
	case "integer":
		return document.KindInt
	case "number":
		if src.Format == "decimal" {
			return document.KindDecimal
		}
		return document.KindFloat
	case "boolean":
		return document.KindBool
	case "array":
		return document.KindList
	case "object":
		return document.KindEmbedded
	default:
		switch src.Format {
		case "email":
			return document.KindEmail
		case "uri", "url":
			return document.KindURL
		case "date-time", "date":
			return document.KindDateTime
		case "binary", "byte":
			return document.KindFile
		case "objectid":
			return document.KindObjectID
		}
		return document.KindString
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func firstType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func isObject(src *openapi3.Schema) bool {
	return firstType(src.Type) == "object" || len(src.Properties) > 0
}

func boolExtension(extensions map[string]any, key string) bool {
	switch v := extensions[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}
