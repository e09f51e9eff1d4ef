package document

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlFile is the on-disk shape of a schema bundle.
type yamlFile struct {
	Documents []yamlDocument `yaml:"documents"`
}

type yamlDocument struct {
	Name       string         `yaml:"name"`
	Collection string         `yaml:"collection"`
	Embedded   bool           `yaml:"embedded"`
	Verbose    string         `yaml:"verbose_name"`
	Ordering   []string       `yaml:"ordering"`
	Fields     []yamlField    `yaml:"fields"`
	LegacyMeta map[string]any `yaml:"meta"`
}

type yamlField struct {
	Name       string         `yaml:"name"`
	Kind       string         `yaml:"kind"`
	Required   bool           `yaml:"required"`
	Unique     bool           `yaml:"unique"`
	UniqueWith []string       `yaml:"unique_with"`
	Default    any            `yaml:"default"`
	Choices    []any          `yaml:"choices"`
	MinLength  *int           `yaml:"min_length"`
	MaxLength  *int           `yaml:"max_length"`
	Min        *float64       `yaml:"min"`
	Max        *float64       `yaml:"max"`
	Pattern    string         `yaml:"pattern"`
	Label      string         `yaml:"label"`
	HelpText   string         `yaml:"help"`
	Item       *yamlField     `yaml:"item"`
	Fields     []yamlField    `yaml:"fields"`
	Document   *yamlDocument  `yaml:"document"`
}

// LoadYAML reads a YAML schema bundle and builds its documents. Embedded
// sub-schemas are declared inline under their field, either as a bare field
// list or a full document block.
func LoadYAML(r io.Reader) ([]*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("document: read schema bundle: %w", err)
	}

	var file yamlFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("document: parse schema bundle: %w", err)
	}
	if len(file.Documents) == 0 {
		return nil, fmt.Errorf("document: schema bundle declares no documents")
	}

	docs := make([]*Document, 0, len(file.Documents))
	for _, yd := range file.Documents {
		doc, err := buildYAMLDocument(yd)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func buildYAMLDocument(yd yamlDocument) (*Document, error) {
	fields := make([]Field, 0, len(yd.Fields))
	for _, yf := range yd.Fields {
		field, err := buildYAMLField(yd.Name, yf)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	opts := []Option{WithMeta(&Meta{
		Collection:  yd.Collection,
		Embedded:    yd.Embedded,
		VerboseName: yd.Verbose,
		Ordering:    yd.Ordering,
	})}
	if len(yd.LegacyMeta) > 0 {
		opts = []Option{WithLegacyMeta(yd.LegacyMeta)}
	}
	return New(yd.Name, fields, opts...)
}

func buildYAMLField(docName string, yf yamlField) (Field, error) {
	kind := Kind(yf.Kind)
	if !kind.Valid() {
		return Field{}, fmt.Errorf("document %s: field %q has unknown kind %q", docName, yf.Name, yf.Kind)
	}

	field := Field{
		Name:       yf.Name,
		Kind:       kind,
		Required:   yf.Required,
		Unique:     yf.Unique,
		UniqueWith: yf.UniqueWith,
		Default:    yf.Default,
		Choices:    yf.Choices,
		MinLength:  yf.MinLength,
		MaxLength:  yf.MaxLength,
		Min:        yf.Min,
		Max:        yf.Max,
		Pattern:    yf.Pattern,
		Label:      yf.Label,
		HelpText:   yf.HelpText,
	}

	if kind == KindList {
		if yf.Item == nil {
			return Field{}, fmt.Errorf("document %s: list field %q needs an item descriptor", docName, yf.Name)
		}
		item, err := buildYAMLField(docName, *yf.Item)
		if err != nil {
			return Field{}, err
		}
		field.Item = &item
	}

	if kind == KindEmbedded {
		sub, err := embeddedSchema(docName, yf)
		if err != nil {
			return Field{}, err
		}
		field.Embedded = sub
	}

	return field, nil
}

func embeddedSchema(docName string, yf yamlField) (*Document, error) {
	switch {
	case yf.Document != nil:
		sub := *yf.Document
		sub.Embedded = true
		return buildYAMLDocument(sub)
	case len(yf.Fields) > 0:
		return buildYAMLDocument(yamlDocument{
			Name:     docName + "." + yf.Name,
			Embedded: true,
			Fields:   yf.Fields,
		})
	default:
		return nil, fmt.Errorf("document %s: embedded field %q declares no sub-schema", docName, yf.Name)
	}
}
