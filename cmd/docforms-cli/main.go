package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-docforms/pkg/docform"
	"github.com/goliatone/go-docforms/pkg/document"
	"github.com/goliatone/go-docforms/pkg/openapi"
	"github.com/goliatone/go-docforms/pkg/render"
	"github.com/goliatone/go-docforms/pkg/tui"
)

func main() {
	schemaPath := flag.String("schema", "schema.yaml", "schema file (.yaml or OpenAPI .json)")
	docName := flag.String("document", "", "document name, defaults to the first in the schema")
	output := flag.String("output", "", "output file (stdout if empty)")
	fill := flag.Bool("fill", false, "prompt for values on the terminal and render the bound form")
	flag.Parse()

	ctx := context.Background()

	docs, err := loadSchemas(ctx, *schemaPath)
	if err != nil {
		log.Fatalf("load schema: %v", err)
	}

	doc := pickDocument(docs, *docName)
	if doc == nil {
		log.Fatalf("document %q not found in %s", *docName, *schemaPath)
	}

	def, err := docform.NewDefinition(doc)
	if err != nil {
		log.Fatalf("build definition for %s: %v", doc.Name, err)
	}

	var formOpts []docform.FormOption
	if *fill {
		values, err := tui.Fill(ctx, def)
		if err != nil {
			log.Fatalf("collect input: %v", err)
		}
		formOpts = append(formOpts, docform.WithData(values))
	}

	form, err := docform.NewForm(def, formOpts...)
	if err != nil {
		log.Fatalf("build form for %s: %v", doc.Name, err)
	}
	if *fill {
		form.Valid(ctx)
	}

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("build renderer: %v", err)
	}
	html, err := renderer.RenderForm(form)
	if err != nil {
		log.Fatalf("render %s form: %v", doc.Name, err)
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(html), 0o644); err != nil {
			log.Fatalf("write output: %v", err)
		}
		fmt.Printf("Form written to %s\n", *output)
		return
	}
	fmt.Println(html)
}

func loadSchemas(ctx context.Context, path string) ([]*document.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return openapi.Import(ctx, raw)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return document.LoadYAML(f)
	}
}

func pickDocument(docs []*document.Document, name string) *document.Document {
	if name == "" && len(docs) > 0 {
		return docs[0]
	}
	for _, doc := range docs {
		if doc.Name == name {
			return doc
		}
	}
	return nil
}
