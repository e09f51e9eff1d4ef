package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goliatone/go-docforms/pkg/docform"
	"github.com/goliatone/go-docforms/pkg/document"
)

type violation struct {
	file     string
	location string
	message  string
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [paths...]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(flag.CommandLine.Output(), "\nLint YAML document schemas and report fields forms cannot handle.\n")
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var violations []violation
	for _, path := range paths {
		violations = append(violations, lintFile(path)...)
	}

	if len(violations) == 0 {
		fmt.Println("ok")
		return
	}

	sort.Slice(violations, func(a, b int) bool {
		if violations[a].file != violations[b].file {
			return violations[a].file < violations[b].file
		}
		return violations[a].location < violations[b].location
	})
	for _, v := range violations {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", v.file, v.location, v.message)
	}
	os.Exit(1)
}

func lintFile(path string) []violation {
	f, err := os.Open(path)
	if err != nil {
		return []violation{{file: path, location: "-", message: err.Error()}}
	}
	defer f.Close()

	docs, err := document.LoadYAML(f)
	if err != nil {
		return []violation{{file: path, location: "-", message: err.Error()}}
	}

	var violations []violation
	for _, doc := range docs {
		if _, err := docform.NewDefinition(doc); err != nil {
			violations = append(violations, violation{
				file:     path,
				location: doc.Name,
				message:  err.Error(),
			})
		}
		for _, field := range doc.Fields() {
			// Embedded documents have no collection, so there is nothing to
			// query a uniqueness conflict against.
			if field.Unique && doc.Meta.Embedded {
				violations = append(violations, violation{
					file:     path,
					location: doc.Name + "." + field.Name,
					message:  "unique field on an embedded document can never be validated",
				})
			}
			if len(field.UniqueWith) > 0 {
				violations = append(violations, violation{
					file:     path,
					location: doc.Name + "." + field.Name,
					message:  "unique_with is recorded but not enforced",
				})
			}
		}
	}
	return violations
}
