package render

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tpl
var templateFiles embed.FS

func builtinTemplates() fs.FS {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		// The embedded tree always contains the templates directory.
		panic(err)
	}
	return sub
}
