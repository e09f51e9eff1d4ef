package docform

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goliatone/go-docforms/pkg/document"
	"github.com/goliatone/go-docforms/pkg/forms"
)

// constructInstance copies cleaned data onto the form's instance. Only
// fields present in the cleaned map, within the configured field lists, are
// written; identity fields and embedded containers are never touched here.
func (f *Form) constructInstance(ctx context.Context) error {
	var uploads []fileWrite

	for _, schemaField := range f.doc.Fields() {
		name := schemaField.Name
		if schemaField.Kind.Identity() || schemaField.Kind == document.KindEmbedded {
			continue
		}
		if f.def.allow != nil && !containsName(f.def.allow, name) {
			continue
		}
		if containsName(f.def.exclude, name) {
			continue
		}
		value, ok := f.cleaned[name]
		if !ok {
			continue
		}

		if upload, isUpload := value.(*forms.Upload); isUpload {
			uploads = append(uploads, fileWrite{field: name, upload: upload})
			continue
		}
		if err := f.instance.Set(name, value); err != nil {
			return err
		}
	}

	for _, w := range uploads {
		stored, err := f.storeUpload(ctx, w.upload)
		if err != nil {
			return fmt.Errorf("store upload for %s: %w", w.field, err)
		}
		if err := f.instance.Set(w.field, stored); err != nil {
			return err
		}
		f.cleaned[w.field] = stored
	}
	return nil
}

type fileWrite struct {
	field  string
	upload *forms.Upload
}

// storeUpload writes an upload to the blob store under a collision-free
// filename and returns the stored file reference.
func (f *Form) storeUpload(ctx context.Context, upload *forms.Upload) (*document.FileValue, error) {
	if f.blobs == nil {
		return nil, fmt.Errorf("no blob store configured for %s uploads", f.doc.Name)
	}
	name, err := document.UniqueFilename(ctx, f.blobs, upload.Name)
	if err != nil {
		return nil, err
	}
	return f.blobs.Replace(ctx, name, upload.ContentType, bytes.NewReader(upload.Content))
}
