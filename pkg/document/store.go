package document

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store abstracts the document store. The mongodb package provides the real
// implementation; tests use in-memory stubs.
type Store interface {
	// Save persists the instance, inserting when it has no identity and
	// replacing otherwise. Fields named in omit are left out of the write
	// but remain visible on the in-memory instance: the persistence layer
	// rejects values (empty strings on optional fields) that the form layer
	// accepts, so they are suppressed from the write only.
	Save(ctx context.Context, inst *Instance, omit ...string) error

	// Delete removes the record. Deleting an embedded record is an error;
	// callers check Deletable first.
	Delete(ctx context.Context, inst *Instance) error

	// CountConflicts counts records sharing the field value, excluding the
	// instance's own identity when it has one.
	CountConflicts(ctx context.Context, inst *Instance, field string, value any) (int64, error)

	// Find returns instances of doc matching the filter, in collection order.
	Find(ctx context.Context, doc *Document, filter map[string]any) ([]*Instance, error)
}

// BlobStore abstracts the GridFS-style blob storage backing file fields.
type BlobStore interface {
	// Exists reports whether a blob is already stored under filename.
	Exists(ctx context.Context, filename string) (bool, error)

	// Replace stores content under filename and returns the stored
	// reference.
	Replace(ctx context.Context, filename, contentType string, content io.Reader) (*FileValue, error)
}

// FileValue is the stored reference a file field holds after upload.
type FileValue struct {
	ID          primitive.ObjectID
	Name        string
	ContentType string
	Length      int64
}

// UniqueFilename probes the blob store for name collisions and appends an
// incrementing numeric suffix before the extension until the name is free.
func UniqueFilename(ctx context.Context, blobs BlobStore, name string) (string, error) {
	ext := path.Ext(name)
	root := strings.TrimSuffix(name, ext)
	candidate := name
	for count := 1; ; count++ {
		exists, err := blobs.Exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("document: probe blob name %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d%s", root, count, ext)
	}
}
