// Package testsupport provides in-memory store fakes shared by the package
// tests. Nothing here is safe for production use.
package testsupport

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/goliatone/go-docforms/pkg/document"
)

// MemoryStore keeps instances in a map keyed by hex id.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*document.Instance

	// SaveCalls counts Save invocations, including failed ones.
	SaveCalls int
	// LastOmit records the omit list of the most recent Save.
	LastOmit []string
	// FailSave, when set, is returned by every Save.
	FailSave error
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*document.Instance)}
}

// Save assigns an id on first save and records the instance.
func (s *MemoryStore) Save(_ context.Context, inst *document.Instance, omit ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveCalls++
	s.LastOmit = append([]string(nil), omit...)
	if s.FailSave != nil {
		return s.FailSave
	}
	if !inst.HasID() {
		inst.SetID(primitive.NewObjectID())
	}
	s.records[inst.ID().Hex()] = inst
	return nil
}

// Delete removes a stored instance.
func (s *MemoryStore) Delete(_ context.Context, inst *document.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !inst.Deletable() {
		return fmt.Errorf("testsupport: %s cannot be deleted", inst.Document().Name)
	}
	if !inst.HasID() {
		return fmt.Errorf("testsupport: %s has never been saved", inst.Document().Name)
	}
	delete(s.records, inst.ID().Hex())
	return nil
}

// CountConflicts counts stored instances holding value in field, excluding
// the instance itself.
func (s *MemoryStore) CountConflicts(_ context.Context, inst *document.Instance, field string, value any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, record := range s.records {
		if inst.HasID() && id == inst.ID().Hex() {
			continue
		}
		if !sameDocument(record.Document(), inst.Document()) {
			continue
		}
		if record.Get(field) == value {
			n++
		}
	}
	return n, nil
}

// sameDocument matches documents the way the real store does: by backing
// collection rather than pointer identity.
func sameDocument(a, b *document.Document) bool {
	if a == b {
		return true
	}
	return a != nil && b != nil && a.Meta.Collection != "" && a.Meta.Collection == b.Meta.Collection
}

// Find returns the stored instances of doc matching every filter entry.
func (s *MemoryStore) Find(_ context.Context, doc *document.Document, filter map[string]any) ([]*document.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*document.Instance
	for _, record := range s.records {
		if !sameDocument(record.Document(), doc) {
			continue
		}
		match := true
		for key, want := range filter {
			if record.Get(key) != want {
				match = false
				break
			}
		}
		if match {
			out = append(out, record)
		}
	}
	return out, nil
}

// Len reports how many instances are stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Stored returns the instance saved under the id, nil when absent.
func (s *MemoryStore) Stored(id primitive.ObjectID) *document.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id.Hex()]
}

// MemoryBlobs keeps uploaded blobs in a map keyed by filename.
type MemoryBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
	types map[string]string
}

// NewMemoryBlobs constructs an empty blob store.
func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{
		blobs: make(map[string][]byte),
		types: make(map[string]string),
	}
}

// Exists reports whether a blob is stored under filename.
func (b *MemoryBlobs) Exists(_ context.Context, filename string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[filename]
	return ok, nil
}

// Replace stores the content under filename.
func (b *MemoryBlobs) Replace(_ context.Context, filename, contentType string, content io.Reader) (*document.FileValue, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[filename] = data
	b.types[filename] = contentType
	return &document.FileValue{
		ID:          primitive.NewObjectID(),
		Name:        filename,
		ContentType: contentType,
		Length:      int64(len(data)),
	}, nil
}

// Seed stores content under filename without going through Replace.
func (b *MemoryBlobs) Seed(filename string, content []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[filename] = append([]byte(nil), content...)
}

// Blob returns the stored bytes for filename.
func (b *MemoryBlobs) Blob(filename string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[filename]
	return data, ok
}

// Filenames lists the stored blob names.
func (b *MemoryBlobs) Filenames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.blobs))
	for name := range b.blobs {
		names = append(names, name)
	}
	return names
}

var _ document.Store = (*MemoryStore)(nil)
var _ document.BlobStore = (*MemoryBlobs)(nil)
