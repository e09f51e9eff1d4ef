package document

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Instance is one record of a Document schema: field values plus identity.
// Instances are request-scoped working objects; the store persists them.
type Instance struct {
	doc     *Document
	id      primitive.ObjectID
	values  map[string]any
	changed map[string]struct{}
}

// NewInstance creates an empty record, seeding declared defaults.
func NewInstance(doc *Document) *Instance {
	inst := &Instance{
		doc:     doc,
		values:  make(map[string]any, len(doc.fields)),
		changed: make(map[string]struct{}),
	}
	for _, f := range doc.fields {
		if f.Default != nil {
			inst.values[f.Name] = f.Default
		}
	}
	return inst
}

// Document returns the schema this instance belongs to.
func (i *Instance) Document() *Document {
	return i.doc
}

// ID returns the record identity; zero when the record was never persisted.
func (i *Instance) ID() primitive.ObjectID {
	return i.id
}

// SetID assigns the record identity. The store calls this after an insert.
func (i *Instance) SetID(id primitive.ObjectID) {
	i.id = id
}

// HasID reports whether the record has a persisted identity.
func (i *Instance) HasID() bool {
	return !i.id.IsZero()
}

// ClearID blanks the identity so the next save inserts a fresh record.
func (i *Instance) ClearID() {
	i.id = primitive.NilObjectID
}

// Deletable reports whether the record supports standalone deletion.
// Embedded records do not; they only exist inside their parent.
func (i *Instance) Deletable() bool {
	return i.doc.Meta.Deletable()
}

// Get returns the current value of a field, or nil when unset.
func (i *Instance) Get(name string) any {
	return i.values[name]
}

// Set assigns a field value and records the change. Unknown field names are
// rejected so typos fail loudly instead of writing stray keys.
func (i *Instance) Set(name string, value any) error {
	if !i.doc.Has(name) {
		return fmt.Errorf("document %s has no field %q", i.doc.Name, name)
	}
	i.values[name] = value
	i.changed[name] = struct{}{}
	return nil
}

// Changed returns the names of fields assigned since construction.
func (i *Instance) Changed() []string {
	out := make([]string, 0, len(i.changed))
	for _, f := range i.doc.fields {
		if _, ok := i.changed[f.Name]; ok {
			out = append(out, f.Name)
		}
	}
	return out
}

// Values returns a copy of the current value map.
func (i *Instance) Values() map[string]any {
	out := make(map[string]any, len(i.values))
	for k, v := range i.values {
		out[k] = v
	}
	return out
}

// RunClean invokes the document's whole-instance clean hook, when present.
func (i *Instance) RunClean() error {
	if i.doc.Clean == nil {
		return nil
	}
	return i.doc.Clean(i)
}
