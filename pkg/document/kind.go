package document

// Kind enumerates the schema-level field kinds a document can declare. The
// set mirrors the field types exposed by MongoDB object-document mappers.
type Kind string

const (
	KindString   Kind = "string"
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindURL      Kind = "url"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindDecimal  Kind = "decimal"
	KindBool     Kind = "bool"
	KindDateTime Kind = "datetime"
	KindObjectID Kind = "objectid"
	KindList     Kind = "list"
	KindEmbedded Kind = "embedded"
	KindRef      Kind = "reference"
	KindFile     Kind = "file"
)

// Identity reports whether the kind acts as a primary-key style identifier.
func (k Kind) Identity() bool {
	return k == KindObjectID
}

// Collection reports whether the kind holds multiple values.
func (k Kind) Collection() bool {
	return k == KindList
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindText, KindEmail, KindURL, KindInt, KindFloat,
		KindDecimal, KindBool, KindDateTime, KindObjectID, KindList,
		KindEmbedded, KindRef, KindFile:
		return true
	default:
		return false
	}
}
