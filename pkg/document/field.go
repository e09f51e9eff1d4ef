package document

import (
	"fmt"
	"reflect"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field describes a single schema field: its name, kind, and the constraints
// the schema layer enforces. Fields are read-only once the owning Document
// has been built.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Unique   bool
	// UniqueWith records composite uniqueness declarations. They are carried
	// for introspection but never enforced; only single-field uniqueness is
	// validated.
	UniqueWith []string
	Default    any
	Choices    []any
	MinLength  *int
	MaxLength  *int
	Min        *float64
	Max        *float64
	Pattern    string
	Label      string
	HelpText   string
	// Embedded holds the sub-document schema for KindEmbedded fields and for
	// list items of embedded kind.
	Embedded *Document
	// Item describes the element type of KindList fields.
	Item *Field

	pattern *regexp.Regexp
}

// IsEmpty reports whether value counts as empty for validation purposes.
// nil, empty strings, and empty slices/maps are all empty.
func (f Field) IsEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return v == ""
	case primitive.ObjectID:
		return v.IsZero()
	case time.Time:
		return v.IsZero()
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Validate runs the schema layer's own checks against a value: requiredness,
// kind, choices, bounds, and pattern. It returns nil when the value is
// acceptable to the persistence layer.
func (f Field) Validate(value any) error {
	if f.IsEmpty(value) {
		if f.Required {
			return fmt.Errorf("field %q is required", f.Name)
		}
		return nil
	}

	if err := f.validateKind(value); err != nil {
		return err
	}

	if len(f.Choices) > 0 && !containsChoice(f.Choices, value) {
		return fmt.Errorf("value %v is not a valid choice for field %q", value, f.Name)
	}

	switch v := value.(type) {
	case string:
		if f.MinLength != nil && len(v) < *f.MinLength {
			return fmt.Errorf("field %q is shorter than %d characters", f.Name, *f.MinLength)
		}
		if f.MaxLength != nil && len(v) > *f.MaxLength {
			return fmt.Errorf("field %q is longer than %d characters", f.Name, *f.MaxLength)
		}
		if f.Pattern != "" {
			re, err := f.compiledPattern()
			if err != nil {
				return err
			}
			if !re.MatchString(v) {
				return fmt.Errorf("field %q does not match pattern %s", f.Name, f.Pattern)
			}
		}
	case int64:
		if f.Min != nil && float64(v) < *f.Min {
			return fmt.Errorf("field %q is below the minimum of %v", f.Name, *f.Min)
		}
		if f.Max != nil && float64(v) > *f.Max {
			return fmt.Errorf("field %q exceeds the maximum of %v", f.Name, *f.Max)
		}
	case float64:
		if f.Min != nil && v < *f.Min {
			return fmt.Errorf("field %q is below the minimum of %v", f.Name, *f.Min)
		}
		if f.Max != nil && v > *f.Max {
			return fmt.Errorf("field %q exceeds the maximum of %v", f.Name, *f.Max)
		}
	}

	return nil
}

func (f Field) validateKind(value any) error {
	ok := true
	switch f.Kind {
	case KindString, KindText, KindEmail, KindURL:
		_, ok = value.(string)
	case KindInt:
		switch value.(type) {
		case int, int32, int64:
		default:
			ok = false
		}
	case KindFloat, KindDecimal:
		switch value.(type) {
		case float32, float64, int, int64:
		default:
			ok = false
		}
	case KindBool:
		_, ok = value.(bool)
	case KindDateTime:
		_, ok = value.(time.Time)
	case KindObjectID, KindRef:
		_, ok = value.(primitive.ObjectID)
	case KindList:
		rv := reflect.ValueOf(value)
		ok = rv.Kind() == reflect.Slice
	case KindEmbedded:
		_, ok = value.(*Instance)
	case KindFile:
		_, ok = value.(*FileValue)
	}
	if !ok {
		return fmt.Errorf("field %q expects a %s value, got %T", f.Name, f.Kind, value)
	}
	return nil
}

// compiledPattern returns the regexp shared at Document construction time.
// Hand-built Field values outside a Document compile on the spot.
func (f Field) compiledPattern() (*regexp.Regexp, error) {
	if f.pattern != nil {
		return f.pattern, nil
	}
	re, err := regexp.Compile(f.Pattern)
	if err != nil {
		return nil, fmt.Errorf("field %q has an invalid pattern: %w", f.Name, err)
	}
	return re, nil
}

func containsChoice(choices []any, value any) bool {
	for _, choice := range choices {
		if reflect.DeepEqual(choice, value) {
			return true
		}
	}
	return false
}
