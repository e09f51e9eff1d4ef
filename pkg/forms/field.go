package forms

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coercion names the Go type a form field produces from raw input.
type Coercion string

const (
	CoerceString   Coercion = "string"
	CoerceInt      Coercion = "int"
	CoerceFloat    Coercion = "float"
	CoerceBool     Coercion = "bool"
	CoerceDateTime Coercion = "datetime"
	CoerceObjectID Coercion = "objectid"
	CoerceFile     Coercion = "file"
)

// Accepted layouts for datetime input, tried in order.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Choice is one selectable option of a choice field.
type Choice struct {
	Value any
	Label string
}

// Field is a single form input: its presentation attributes plus the
// coercion and validation rules applied to submitted values.
type Field struct {
	Name     string
	Label    string
	HelpText string
	Widget   string
	Required bool
	Initial  any
	Choices  []Choice
	Coerce   Coercion

	MinLength *int
	MaxLength *int
	Min       *float64
	Max       *float64
	Pattern   *regexp.Regexp
}

// Clean coerces and validates one raw submitted value. Empty input on an
// optional field yields the zero value for string coercions and nil
// otherwise; empty input on a required field is an error.
func (f *Field) Clean(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		// Unchecked checkboxes submit nothing at all.
		if f.Coerce == CoerceBool {
			return false, nil
		}
		if f.Required {
			return nil, fmt.Errorf("this field is required")
		}
		if f.Coerce == CoerceString {
			return "", nil
		}
		return nil, nil
	}

	value, err := f.coerce(trimmed)
	if err != nil {
		return nil, err
	}
	if err := f.validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// CleanUpload validates a submitted file against the field's requiredness.
// A nil upload on an optional field means "keep the stored value".
func (f *Field) CleanUpload(upload *Upload) (any, error) {
	if upload == nil || len(upload.Content) == 0 {
		if f.Required {
			return nil, fmt.Errorf("this field is required")
		}
		return nil, nil
	}
	if upload.Name == "" {
		return nil, fmt.Errorf("uploaded file has no name")
	}
	return upload, nil
}

func (f *Field) coerce(raw string) (any, error) {
	switch f.Coerce {
	case CoerceString, "":
		return raw, nil
	case CoerceInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("enter a whole number")
		}
		return v, nil
	case CoerceFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("enter a number")
		}
		return v, nil
	case CoerceBool:
		switch strings.ToLower(raw) {
		case "1", "true", "on", "yes":
			return true, nil
		case "0", "false", "off", "no":
			return false, nil
		}
		return nil, fmt.Errorf("enter a valid boolean value")
	case CoerceDateTime:
		for _, layout := range datetimeLayouts {
			if v, err := time.Parse(layout, raw); err == nil {
				return v, nil
			}
		}
		return nil, fmt.Errorf("enter a valid date/time")
	case CoerceObjectID:
		v, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, fmt.Errorf("enter a valid object id")
		}
		return v, nil
	case CoerceFile:
		return nil, fmt.Errorf("file fields accept uploads, not text input")
	default:
		return nil, fmt.Errorf("unsupported coercion %q", f.Coerce)
	}
}

func (f *Field) validate(value any) error {
	if len(f.Choices) > 0 {
		found := false
		for _, choice := range f.Choices {
			if choiceEqual(choice.Value, value) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("select a valid choice; %v is not available", value)
		}
	}

	switch v := value.(type) {
	case string:
		if f.MinLength != nil && len(v) < *f.MinLength {
			return fmt.Errorf("ensure this value has at least %d characters", *f.MinLength)
		}
		if f.MaxLength != nil && len(v) > *f.MaxLength {
			return fmt.Errorf("ensure this value has at most %d characters", *f.MaxLength)
		}
		if f.Pattern != nil && !f.Pattern.MatchString(v) {
			return fmt.Errorf("enter a valid value")
		}
	case int64:
		if f.Min != nil && float64(v) < *f.Min {
			return fmt.Errorf("ensure this value is greater than or equal to %v", *f.Min)
		}
		if f.Max != nil && float64(v) > *f.Max {
			return fmt.Errorf("ensure this value is less than or equal to %v", *f.Max)
		}
	case float64:
		if f.Min != nil && v < *f.Min {
			return fmt.Errorf("ensure this value is greater than or equal to %v", *f.Min)
		}
		if f.Max != nil && v > *f.Max {
			return fmt.Errorf("ensure this value is less than or equal to %v", *f.Max)
		}
	}
	return nil
}

// choiceEqual compares a submitted value against a choice value, tolerating
// the int/int64 mismatch produced by literal choice declarations.
func choiceEqual(choice, value any) bool {
	if choice == value {
		return true
	}
	if ci, ok := choice.(int); ok {
		if vi, ok := value.(int64); ok {
			return int64(ci) == vi
		}
	}
	if cs, ok := choice.(string); ok {
		if vs, ok := value.(string); ok {
			return cs == vs
		}
	}
	return false
}

// FormatChoice renders a choice value as its submitted string form.
func FormatChoice(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// FormatValue renders a value back into the textual form an input element
// displays.
func (f *Field) FormatValue(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case time.Time:
		return v.Format(time.RFC3339)
	case primitive.ObjectID:
		return v.Hex()
	default:
		return fmt.Sprintf("%v", v)
	}
}
