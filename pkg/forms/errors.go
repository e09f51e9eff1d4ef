package forms

import "strings"

// NonFieldKey is the Errors key that collects whole-form messages.
const NonFieldKey = "__all__"

// Errors accumulates validation messages keyed by field name. Whole-form
// messages live under NonFieldKey. Validation failures are values, never Go
// errors: callers redisplay them alongside the form.
type Errors map[string][]string

// Add appends a message for a field, trimming whitespace and dropping
// duplicates.
func (e Errors) Add(field, message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	for _, existing := range e[field] {
		if existing == trimmed {
			return
		}
	}
	e[field] = append(e[field], trimmed)
}

// AddNonField appends a whole-form message.
func (e Errors) AddNonField(message string) {
	e.Add(NonFieldKey, message)
}

// Merge folds another error collection into this one.
func (e Errors) Merge(other Errors) {
	for field, messages := range other {
		for _, message := range messages {
			e.Add(field, message)
		}
	}
}

// Field returns the messages recorded for one field.
func (e Errors) Field(name string) []string {
	return e[name]
}

// NonField returns the whole-form messages.
func (e Errors) NonField() []string {
	return e[NonFieldKey]
}

// Empty reports whether no messages were recorded.
func (e Errors) Empty() bool {
	return len(e) == 0
}
