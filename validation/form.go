package validation

import (
	"fmt"
	"strings"

	"github.com/entadmin/adminkit/errors"
)

// FieldError is one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Result is the outcome of validating a form.
type Result struct {
	IsValid bool         `json:"is_valid"`
	Errors  []FieldError `json:"errors"`
}

// FieldRules binds a field name to its rules.
type FieldRules struct {
	Field string
	Rules []Rule
}

// Field builds a FieldRules entry.
func Field(name string, rules ...Rule) FieldRules {
	return FieldRules{Field: name, Rules: rules}
}

// ValidateForm validates every field in declaration order and collects all
// failures. Fields missing from values are validated as nil.
func ValidateForm(values map[string]any, fields []FieldRules) Result {
	res := Result{Errors: []FieldError{}}
	for _, f := range fields {
		value := values[f.Field]
		if msg := ValidateField(value, f.Rules...); msg != "" {
			res.Errors = append(res.Errors, FieldError{Field: f.Field, Message: msg, Value: value})
		}
	}
	res.IsValid = len(res.Errors) == 0
	return res
}

// Message returns the first message reported for field, or "".
func (r Result) Message(field string) string {
	for _, e := range r.Errors {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// Err converts a failed result to a validation AppError carrying the field
// errors under details["fields"]. It returns nil for a valid result.
func (r Result) Err() error {
	if r.IsValid || len(r.Errors) == 0 {
		return nil
	}
	messages := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return errors.Validation(strings.Join(messages, "; ")).WithDetail("fields", r.Errors)
}
