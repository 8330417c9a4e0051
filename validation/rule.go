package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MessageRequired = "this field is required"
	MessageFailed   = "validation failed"
	MessageFormat   = "invalid format"
)

// Predicate is a pure check over a non-empty value. It returns ok=false to
// fail; a non-empty msg replaces the rule's message.
type Predicate func(value any) (ok bool, msg string)

// Rule is one declarative check. Each facet is optional and facets are
// evaluated in a fixed order: Required, Min, Max, Pattern, Predicate.
//
// Min and Max bound the trimmed length of strings and the magnitude of
// numbers.
type Rule struct {
	Required  bool
	Min       *float64
	Max       *float64
	Pattern   *regexp.Regexp
	Predicate Predicate
	// Message overrides the default message of whichever facet fails.
	Message string
}

// Bound returns a pointer for Rule.Min and Rule.Max.
func Bound(n float64) *float64 { return &n }

// ValidateField applies rules in order and returns the first failure message,
// or "" when every rule passes.
func ValidateField(value any, rules ...Rule) string {
	v := inspect(value)
	for _, r := range rules {
		if msg, failed := r.check(v); failed {
			return msg
		}
	}
	return ""
}

func (r Rule) check(v inspected) (string, bool) {
	if v.empty {
		if r.Required {
			return r.message(MessageRequired), true
		}
		return "", false
	}

	if r.Min != nil {
		switch {
		case v.isString && float64(utf8.RuneCountInString(strings.TrimSpace(v.str))) < *r.Min:
			return r.message(fmt.Sprintf("must be at least %s characters", formatNumber(*r.Min))), true
		case v.isNumber && v.num < *r.Min:
			return r.message(fmt.Sprintf("must not be less than %s", formatNumber(*r.Min))), true
		}
	}

	if r.Max != nil {
		switch {
		case v.isString && float64(utf8.RuneCountInString(v.str)) > *r.Max:
			return r.message(fmt.Sprintf("must be at most %s characters", formatNumber(*r.Max))), true
		case v.isNumber && v.num > *r.Max:
			return r.message(fmt.Sprintf("must not be greater than %s", formatNumber(*r.Max))), true
		}
	}

	if r.Pattern != nil && !r.Pattern.MatchString(v.text()) {
		return r.message(MessageFormat), true
	}

	if r.Predicate != nil {
		ok, msg := r.Predicate(v.raw)
		if !ok {
			if msg != "" {
				return msg, true
			}
			return r.message(MessageFailed), true
		}
	}
	return "", false
}

func (r Rule) message(fallback string) string {
	if r.Message != "" {
		return r.Message
	}
	return fallback
}

// inspected is a value classified once per ValidateField call.
type inspected struct {
	raw      any
	empty    bool
	isString bool
	str      string
	isNumber bool
	num      float64
}

func (v inspected) text() string {
	switch {
	case v.isString:
		return v.str
	case v.isNumber:
		return formatNumber(v.num)
	default:
		return fmt.Sprint(v.raw)
	}
}

func inspect(value any) inspected {
	v := inspected{raw: value}
	switch x := value.(type) {
	case nil:
		v.empty = true
	case string:
		v.isString, v.str = true, x
	case *string:
		if x == nil {
			v.empty = true
		} else {
			v.isString, v.str, v.raw = true, *x, *x
		}
	case int:
		v.isNumber, v.num = true, float64(x)
	case int8:
		v.isNumber, v.num = true, float64(x)
	case int16:
		v.isNumber, v.num = true, float64(x)
	case int32:
		v.isNumber, v.num = true, float64(x)
	case int64:
		v.isNumber, v.num = true, float64(x)
	case uint:
		v.isNumber, v.num = true, float64(x)
	case uint8:
		v.isNumber, v.num = true, float64(x)
	case uint16:
		v.isNumber, v.num = true, float64(x)
	case uint32:
		v.isNumber, v.num = true, float64(x)
	case uint64:
		v.isNumber, v.num = true, float64(x)
	case float32:
		v.isNumber, v.num = true, float64(x)
	case float64:
		v.isNumber, v.num = true, x
	default:
		v = inspectKind(v, reflect.ValueOf(value))
	}
	if v.isString && strings.TrimSpace(v.str) == "" {
		v.empty = true
	}
	return v
}

// inspectKind classifies named types such as enum strings by their
// underlying kind. Non-nil pointers are followed.
func inspectKind(v inspected, rv reflect.Value) inspected {
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			v.empty = true
			return v
		}
		v.raw = rv.Elem().Interface()
		return inspectKind(v, rv.Elem())
	case reflect.String:
		v.isString, v.str = true, rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.isNumber, v.num = true, float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v.isNumber, v.num = true, float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		v.isNumber, v.num = true, rv.Float()
	}
	return v
}

// stringValue returns the text of a string or named string type.
func stringValue(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.String {
		return rv.String()
	}
	return ""
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
