package validation

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern  = regexp.MustCompile(`^1[3-9]\d{9}$`)
	urlPattern    = regexp.MustCompile(`^https?://.+`)
	numberPattern = regexp.MustCompile(`^\d+$`)
)

func or(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

// Required rejects nil and blank values.
func Required(msg string) Rule {
	return Rule{Required: true, Message: or(msg, MessageRequired)}
}

// Email accepts a loose local@domain.tld address.
func Email(msg string) Rule {
	return Rule{Pattern: emailPattern, Message: or(msg, "invalid email address")}
}

// Phone accepts an 11-digit mainland mobile number.
func Phone(msg string) Rule {
	return Rule{Pattern: phonePattern, Message: or(msg, "invalid phone number")}
}

// PasswordMin requires at least eight characters.
func PasswordMin(msg string) Rule {
	return Rule{Min: Bound(8), Message: or(msg, "password must be at least 8 characters")}
}

// URL requires an http or https scheme.
func URL(msg string) Rule {
	return Rule{Pattern: urlPattern, Message: or(msg, "invalid URL")}
}

// Number requires decimal digits only.
func Number(msg string) Rule {
	return Rule{Pattern: numberPattern, Message: or(msg, "invalid number")}
}

// Matches requires the value to match pattern.
func Matches(pattern *regexp.Regexp, msg string) Rule {
	return Rule{Pattern: pattern, Message: or(msg, MessageFormat)}
}

func MinLength(n int, msg string) Rule {
	return Rule{Min: Bound(float64(n)), Message: or(msg, fmt.Sprintf("must be at least %d characters", n))}
}

func MaxLength(n int, msg string) Rule {
	return Rule{Max: Bound(float64(n)), Message: or(msg, fmt.Sprintf("must be at most %d characters", n))}
}

func MinValue(n float64, msg string) Rule {
	return Rule{Min: Bound(n), Message: or(msg, "must not be less than "+formatNumber(n))}
}

func MaxValue(n float64, msg string) Rule {
	return Rule{Max: Bound(n), Message: or(msg, "must not be greater than "+formatNumber(n))}
}

// Check wraps a predicate. msg is used when fn fails without a message.
func Check(fn Predicate, msg string) Rule {
	return Rule{Predicate: fn, Message: msg}
}

// OneOf restricts a string to the allowed values.
func OneOf(allowed []string, msg string) Rule {
	return Check(func(v any) (bool, string) {
		s := stringValue(v)
		for _, a := range allowed {
			if s == a {
				return true, ""
			}
		}
		return false, ""
	}, or(msg, fmt.Sprintf("must be one of: %v", allowed)))
}

// UUID requires a parseable, non-nil UUID.
func UUID(msg string) Rule {
	return Check(func(v any) (bool, string) {
		s := stringValue(v)
		id, err := uuid.Parse(s)
		return err == nil && id != uuid.Nil, ""
	}, or(msg, "must be a valid UUID"))
}
