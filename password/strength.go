// Package password scores password strength for UI meters and enforces the
// account password policy.
//
// Strength is advisory: four of five criteria make a password acceptable to
// the meter. CheckPolicy is the gate used by account forms and requires all
// five.
package password

import (
	"strings"
	"unicode/utf8"
)

// MinLength is the minimum number of characters.
const MinLength = 8

// Specials is the set of characters counted as special.
const Specials = `!@#$%^&*(),.?":{}|<>`

// StrengthThreshold is the score at which Strength reports IsValid.
const StrengthThreshold = 4

// Feedback messages, one per unmet criterion.
const (
	FeedbackLength    = "password must be at least 8 characters"
	FeedbackDigit     = "password must contain a number"
	FeedbackLowercase = "password must contain a lowercase letter"
	FeedbackUppercase = "password must contain an uppercase letter"
	FeedbackSpecial   = "password must contain a special character"
)

// StrengthResult is the advisory score of a password.
type StrengthResult struct {
	IsValid  bool     `json:"is_valid"`
	Score    int      `json:"score"`
	Feedback []string `json:"feedback"`
}

type criterion struct {
	met      func(string) bool
	feedback string
}

var criteria = []criterion{
	{func(pw string) bool { return utf8.RuneCountInString(pw) >= MinLength }, FeedbackLength},
	{func(pw string) bool { return containsRange(pw, '0', '9') }, FeedbackDigit},
	{func(pw string) bool { return containsRange(pw, 'a', 'z') }, FeedbackLowercase},
	{func(pw string) bool { return containsRange(pw, 'A', 'Z') }, FeedbackUppercase},
	{func(pw string) bool { return strings.ContainsAny(pw, Specials) }, FeedbackSpecial},
}

// Strength awards one point per met criterion. Feedback lists the unmet ones
// in a fixed order.
func Strength(pw string) StrengthResult {
	res := StrengthResult{Feedback: []string{}}
	for _, c := range criteria {
		if c.met(pw) {
			res.Score++
		} else {
			res.Feedback = append(res.Feedback, c.feedback)
		}
	}
	res.IsValid = res.Score >= StrengthThreshold
	return res
}

// Label names a score for display.
func Label(score int) string {
	switch {
	case score <= 1:
		return "very weak"
	case score == 2:
		return "weak"
	case score == 3:
		return "fair"
	case score == 4:
		return "strong"
	default:
		return "very strong"
	}
}

func containsRange(s string, lo, hi rune) bool {
	for _, r := range s {
		if r >= lo && r <= hi {
			return true
		}
	}
	return false
}
