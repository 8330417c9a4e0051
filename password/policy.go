package password

// CheckPolicy returns every policy violation of pw, or nil when it meets the
// account password policy.
func CheckPolicy(pw string) []string {
	var violations []string
	for _, c := range criteria {
		if !c.met(pw) {
			violations = append(violations, c.feedback)
		}
	}
	return violations
}

// MeetsPolicy reports whether pw satisfies all five criteria.
func MeetsPolicy(pw string) bool {
	return len(CheckPolicy(pw)) == 0
}
