package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var sizeUnits = map[string]int64{
	"":      1,
	"B":     1,
	"BYTES": 1,
	"KB":    1 << 10,
	"MB":    1 << 20,
	"GB":    1 << 30,
	"TB":    1 << 40,
}

// ParseSize parses sizes such as "512KB", "1.5 MB" or "2048" into bytes.
// Units are binary and case-insensitive.
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	i := strings.IndexFunc(s, func(r rune) bool { return (r < '0' || r > '9') && r != '.' })
	num, unit := s, ""
	if i >= 0 {
		num, unit = s[:i], strings.TrimSpace(s[i:])
	}

	mult, ok := sizeUnits[unit]
	if !ok {
		return 0, fmt.Errorf("unknown size unit %q", unit)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return int64(math.Round(n * float64(mult))), nil
}

// MaskSecret keeps the first visible characters of s and hides the rest.
func MaskSecret(s string, visible int) string {
	if len(s) <= visible {
		return "***"
	}
	return s[:visible] + "***"
}
