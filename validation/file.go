package validation

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateFileType reports whether mime is one of allowed. A trailing
// wildcard such as "image/*" matches the whole family.
func ValidateFileType(mime string, allowed []string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	return slices.ContainsFunc(allowed, func(a string) bool {
		a = strings.ToLower(a)
		if prefix, ok := strings.CutSuffix(a, "/*"); ok {
			return strings.HasPrefix(mime, prefix+"/")
		}
		return a == mime
	})
}

// ValidateFileSize reports whether size is within maxSize bytes.
func ValidateFileSize(size, maxSize int64) bool {
	return size <= maxSize
}

// CheckFile returns a message for the first failed file check, or "".
// A zero maxSize or empty allowed list skips that check.
func CheckFile(mime string, size int64, allowed []string, maxSize int64) string {
	if len(allowed) > 0 && !ValidateFileType(mime, allowed) {
		return fmt.Sprintf("unsupported file type %q", mime)
	}
	if maxSize > 0 && !ValidateFileSize(size, maxSize) {
		return fmt.Sprintf("file exceeds the %d byte limit", maxSize)
	}
	return ""
}
