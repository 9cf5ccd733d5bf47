package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// MaxNodeIDLength bounds identifiers accepted from documents and requests.
const MaxNodeIDLength = 128

// ValidateNodeID rejects identifiers that are empty, overlong or contain
// control characters or the union key separator.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}
	if len(id) > MaxNodeIDLength {
		return New(ErrCodeInvalidInput, "id too long (max %d characters)", MaxNodeIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "id %q contains control characters", id)
		}
	}
	if strings.Contains(id, "|") {
		return New(ErrCodeInvalidInput, "id %q cannot contain '|'", id)
	}
	return nil
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9\-_]`)
	repeatedUnderscores = regexp.MustCompile(`_+`)
)

// SanitizeFilename turns a user-supplied export name into a safe basename
// ending in ext. Characters outside [a-z0-9-_] become underscores, runs of
// underscores collapse, and the result is lowercased. An empty result falls
// back to "family-tree".
func SanitizeFilename(name, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	base := strings.TrimSpace(filepath.Base(name))
	if ext != "" && strings.EqualFold(filepath.Ext(base), ext) {
		base = base[:len(base)-len(ext)]
	}
	base = strings.ToLower(base)
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	base = repeatedUnderscores.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")
	if base == "" || base == "." {
		base = "family-tree"
	}
	return base + ext
}

// ValidateRedisURL checks the scheme of a redis connection string.
func ValidateRedisURL(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidInput, "redis URL cannot be empty")
	}
	if !strings.HasPrefix(raw, "redis://") && !strings.HasPrefix(raw, "rediss://") && !strings.HasPrefix(raw, "unix://") {
		return New(ErrCodeInvalidInput, "redis URL must use redis, rediss or unix scheme")
	}
	return nil
}
