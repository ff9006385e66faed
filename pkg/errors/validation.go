package errors

import (
	"strings"
	"unicode"
)

// ValidateDocumentID validates an identifier used to address stored graph
// documents and viewer sessions. Ids end up in file names and database keys,
// so the rules are conservative:
//   - No empty ids
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateDocumentID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidPath, "document id cannot be empty")
	}

	const maxIDLength = 128
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidPath, "document id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "document id contains invalid control characters")
		}
	}

	if strings.ContainsAny(id, `/\`) {
		return New(ErrCodeInvalidPath, "document id cannot contain path separators")
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidPath, "document id cannot contain path traversal sequences (..)")
	}

	return nil
}

// ValidateFormat checks that format is one of the allowed values.
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "invalid format: %s (must be one of %s)", format, strings.Join(allowed, ", "))
}
