// Package pathutil sanitizes client-supplied filenames before they become
// part of an object key.
package pathutil

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxFilenameLength bounds the sanitized filename in bytes
const MaxFilenameLength = 200

var (
	ErrEmptyFilename   = errors.New("filename cannot be empty")
	ErrInvalidFilename = errors.New("filename is not allowed")
	ErrFilenameTooLong = errors.New("filename is too long")
)

// SanitizeFilename returns a filename safe to embed in an object key.
// Path separators, NUL and control characters are rejected outright since
// they indicate a traversal attempt or a broken client. Any other character
// outside [A-Za-z0-9._-] is replaced with an underscore.
func SanitizeFilename(name string) (string, error) {
	if err := ValidateFilename(name); err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	clean := b.String()
	if strings.Trim(clean, ".") == "" {
		return "", ErrInvalidFilename
	}
	if len(clean) > MaxFilenameLength {
		return "", ErrFilenameTooLong
	}
	return clean, nil
}

// ValidateFilename checks a raw filename for attack patterns
func ValidateFilename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyFilename
	}
	if !utf8.ValidString(name) {
		return ErrInvalidFilename
	}

	// Separators would let the key escape the images/ prefix
	if strings.ContainsAny(name, "/\\") {
		return ErrInvalidFilename
	}

	// Null bytes can be used to bypass extension checks
	for _, r := range name {
		if r < 32 || r == 127 {
			return ErrInvalidFilename
		}
	}

	switch strings.TrimSpace(name) {
	case ".", "..":
		return ErrInvalidFilename
	}
	return nil
}
