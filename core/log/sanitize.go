// Package log sanitizes user-supplied names and object keys before they reach the logs.
package log

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
)

// SanitizationMode controls how user data is rendered in logs
type SanitizationMode int

const (
	// ProductionMode hashes user data
	ProductionMode SanitizationMode = iota
	// DevelopmentMode truncates user data
	DevelopmentMode
	// DebugMode logs user data verbatim
	DebugMode
)

var currentMode = ProductionMode

func init() {
	SetMode(ParseMode(os.Getenv("IMAGEDECK_LOG_MODE")))
}

// ParseMode maps a mode name to a SanitizationMode; unknown names are production
func ParseMode(name string) SanitizationMode {
	switch strings.ToLower(name) {
	case "development":
		return DevelopmentMode
	case "debug":
		return DebugMode
	default:
		return ProductionMode
	}
}

// SetMode changes the process-wide sanitization mode
func SetMode(mode SanitizationMode) {
	currentMode = mode
}

// SanitizeName renders a folder or image name for logging
func SanitizeName(name string) string {
	return sanitize(name, "name_hash", 8, 20)
}

// SanitizeKey renders an object key for logging. The images/ prefix and the
// timestamp carry no user data, so only the filename part is obscured.
func SanitizeKey(key string) string {
	if key == "" {
		return ""
	}
	dir, file := "", key
	if i := strings.LastIndex(key, "/"); i >= 0 {
		dir, file = key[:i+1], key[i+1:]
	}
	stamp := ""
	if i := strings.Index(file, "-"); i > 0 {
		stamp, file = file[:i+1], file[i+1:]
	}
	return dir + stamp + sanitize(file, "file_hash", 6, 16)
}

func sanitize(value, label string, hashBytes, maxLen int) string {
	if value == "" {
		return ""
	}

	switch currentMode {
	case DevelopmentMode:
		if len(value) <= maxLen {
			return value
		}
		return value[:maxLen/2] + "..." + value[len(value)-maxLen/4:]
	case DebugMode:
		return value
	default:
		hash := sha256.Sum256([]byte(value))
		return fmt.Sprintf("%s:%x", label, hash[:hashBytes])
	}
}
