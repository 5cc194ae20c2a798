package metadata

import (
	"fmt"
	"strings"
	"time"
)

// ImageKeyPrefix is the object store prefix every uploaded image lives under.
const ImageKeyPrefix = "images/"

// ObjectKey builds the object store key for an upload. The timestamp prefix
// keeps concurrent uploads of identically named files apart.
func ObjectKey(filename string, now time.Time) string {
	return fmt.Sprintf("%s%d-%s", ImageKeyPrefix, now.UnixMilli(), filename)
}

// IsImageKey reports whether key was issued by ObjectKey.
func IsImageKey(key string) bool {
	return strings.HasPrefix(key, ImageKeyPrefix) && len(key) > len(ImageKeyPrefix)
}
