package media

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var disallowedNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// BuildStorageName derives a collision-resistant blob name from the upload
// time and a sanitized original filename. Whitespace collapses to underscores
// and anything outside [A-Za-z0-9_.-] is stripped.
func BuildStorageName(now time.Time, originalName string) string {
	sanitized := strings.Join(strings.Fields(originalName), "_")
	sanitized = disallowedNameChars.ReplaceAllString(sanitized, "")
	if sanitized == "" || sanitized == strings.Repeat(".", len(sanitized)) {
		sanitized = "file"
	}
	return fmt.Sprintf("%d_%s", now.UnixNano(), sanitized)
}
