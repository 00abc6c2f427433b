package naming

import (
	"crypto/md5" //nolint:gosec // logical id hash, not a security boundary
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
)

const (
	hiddenID          = "Default"
	hiddenFromHumanID = "Resource"
	hashLen           = 8
	maxHumanLen       = 240
	maxLogicalIDLen   = 255
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// LogicalID derives a template logical id from construct path components below
// the stack.
//
// A single component is used as-is once non-alphanumerics are removed. Longer
// paths become a readable prefix followed by an 8 character hash of the full
// path, so distinct paths never collide. "Default" components are ignored and
// "Resource" components are left out of the readable prefix.
func LogicalID(components []string) (string, error) {
	filtered := make([]string, 0, len(components))
	for _, c := range components {
		if c != hiddenID {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return "", errors.New("naming: unable to derive a logical id from an empty path")
	}

	if len(filtered) == 1 {
		candidate := nonAlphanumeric.ReplaceAllString(filtered[0], "")
		if candidate != "" && len(candidate) <= maxLogicalIDLen {
			return candidate, nil
		}
	}

	var human strings.Builder
	for _, c := range removeDupes(filtered) {
		if c == hiddenFromHumanID {
			continue
		}
		human.WriteString(nonAlphanumeric.ReplaceAllString(c, ""))
	}
	prefix := human.String()
	if len(prefix) > maxHumanLen {
		prefix = prefix[:maxHumanLen]
	}
	return prefix + pathHash(filtered), nil
}

func pathHash(components []string) string {
	sum := md5.Sum([]byte(strings.Join(components, "/"))) //nolint:gosec
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:hashLen]
}

// removeDupes drops a component when the previous one already ends with it,
// so "Bucket/Bucket" reads as "Bucket".
func removeDupes(path []string) []string {
	out := make([]string, 0, len(path))
	for _, c := range path {
		if len(out) == 0 || !strings.HasSuffix(out[len(out)-1], c) {
			out = append(out, c)
		}
	}
	return out
}
