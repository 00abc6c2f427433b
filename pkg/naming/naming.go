package naming

import (
	"regexp"
	"strings"
)

var (
	nonAlnum     = regexp.MustCompile(`[^a-z0-9-]+`)
	multiDash    = regexp.MustCompile(`-+`)
	stackPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{0,127}$`)
)

func sanitizePart(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	value = strings.NewReplacer("_", "-", " ", "-").Replace(value)
	value = nonAlnum.ReplaceAllString(value, "-")
	value = multiDash.ReplaceAllString(value, "-")
	return strings.Trim(value, "-")
}

// NormalizeStage maps stage aliases to canonical values.
func NormalizeStage(stage string) string {
	stage = strings.ToLower(strings.TrimSpace(stage))
	switch stage {
	case "prod", "production", "live":
		return "live"
	case "dev", "development":
		return "dev"
	case "stg", "stage", "staging":
		return "stage"
	case "test", "testing":
		return "test"
	default:
		return sanitizePart(stage)
	}
}

// StackName joins the non-empty parts as <app>-<stack>-<stage>. Parts are
// lowercased and reduced to letters, digits and dashes.
func StackName(appName, stack, stage string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{sanitizePart(appName), sanitizePart(stack), NormalizeStage(stage)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "-")
}

// ValidStackName reports whether name is accepted by CloudFormation.
func ValidStackName(name string) bool {
	return stackPattern.MatchString(name)
}
