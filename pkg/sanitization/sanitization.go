// Package sanitization redacts resource property values before they reach a
// log line. Keys are CloudFormation property names ("MasterUserPassword") or
// accessor names ("master_user_password"); both resolve to the same rule.
package sanitization

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/theory-cloud/cfntheory/pkg/propbag"
)

const (
	redactedValue    = "[REDACTED]"
	emptyMaskedValue = "(empty)"
	maskedValue      = "***masked***"
)

type rule uint8

const (
	keep rule = iota
	redact
	// maskTail keeps the last four characters of identifiers.
	maskTail
)

// exact rules are keyed by snake_case name.
var exact = map[string]rule{
	"password":             redact,
	"master_user_password": redact,
	"secret_string":        redact,
	"secret_access_key":    redact,
	"private_key":          redact,
	"auth_token":           redact,
	"client_secret":        redact,
	"authorization":        redact,

	"access_key_id":                maskTail,
	"account_id":                   maskTail,
	"aws_account_id":               maskTail,
	"dedicated_service_account_id": maskTail,

	// References to secrets rather than secret material.
	"secret_arn":           keep,
	"kms_key_id":           keep,
	"token_key":            keep,
	"secret_rotation_days": keep,
}

var blockedFragments = []string{"secret", "token", "password", "private_key", "api_key", "authorization", "credential"}

var crlf = strings.NewReplacer("\r", "", "\n", "")

// SanitizeLogString removes CR and LF so a value cannot start a forged entry.
func SanitizeLogString(value string) string {
	return crlf.Replace(value)
}

// SanitizeFieldValue returns value as it may be logged under key.
func SanitizeFieldValue(key string, value any) any {
	switch ruleFor(key) {
	case redact:
		return redactedValue
	case maskTail:
		return maskIdentifier(value)
	default:
		return sanitizeValue(value)
	}
}

func ruleFor(key string) rule {
	name := strings.TrimSpace(key)
	if name == "" {
		return keep
	}
	name = strings.ToLower(strcase.ToSnake(name))
	if r, ok := exact[name]; ok {
		return r
	}
	for _, fragment := range blockedFragments {
		if strings.Contains(name, fragment) {
			return redact
		}
	}
	return keep
}

// MaskFirstLast shows prefixLen leading and suffixLen trailing characters.
func MaskFirstLast(value string, prefixLen, suffixLen int) string {
	switch {
	case value == "":
		return emptyMaskedValue
	case prefixLen < 0, suffixLen < 0, len(value) <= prefixLen+suffixLen:
		return maskedValue
	}
	return value[:prefixLen] + "***" + value[len(value)-suffixLen:]
}

// sanitizeValue walks nested bags, maps and lists so property names at every
// depth get their own rule.
func sanitizeValue(value any) any {
	switch v := value.(type) {
	case nil, bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return v
	case string:
		return SanitizeLogString(v)
	case []byte:
		return SanitizeLogString(string(v))
	case *propbag.Bag:
		out := make(map[string]any, v.Len())
		for k, item := range v.All() {
			out[k] = SanitizeFieldValue(k, item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = SanitizeFieldValue(k, item)
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, sanitizeValue(item))
		}
		return out
	}
	return SanitizeLogString(fmt.Sprint(value))
}

func maskIdentifier(value any) string {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return redactedValue
	}
	s = strings.TrimSpace(s)
	if len(s) <= 4 {
		return redactedValue
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
