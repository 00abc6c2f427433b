package sanitization

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// SanitizeJSON returns an indented, redacted copy of a JSON document such as
// a resource model read from Cloud Control. A sensitive key hides its whole
// value, nested or not.
func SanitizeJSON(jsonBytes []byte) string {
	if len(jsonBytes) == 0 {
		return emptyMaskedValue
	}
	dec := json.NewDecoder(bytes.NewReader(jsonBytes))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Sprintf("(malformed JSON: %s)", err)
	}
	out, err := json.MarshalIndent(redactDocument("", doc), "", "  ")
	if err != nil {
		return "(error marshaling sanitized JSON)"
	}
	return string(out)
}

func redactDocument(key string, v any) any {
	if key != "" && ruleFor(key) != keep {
		if _, scalar := v.(string); scalar {
			return SanitizeFieldValue(key, v)
		}
		return redactedValue
	}
	switch node := v.(type) {
	case map[string]any:
		for k, item := range node {
			node[k] = redactDocument(k, item)
		}
		return node
	case []any:
		for i, item := range node {
			node[i] = redactDocument("", item)
		}
		return node
	case json.Number:
		return node
	default:
		return sanitizeValue(node)
	}
}
