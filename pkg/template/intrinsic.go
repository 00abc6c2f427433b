package template

import (
	"strings"

	"github.com/theory-cloud/cfntheory/pkg/propbag"
)

// Ref returns {"Ref": name}.
func Ref(name string) *propbag.Bag {
	return fn("Ref", name)
}

// GetAtt returns {"Fn::GetAtt": [logicalID, attribute]}.
func GetAtt(logicalID, attribute string) *propbag.Bag {
	return fn("Fn::GetAtt", []any{logicalID, attribute})
}

// Join returns {"Fn::Join": [delimiter, parts]}.
func Join(delimiter string, parts []any) *propbag.Bag {
	return fn("Fn::Join", []any{delimiter, parts})
}

// Sub returns {"Fn::Sub": s}.
func Sub(s string) *propbag.Bag {
	return fn("Fn::Sub", s)
}

func fn(name string, arg any) *propbag.Bag {
	b := propbag.New()
	b.Set(name, arg)
	return b
}

// IsIntrinsic reports whether v is a single-key mapping naming an intrinsic
// function (Ref, Condition or Fn::*), returning the function name.
func IsIntrinsic(v any) (string, bool) {
	var key string
	switch t := v.(type) {
	case *propbag.Bag:
		if t.Len() != 1 {
			return "", false
		}
		key = t.Keys()[0]
	case map[string]any:
		if len(t) != 1 {
			return "", false
		}
		for k := range t {
			key = k
		}
	default:
		return "", false
	}
	if key == "Ref" || key == "Condition" || strings.HasPrefix(key, "Fn::") {
		return key, true
	}
	return "", false
}
