package testkit

import (
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/theory-cloud/cfntheory"
	"github.com/theory-cloud/cfntheory/pkg/template"
)

// Template wraps a synthesized template for assertions. Queries use gjson
// path syntax against the JSON rendering.
type Template struct {
	t    testing.TB
	body string
}

func FromTemplate(t testing.TB, tmpl *template.Template) *Template {
	t.Helper()
	body, err := tmpl.JSON()
	require.NoError(t, err)
	return &Template{t: t, body: string(body)}
}

// FromStack synthesizes stack and wraps the result.
func FromStack(t testing.TB, stack *cfntheory.Stack) *Template {
	t.Helper()
	tmpl, err := stack.Template()
	require.NoError(t, err)
	return FromTemplate(t, tmpl)
}

// FromJSON wraps an encoded JSON template.
func FromJSON(t testing.TB, body []byte) *Template {
	t.Helper()
	require.True(t, gjson.ValidBytes(body), "template is not valid JSON")
	return &Template{t: t, body: string(body)}
}

func (a *Template) JSON() string { return a.body }

// Get runs a gjson query. Use Key to build path segments that contain dots.
func (a *Template) Get(path string) gjson.Result {
	return gjson.Get(a.body, path)
}

// Resource returns the Resources entry for logicalID.
func (a *Template) Resource(logicalID string) gjson.Result {
	a.t.Helper()
	r := a.Get("Resources." + Key(logicalID))
	require.True(a.t, r.Exists(), "resource %s not found in template", logicalID)
	return r
}

// ResourcesOfType returns the logical ids of resources of typ in document order.
func (a *Template) ResourcesOfType(typ string) []string {
	var out []string
	a.Get("Resources").ForEach(func(key, value gjson.Result) bool {
		if value.Get("Type").String() == typ {
			out = append(out, key.String())
		}
		return true
	})
	return out
}

func (a *Template) ResourceCountIs(typ string, n int) {
	a.t.Helper()
	require.Len(a.t, a.ResourcesOfType(typ), n, "resources of type %s", typ)
}

// PropertyKeys returns the property names of a resource in document order.
func (a *Template) PropertyKeys(logicalID string) []string {
	a.t.Helper()
	var keys []string
	a.Resource(logicalID).Get("Properties").ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// HasResourceProperties asserts that some resource of typ has properties
// containing props. Mappings match as subsets; lists must match exactly.
func (a *Template) HasResourceProperties(typ string, props map[string]any) {
	a.t.Helper()
	expected := asResult(a.t, props)
	for _, id := range a.ResourcesOfType(typ) {
		if matches(expected, a.Resource(id).Get("Properties")) {
			return
		}
	}
	require.Failf(a.t, "no matching resource", "no %s resource has properties %s\ntemplate: %s", typ, expected.Raw, a.body)
}

// HasOutput asserts the output's Value equals value.
func (a *Template) HasOutput(name string, value any) {
	a.t.Helper()
	out := a.Get("Outputs." + Key(name))
	require.True(a.t, out.Exists(), "output %s not found", name)
	require.True(a.t, matches(asResult(a.t, value), out.Get("Value")), "output %s value %s", name, out.Get("Value").Raw)
}

// Key escapes a literal key for use in a gjson path.
func Key(k string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(k)
}

func asResult(t testing.TB, v any) gjson.Result {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return gjson.ParseBytes(raw)
}

func matches(expected, actual gjson.Result) bool {
	switch {
	case expected.IsObject():
		if !actual.IsObject() {
			return false
		}
		got := actual.Map()
		ok := true
		expected.ForEach(func(key, value gjson.Result) bool {
			a, exists := got[key.String()]
			ok = exists && matches(value, a)
			return ok
		})
		return ok
	case expected.IsArray():
		if !actual.IsArray() {
			return false
		}
		want, have := expected.Array(), actual.Array()
		if len(want) != len(have) {
			return false
		}
		for i := range want {
			if !matches(want[i], have[i]) {
				return false
			}
		}
		return true
	default:
		return actual.Exists() && reflect.DeepEqual(expected.Value(), actual.Value())
	}
}
