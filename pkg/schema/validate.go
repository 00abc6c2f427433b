package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"time"

	"github.com/theory-cloud/cfntheory/pkg/propbag"
	"github.com/theory-cloud/cfntheory/pkg/tags"
	"github.com/theory-cloud/cfntheory/pkg/template"
)

// fields abstracts the two accepted raw inputs: plain maps and ordered bags.
type fields interface {
	keys() []string
	get(string) (any, bool)
}

type mapFields map[string]any

func (m mapFields) keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (m mapFields) get(k string) (any, bool) {
	v, ok := m[k]
	return v, ok
}

type bagFields struct{ b *propbag.Bag }

func (f bagFields) keys() []string           { return f.b.Keys() }
func (f bagFields) get(k string) (any, bool) { return f.b.Get(k) }

type validator struct {
	resource string
}

// Validate checks raw against the resource schema and returns a bag keyed by
// template names in declaration order.
//
// Keys may use template names or accessor names. Nil values count as absent.
// Values are stored as given; nested objects become bags and tag fields are
// normalized to the type's tag style.
func (rt *ResourceType) Validate(raw map[string]any) (*propbag.Bag, error) {
	v := validator{resource: rt.Name}
	return v.object("", rt.Properties, mapFields(raw))
}

// ValidateBag is Validate for an ordered bag input.
func (rt *ResourceType) ValidateBag(raw *propbag.Bag) (*propbag.Bag, error) {
	v := validator{resource: rt.Name}
	return v.object("", rt.Properties, bagFields{raw})
}

// ValidateProperty checks a single property value, returning the value to store.
// A nil result means the property is absent.
func (rt *ResourceType) ValidateProperty(name string, value any) (*Property, any, error) {
	p, ok := rt.Property(name)
	if !ok {
		return nil, nil, &UnknownFieldError{Resource: rt.Name, Path: name}
	}
	if isAbsent(value) {
		if p.Required {
			return p, nil, &MissingRequiredFieldError{Resource: rt.Name, Path: p.Name}
		}
		return p, nil, nil
	}
	v := validator{resource: rt.Name}
	out, err := v.value(p.Name, p.Type, value)
	if err != nil {
		return p, nil, err
	}
	return p, out, nil
}

func (v validator) object(path string, props []*Property, in fields) (*propbag.Bag, error) {
	matched := make(map[*Property]any, len(props))
	for _, key := range in.keys() {
		raw, _ := in.get(key)
		p, ok := findProperty(props, key)
		if !ok {
			return nil, &UnknownFieldError{Resource: v.resource, Path: join(path, key)}
		}
		if _, dup := matched[p]; dup {
			return nil, &DuplicateFieldError{Resource: v.resource, Path: join(path, p.Name)}
		}
		matched[p] = raw
	}

	out := propbag.New()
	for _, p := range props {
		raw := matched[p]
		if isAbsent(raw) {
			if p.Required {
				return nil, &MissingRequiredFieldError{Resource: v.resource, Path: join(path, p.Name)}
			}
			continue
		}
		val, err := v.value(join(path, p.Name), p.Type, raw)
		if err != nil {
			return nil, err
		}
		out.Set(p.Name, val)
	}
	return out, nil
}

func (v validator) value(path string, t *Type, raw any) (any, error) {
	if deferred(raw) {
		return raw, nil
	}
	if rv := reflect.ValueOf(raw); rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, &TypeMismatchError{Resource: v.resource, Path: path, Expected: t.String(), Got: "null"}
		}
		if rv.Elem().Kind() != reflect.Struct {
			raw = rv.Elem().Interface()
		}
	}

	switch t.Kind {
	case KindString:
		if _, ok := raw.(string); !ok {
			return nil, v.mismatch(path, t, raw)
		}
		return raw, nil
	case KindTimestamp:
		switch raw.(type) {
		case string, time.Time, *time.Time:
			return raw, nil
		}
		return nil, v.mismatch(path, t, raw)
	case KindInteger, KindLong:
		if !isInteger(raw) {
			return nil, v.mismatch(path, t, raw)
		}
		return raw, nil
	case KindDouble:
		if !isNumber(raw) {
			return nil, v.mismatch(path, t, raw)
		}
		return raw, nil
	case KindBoolean:
		if _, ok := raw.(bool); !ok {
			return nil, v.mismatch(path, t, raw)
		}
		return raw, nil
	case KindJSON:
		return propbag.CloneValue(raw), nil
	case KindTags:
		out, err := tags.Normalize(t.TagStyle, raw)
		if err != nil {
			return nil, &TypeMismatchError{Resource: v.resource, Path: path, Expected: t.String(), Got: err.Error()}
		}
		return out, nil
	case KindObject:
		return v.nested(path, t, raw)
	case KindList:
		return v.list(path, t, raw)
	case KindMap:
		return v.mapping(path, t, raw)
	default:
		return nil, fmt.Errorf("schema: %s: field %s has no declared type", v.resource, path)
	}
}

func (v validator) nested(path string, t *Type, raw any) (any, error) {
	var props []*Property
	if t.Object != nil {
		props = t.Object.Properties
	}
	switch m := raw.(type) {
	case *propbag.Bag:
		return v.object(path, props, bagFields{m})
	case map[string]any:
		return v.object(path, props, mapFields(m))
	}

	rv := reflect.Indirect(reflect.ValueOf(raw))
	if rv.Kind() == reflect.Struct {
		b, err := structBag(rv)
		if err != nil {
			return nil, &TypeMismatchError{Resource: v.resource, Path: path, Expected: t.String(), Got: err.Error()}
		}
		return v.object(path, props, bagFields{b})
	}
	return nil, v.mismatch(path, t, raw)
}

func (v validator) list(path string, t *Type, raw any) (any, error) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, v.mismatch(path, t, raw)
	}

	// Primitive sequences are checked element-wise and stored as a copy.
	elem := elemOrJSON(t.Elem)
	keep := elem.Kind.Primitive()
	var out []any
	if !keep {
		out = make([]any, 0, rv.Len())
	}
	for i := range rv.Len() {
		item := rv.Index(i).Interface()
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if isAbsent(item) {
			return nil, &TypeMismatchError{Resource: v.resource, Path: itemPath, Expected: elem.String(), Got: "null"}
		}
		converted, err := v.value(itemPath, elem, item)
		if err != nil {
			return nil, err
		}
		if !keep {
			out = append(out, converted)
		}
	}
	if keep {
		return propbag.CloneValue(raw), nil
	}
	return out, nil
}

func (v validator) mapping(path string, t *Type, raw any) (any, error) {
	elem := elemOrJSON(t.Elem)
	keep := elem.Kind.Primitive()

	var in fields
	switch m := raw.(type) {
	case *propbag.Bag:
		in = bagFields{m}
	case map[string]any:
		in = mapFields(m)
	default:
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, v.mismatch(path, t, raw)
		}
		plain := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			plain[iter.Key().String()] = iter.Value().Interface()
		}
		in = mapFields(plain)
	}

	out := propbag.New()
	for _, k := range in.keys() {
		item, _ := in.get(k)
		converted, err := v.value(path+"."+k, elem, item)
		if err != nil {
			return nil, err
		}
		out.Set(k, converted)
	}
	if keep {
		return propbag.CloneValue(raw), nil
	}
	return out, nil
}

func (v validator) mismatch(path string, t *Type, raw any) error {
	return &TypeMismatchError{Resource: v.resource, Path: path, Expected: t.String(), Got: shapeOf(raw)}
}

// deferred reports values whose shape is only known once the template is
// deployed: tokens and intrinsic function maps.
func deferred(v any) bool {
	if r, ok := v.(propbag.Resolvable); ok && r.Resolvable() {
		return true
	}
	_, ok := template.IsIntrinsic(v)
	return ok
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func isInteger(v any) bool {
	if n, ok := v.(json.Number); ok {
		_, err := n.Int64()
		return err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == math.Trunc(f) && !math.IsInf(f, 0)
	default:
		return false
	}
}

func isNumber(v any) bool {
	if n, ok := v.(json.Number); ok {
		_, err := n.Float64()
		return err == nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func shapeOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case *propbag.Bag, map[string]any:
		return "mapping"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map, reflect.Struct:
		return "mapping"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
