package schema

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/theory-cloud/cfntheory/pkg/propbag"
	"github.com/theory-cloud/cfntheory/pkg/tags"
)

// structField describes one `cfn`-tagged field of a props struct:
//
//	type ContainerProps struct {
//		ContainerName        *string `cfn:"ContainerName,required"`
//		AccessLoggingEnabled *bool   `cfn:"AccessLoggingEnabled"`
//		Policy               any     `cfn:"Policy,json"`
//	}
type structField struct {
	index    []int
	name     string
	required bool
	json     bool
}

var (
	fieldCache sync.Map // reflect.Type -> []structField

	timeType     = reflect.TypeFor[time.Time]()
	tagsListType = reflect.TypeFor[tags.List]()
	tagsMapType  = reflect.TypeFor[tags.Map]()
	resolvable   = reflect.TypeFor[propbag.Resolvable]()
)

func structFields(t reflect.Type) []structField {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]structField)
	}
	var out []structField
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		tag := f.Tag.Get("cfn")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		options := strings.Split(opts, ",")
		out = append(out, structField{
			index:    f.Index,
			name:     name,
			required: slices.Contains(options, "required"),
			json:     slices.Contains(options, "json"),
		})
	}
	fieldCache.Store(t, out)
	return out
}

// Project validates a props struct against rt. Nil pointers, slices and maps
// are treated as absent.
func Project(rt *ResourceType, props any) (*propbag.Bag, error) {
	rv := reflect.ValueOf(props)
	if !rv.IsValid() || (rv.Kind() == reflect.Ptr && rv.IsNil()) {
		return rt.ValidateBag(propbag.New())
	}
	rv = reflect.Indirect(rv)
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %s: props must be a struct, got %s", rt.Name, rv.Type())
	}
	b, err := structBag(rv)
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", rt.Name, err)
	}
	return rt.ValidateBag(b)
}

func structBag(rv reflect.Value) (*propbag.Bag, error) {
	b := propbag.New()
	for _, f := range structFields(rv.Type()) {
		v, err := fieldValue(rv.FieldByIndex(f.index))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
		b.Set(f.name, v)
	}
	return b, nil
}

func fieldValue(fv reflect.Value) (any, error) {
	if fv.Type().Implements(resolvable) || fv.Type() == tagsListType || fv.Type() == tagsMapType {
		if isNilValue(fv) {
			return nil, nil
		}
		return fv.Interface(), nil
	}

	switch fv.Kind() {
	case reflect.Ptr:
		if fv.IsNil() {
			return nil, nil
		}
		return fieldValue(fv.Elem())
	case reflect.Interface:
		if fv.IsNil() {
			return nil, nil
		}
		return fv.Interface(), nil
	case reflect.Struct:
		if fv.Type() == timeType {
			return fv.Interface(), nil
		}
		return structBag(fv)
	case reflect.Slice:
		if fv.IsNil() {
			return nil, nil
		}
		if !isStructLike(fv.Type().Elem()) {
			return fv.Interface(), nil
		}
		out := make([]any, 0, fv.Len())
		for i := range fv.Len() {
			item, err := fieldValue(fv.Index(i))
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if item == nil {
				return nil, fmt.Errorf("[%d]: nil element", i)
			}
			out = append(out, item)
		}
		return out, nil
	case reflect.Map:
		if fv.IsNil() {
			return nil, nil
		}
		if fv.Type().Key().Kind() != reflect.String {
			return nil, errors.New("map keys must be strings")
		}
		if !isStructLike(fv.Type().Elem()) {
			return fv.Interface(), nil
		}
		keys := fv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int { return strings.Compare(a.String(), b.String()) })
		out := propbag.New()
		for _, k := range keys {
			item, err := fieldValue(fv.MapIndex(k))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.String(), err)
			}
			out.Set(k.String(), item)
		}
		return out, nil
	default:
		return fv.Interface(), nil
	}
}

func isStructLike(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != timeType && !t.Implements(resolvable)
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}

// FromStruct derives a resource type from a props struct. Field order gives
// declaration order, `cfn` tags give template names and requiredness, and
// tags.List or tags.Map fields set the tag style.
func FromStruct(typeName string, props any, attributes ...string) *ResourceType {
	t := reflect.TypeOf(props)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	b := &typeBuilder{objects: make(map[reflect.Type]*PropertyType)}
	rt := &ResourceType{
		Name:       typeName,
		Properties: b.properties(t),
		Attributes: attributes,
	}
	for _, p := range rt.Properties {
		if p.Type.Kind == KindTags {
			rt.TagStyle = p.Type.TagStyle
		}
	}
	return rt
}

type typeBuilder struct {
	objects map[reflect.Type]*PropertyType
}

func (b *typeBuilder) properties(t reflect.Type) []*Property {
	fields := structFields(t)
	out := make([]*Property, 0, len(fields))
	for _, f := range fields {
		ft := t.FieldByIndex(f.index).Type
		typ := b.typeOf(ft)
		if f.json {
			typ = JSON()
		}
		out = append(out, &Property{Name: f.name, Required: f.required, Type: typ})
	}
	return out
}

func (b *typeBuilder) typeOf(t reflect.Type) *Type {
	switch t {
	case tagsListType:
		return TagsOf(tags.StyleList)
	case tagsMapType:
		return TagsOf(tags.StyleMap)
	case timeType:
		return Timestamp()
	}
	if t.Implements(resolvable) {
		return String()
	}

	switch t.Kind() {
	case reflect.Ptr:
		return b.typeOf(t.Elem())
	case reflect.String:
		return String()
	case reflect.Bool:
		return Boolean()
	case reflect.Int64, reflect.Uint64:
		return Long()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return Integer()
	case reflect.Float32, reflect.Float64:
		return Double()
	case reflect.Slice, reflect.Array:
		return ListOf(b.typeOf(t.Elem()))
	case reflect.Map:
		if t.Elem().Kind() == reflect.Interface {
			return JSON()
		}
		return MapOf(b.typeOf(t.Elem()))
	case reflect.Struct:
		return ObjectOf(b.object(t))
	default:
		return JSON()
	}
}

func (b *typeBuilder) object(t reflect.Type) *PropertyType {
	if pt, ok := b.objects[t]; ok {
		return pt
	}
	pt := &PropertyType{Name: t.Name()}
	b.objects[t] = pt
	pt.Properties = b.properties(t)
	return pt
}
