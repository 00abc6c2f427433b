package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/theory-cloud/cfntheory/pkg/propbag"
)

// Assign copies a validated bag into the props struct into points at. It is
// the reverse of Project: stored values are assigned without passing through
// an encoding, so JSON fields come back with their original Go types. Tokens
// assign to string fields as their placeholders.
func Assign(into any, b *propbag.Bag) error {
	rv := reflect.ValueOf(into)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("schema: assign target must be a non-nil struct pointer, got %T", into)
	}
	return assignStruct(rv.Elem(), b)
}

func assignStruct(dst reflect.Value, b *propbag.Bag) error {
	for _, f := range structFields(dst.Type()) {
		v, ok := b.Get(f.name)
		if !ok {
			v, ok = getFold(b, f.name)
		}
		if !ok || v == nil {
			continue
		}
		if err := assignValue(dst.FieldByIndex(f.index), v); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}

func getFold(b *propbag.Bag, name string) (any, bool) {
	for k, v := range b.All() {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func assignValue(dst reflect.Value, v any) error {
	if isAbsent(v) {
		return nil
	}
	if dst.Kind() == reflect.Ptr {
		elem := reflect.New(dst.Type().Elem())
		if err := assignValue(elem.Elem(), v); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	src := reflect.ValueOf(v)
	if src.Kind() == reflect.Ptr && dst.Kind() != reflect.Interface && src.Elem().Type().AssignableTo(dst.Type()) {
		dst.Set(src.Elem())
		return nil
	}
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(reflect.ValueOf(propbag.CloneValue(v)))
		return nil
	}

	switch typed := v.(type) {
	case propbag.Resolvable:
		if s, ok := v.(fmt.Stringer); ok && dst.Kind() == reflect.String {
			dst.SetString(s.String())
			return nil
		}
	case *propbag.Bag:
		switch dst.Kind() {
		case reflect.Struct:
			return assignStruct(dst, typed)
		case reflect.Map:
			if dst.Type().Key().Kind() != reflect.String {
				break
			}
			out := reflect.MakeMapWithSize(dst.Type(), typed.Len())
			for k, item := range typed.All() {
				elem := reflect.New(dst.Type().Elem()).Elem()
				if err := assignValue(elem, item); err != nil {
					return fmt.Errorf("%s: %w", k, err)
				}
				out.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), elem)
			}
			dst.Set(out)
			return nil
		}
	case string:
		if dst.Type() == timeType {
			ts, err := time.Parse(time.RFC3339, typed)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(ts))
			return nil
		}
	}

	if (src.Kind() == reflect.Slice || src.Kind() == reflect.Array) && dst.Kind() == reflect.Slice {
		out := reflect.MakeSlice(dst.Type(), src.Len(), src.Len())
		for i := range src.Len() {
			if err := assignValue(out.Index(i), src.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	}
	if convertible(src.Type(), dst.Type()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}

	// Anything else takes the encoded path.
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst.Addr().Interface())
}

// convertible limits reflect conversion to numbers and strings; reflect also
// allows int to string, which yields a rune.
func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	switch {
	case numeric(from.Kind()) && numeric(to.Kind()):
		return true
	case from.Kind() == reflect.String && to.Kind() == reflect.String:
		return true
	case from.Kind() == reflect.Bool && to.Kind() == reflect.Bool:
		return true
	}
	return false
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
