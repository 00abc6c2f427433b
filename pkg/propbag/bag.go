// Package propbag implements the ordered property bag that backs every
// CloudFormation resource description.
//
// A Bag maps PascalCase field names to values. Values are primitives, nested
// Bags, or sequences of either. Absent fields are never stored: setting a key
// to nil removes it, which keeps the "optional fields are omitted, not null"
// rule of the template format.
package propbag

import (
	"iter"
	"reflect"
	"slices"
)

// Resolvable marks a value whose concrete form is only known at synthesis
// (references, attributes, pseudo parameters). Resolvable values satisfy every
// shape check.
type Resolvable interface {
	Resolvable() bool
}

// Bag is an insertion-ordered mapping of field name to value.
//
// The zero value is an empty bag ready to use.
type Bag struct {
	keys   []string
	values map[string]any
}

// New returns an empty bag.
func New() *Bag {
	return &Bag{}
}

// FromMap builds a bag from m. Keys are inserted in lexical order since Go maps
// carry no order of their own; nested maps become nested bags.
func FromMap(m map[string]any) *Bag {
	b := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.Set(k, fromPlain(m[k]))
	}
	return b
}

func fromPlain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return FromMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = fromPlain(t[i])
		}
		return out
	default:
		return v
	}
}

// Set stores value under key. A nil value deletes the key. Replacing an
// existing key keeps its position.
func (b *Bag) Set(key string, value any) {
	if isNil(value) {
		b.Delete(key)
		return
	}
	if b.values == nil {
		b.values = make(map[string]any)
	}
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

// Get returns the value stored under key.
func (b *Bag) Get(key string) (any, bool) {
	if b == nil || b.values == nil {
		return nil, false
	}
	v, ok := b.values[key]
	return v, ok
}

// Has reports whether key is present.
func (b *Bag) Has(key string) bool {
	_, ok := b.Get(key)
	return ok
}

// Delete removes key. Deleting a missing key is a no-op.
func (b *Bag) Delete(key string) {
	if b == nil || b.values == nil {
		return
	}
	if _, ok := b.values[key]; !ok {
		return
	}
	delete(b.values, key)
	b.keys = slices.DeleteFunc(b.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in insertion order, or nil for an empty bag.
func (b *Bag) Keys() []string {
	if b.Len() == 0 {
		return nil
	}
	return slices.Clone(b.keys)
}

// Len returns the number of stored keys.
func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

// All iterates the bag in insertion order.
func (b *Bag) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if b == nil {
			return
		}
		for _, k := range b.keys {
			if !yield(k, b.values[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the bag. Slices and maps are copied; other
// values are shared.
func (b *Bag) Clone() *Bag {
	if b == nil {
		return nil
	}
	out := &Bag{
		keys:   slices.Clone(b.keys),
		values: make(map[string]any, len(b.values)),
	}
	for k, v := range b.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

// Plain converts the bag into map[string]any, recursively turning nested bags
// into maps and []any sequences of bags into []any of maps. Leaf values are
// returned unchanged.
func (b *Bag) Plain() map[string]any {
	if b == nil {
		return nil
	}
	out := make(map[string]any, len(b.keys))
	for _, k := range b.keys {
		out[k] = plainValue(b.values[k])
	}
	return out
}

// Equal reports whether two bags hold the same keys with deeply equal values.
// Key order is not significant; sequence order is.
func (b *Bag) Equal(other *Bag) bool {
	if b.Len() != other.Len() {
		return false
	}
	for k, v := range b.All() {
		ov, ok := other.Get(k)
		if !ok || !valuesEqual(v, ov) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	ab, aIsBag := a.(*Bag)
	bb, bIsBag := b.(*Bag)
	if aIsBag || bIsBag {
		return aIsBag && bIsBag && ab.Equal(bb)
	}
	as, aIsList := a.([]any)
	bs, bIsList := b.([]any)
	if aIsList && bIsList {
		return slices.EqualFunc(as, bs, valuesEqual)
	}
	return reflect.DeepEqual(a, b)
}

func plainValue(v any) any {
	switch t := v.(type) {
	case *Bag:
		return t.Plain()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = plainValue(t[i])
		}
		return out
	default:
		return v
	}
}

// CloneValue copies v the way Clone copies bag values: bags, slices and maps
// are duplicated, other values are shared.
func CloneValue(v any) any { return cloneValue(v) }

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Bag:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		cp := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(cp, rv)
		return cp.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		cp := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), iter.Value())
		}
		return cp.Interface()
	default:
		return v
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
