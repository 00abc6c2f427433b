package tags

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
)

// Tag is a single key/value pair as CloudFormation models it in list-style tagging.
type Tag struct {
	Key   string `json:"Key" yaml:"Key"`
	Value string `json:"Value" yaml:"Value"`
}

// List is the list-of-pairs tag representation. Order is significant and duplicate
// keys are kept as given.
type List []Tag

// Map is the key-keyed tag representation used by a minority of resource types.
type Map map[string]string

// Style names the tag representation a resource type expects.
type Style int

const (
	// StyleNone marks a resource type that does not accept tags.
	StyleNone Style = iota
	// StyleList is the `[{Key, Value}, ...]` representation.
	StyleList
	// StyleMap is the `{key: value}` representation.
	StyleMap
)

func (s Style) String() string {
	switch s {
	case StyleList:
		return "list"
	case StyleMap:
		return "map"
	default:
		return "none"
	}
}

// ErrUntaggable is returned when tags are normalized for a StyleNone resource.
var ErrUntaggable = errors.New("tags: resource type does not support tags")

// keyedValues is satisfied by ordered mappings such as propbag.Bag.
type keyedValues interface {
	Keys() []string
	Get(key string) (any, bool)
}

// Normalize converts user supplied tags into the representation required by style.
//
// Accepted inputs are List, []Tag, Map, map[string]string, map[string]any, []any of
// {Key, Value} objects and ordered mappings. List output keeps order and duplicates;
// Map output resolves duplicate keys last-write-wins. Converting a mapping to a List
// orders entries by key.
func Normalize(style Style, input any) (any, error) {
	if style == StyleNone {
		return nil, ErrUntaggable
	}

	pairs, err := toPairs(input)
	if err != nil {
		return nil, err
	}

	if style == StyleMap {
		out := make(Map, len(pairs))
		for _, p := range pairs {
			out[p.Key] = p.Value
		}
		return out, nil
	}
	out := make(List, len(pairs))
	copy(out, pairs)
	return out, nil
}

// Merge combines tags inherited from enclosing scopes with a resource's own tags.
//
// For StyleMap the own tags override inherited keys. For StyleList the inherited
// entries whose keys are not present in own come first, followed by own verbatim.
func Merge(style Style, inherited, own any) (any, error) {
	if style == StyleNone {
		return nil, ErrUntaggable
	}

	base, err := toPairs(inherited)
	if err != nil {
		return nil, fmt.Errorf("tags: inherited: %w", err)
	}
	mine, err := toPairs(own)
	if err != nil {
		return nil, fmt.Errorf("tags: own: %w", err)
	}

	if style == StyleMap {
		out := make(Map, len(base)+len(mine))
		for _, p := range base {
			out[p.Key] = p.Value
		}
		for _, p := range mine {
			out[p.Key] = p.Value
		}
		return out, nil
	}

	ownKeys := make(map[string]bool, len(mine))
	for _, p := range mine {
		ownKeys[p.Key] = true
	}
	out := make(List, 0, len(base)+len(mine))
	seen := make(map[string]bool, len(base))
	for _, p := range base {
		if ownKeys[p.Key] || seen[p.Key] {
			continue
		}
		seen[p.Key] = true
		out = append(out, p)
	}
	out = append(out, mine...)
	return out, nil
}

// Len reports the number of pairs in a normalized tag value.
func Len(v any) int {
	switch t := v.(type) {
	case List:
		return len(t)
	case Map:
		return len(t)
	default:
		return 0
	}
}

// Pairs returns the key/value pairs of any accepted tag input.
func Pairs(input any) ([]Tag, error) {
	return toPairs(input)
}

func toPairs(input any) ([]Tag, error) {
	switch v := input.(type) {
	case nil:
		return nil, nil
	case List:
		return slices.Clone([]Tag(v)), nil
	case []Tag:
		return slices.Clone(v), nil
	case Map:
		return sortedPairs(v), nil
	case map[string]string:
		return sortedPairs(v), nil
	case map[string]any:
		out := make([]Tag, 0, len(v))
		for _, k := range sortedKeys(v) {
			s, ok := v[k].(string)
			if !ok {
				return nil, fmt.Errorf("tags: value for %q must be a string, got %T", k, v[k])
			}
			out = append(out, Tag{Key: k, Value: s})
		}
		return out, nil
	case []any:
		out := make([]Tag, 0, len(v))
		for i, item := range v {
			tag, err := pairFromEntry(item)
			if err != nil {
				return nil, fmt.Errorf("tags: entry %d: %w", i, err)
			}
			out = append(out, tag)
		}
		return out, nil
	case keyedValues:
		keys := v.Keys()
		out := make([]Tag, 0, len(keys))
		for _, k := range keys {
			raw, _ := v.Get(k)
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("tags: value for %q must be a string, got %T", k, raw)
			}
			out = append(out, Tag{Key: k, Value: s})
		}
		return out, nil
	}

	rv := reflect.ValueOf(input)
	if rv.Kind() == reflect.Slice {
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return toPairs(items)
	}
	return nil, fmt.Errorf("tags: unsupported tag representation %T", input)
}

func pairFromEntry(item any) (Tag, error) {
	switch e := item.(type) {
	case Tag:
		return e, nil
	case map[string]any:
		return pairFromLookup(func(k string) (any, bool) { v, ok := e[k]; return v, ok }, len(e))
	case map[string]string:
		key, okKey := e["Key"]
		value, okValue := e["Value"]
		if !okKey || !okValue || len(e) != 2 {
			return Tag{}, errors.New("expected exactly Key and Value")
		}
		return Tag{Key: key, Value: value}, nil
	case keyedValues:
		return pairFromLookup(e.Get, len(e.Keys()))
	default:
		return Tag{}, fmt.Errorf("expected {Key, Value} object, got %T", item)
	}
}

func pairFromLookup(get func(string) (any, bool), size int) (Tag, error) {
	rawKey, okKey := get("Key")
	rawValue, okValue := get("Value")
	if !okKey || !okValue || size != 2 {
		return Tag{}, errors.New("expected exactly Key and Value")
	}
	key, ok := rawKey.(string)
	if !ok {
		return Tag{}, fmt.Errorf("Key must be a string, got %T", rawKey)
	}
	value, ok := rawValue.(string)
	if !ok {
		return Tag{}, fmt.Errorf("Value must be a string, got %T", rawValue)
	}
	return Tag{Key: key, Value: value}, nil
}

func sortedPairs(m map[string]string) []Tag {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, Tag{Key: k, Value: m[k]})
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
