package propbag

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrNotFound is the cause of a PathError when a key or index is absent.
var ErrNotFound = errors.New("not found")

// PathError reports which prefix of a property path failed to resolve.
type PathError struct {
	Path  []string
	Cause error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("propbag: error in path %s: %v", strings.TrimPrefix(strings.Join(e.Path, ""), "."), e.Cause)
}

func (e *PathError) Unwrap() error {
	return e.Cause
}

// splitPath breaks "A.B[0].C" into ["A", ".B", "[0]", ".C"].
func splitPath(path string) []string {
	var parts []string
	var delim string
	for path != "" {
		partIdx := strings.IndexAny(path, ".[")
		var part string
		if partIdx == -1 {
			part = delim + path
			path = ""
		} else {
			part = delim + path[:partIdx]
			delim = path[partIdx : partIdx+1]
			path = path[partIdx+1:]
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func parseIndex(part string) (int, error) {
	if len(part) < 2 || part[len(part)-1] != ']' {
		return 0, fmt.Errorf("invalid array index format, got %q", part)
	}
	return strconv.Atoi(part[1 : len(part)-1])
}

func step(current any, part string) (any, error) {
	if part[0] == '[' {
		idx, err := parseIndex(part)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(current)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, fmt.Errorf("expected sequence, got %T", current)
		}
		if idx < 0 || idx >= rv.Len() {
			return nil, fmt.Errorf("index %d out of bounds (length %d): %w", idx, rv.Len(), ErrNotFound)
		}
		return rv.Index(idx).Interface(), nil
	}

	key := strings.TrimPrefix(part, ".")
	switch m := current.(type) {
	case *Bag:
		v, ok := m.Get(key)
		if !ok {
			return nil, fmt.Errorf("key %q: %w", key, ErrNotFound)
		}
		return v, nil
	case map[string]any:
		v, ok := m[key]
		if !ok {
			return nil, fmt.Errorf("key %q: %w", key, ErrNotFound)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("expected mapping, got %T", current)
	}
}

// GetPath resolves a dotted path with optional sequence indexes, for example
// "CorsPolicy[0].AllowedOrigins".
func (b *Bag) GetPath(path string) (any, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, &PathError{Cause: errors.New("empty path")}
	}
	var current any = b
	for i, part := range parts {
		next, err := step(current, part)
		if err != nil {
			return nil, &PathError{Path: parts[:i+1], Cause: err}
		}
		current = next
	}
	return current, nil
}

// SetPath assigns value at path. Missing intermediate mappings are created as
// nested bags; sequence indexes must already exist. A nil value at a mapping
// key removes that key.
func (b *Bag) SetPath(path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return &PathError{Cause: errors.New("empty path")}
	}

	var current any = b
	for i, part := range parts[:len(parts)-1] {
		next, err := step(current, part)
		if errors.Is(err, ErrNotFound) && parts[i+1][0] != '[' {
			if parent, ok := current.(*Bag); ok && part[0] != '[' {
				child := New()
				parent.Set(strings.TrimPrefix(part, "."), child)
				current = child
				continue
			}
		}
		if err != nil {
			return &PathError{Path: parts[:i+1], Cause: err}
		}
		current = next
	}

	last := parts[len(parts)-1]
	if last[0] == '[' {
		idx, err := parseIndex(last)
		if err != nil {
			return &PathError{Path: parts, Cause: err}
		}
		seq, ok := current.([]any)
		if !ok {
			return &PathError{Path: parts, Cause: fmt.Errorf("expected []any, got %T", current)}
		}
		if idx < 0 || idx >= len(seq) {
			return &PathError{Path: parts, Cause: fmt.Errorf("index %d out of bounds (length %d)", idx, len(seq))}
		}
		if isNil(value) {
			return &PathError{Path: parts, Cause: errors.New("sequence elements cannot be nil")}
		}
		seq[idx] = value
		return nil
	}

	key := strings.TrimPrefix(last, ".")
	switch m := current.(type) {
	case *Bag:
		m.Set(key, value)
	case map[string]any:
		if isNil(value) {
			delete(m, key)
		} else {
			m[key] = value
		}
	default:
		return &PathError{Path: parts, Cause: fmt.Errorf("expected mapping, got %T", current)}
	}
	return nil
}
