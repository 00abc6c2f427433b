package propbag

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// MarshalJSON writes the bag as a JSON object in insertion order.
func (b *Bag) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.MarshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		val, err := json.MarshalNoEscape(b.values[k])
		if err != nil {
			return nil, fmt.Errorf("propbag: encode %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces the bag's content with a JSON object, keeping the
// document's key order. Numbers decode as json.Number so integers survive
// unchanged; null members are dropped.
func (b *Bag) UnmarshalJSON(data []byte) error {
	dec := stdjson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("propbag: %w", err)
	}
	if delim, ok := tok.(stdjson.Delim); !ok || delim != '{' {
		return fmt.Errorf("propbag: expected JSON object, got %v", tok)
	}
	decoded, err := decodeObject(dec)
	if err != nil {
		return fmt.Errorf("propbag: %w", err)
	}
	*b = *decoded
	return nil
}

func decodeObject(dec *stdjson.Decoder) (*Bag, error) {
	out := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeValue(dec *stdjson.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case stdjson.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			seq := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				seq = append(seq, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return seq, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return tok, nil
	}
}

// MarshalYAML emits an ordered mapping node.
func (b *Bag) MarshalYAML() (any, error) {
	return b.yamlNode()
}

func (b *Bag) yamlNode() (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for k, v := range b.All() {
		val, err := encodeYAMLValue(v)
		if err != nil {
			return nil, fmt.Errorf("propbag: encode %q: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			val,
		)
	}
	return node, nil
}

func encodeYAMLValue(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case *Bag:
		return t.yamlNode()
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range t {
			n, err := encodeYAMLValue(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case stdjson.Number:
		tag := "!!float"
		if _, err := t.Int64(); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: t.String()}, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

// UnmarshalYAML replaces the bag's content with a YAML mapping, keeping the
// document's key order.
func (b *Bag) UnmarshalYAML(value *yaml.Node) error {
	decoded, err := DecodeYAMLNode(value)
	if err != nil {
		return fmt.Errorf("propbag: %w", err)
	}
	bag, ok := decoded.(*Bag)
	if !ok {
		return fmt.Errorf("propbag: expected YAML mapping, got %T", decoded)
	}
	*b = *bag
	return nil
}

// DecodeYAMLNode converts a YAML node into bag values: mappings become *Bag,
// sequences become []any, scalars decode to their natural Go type.
func DecodeYAMLNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return DecodeYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return DecodeYAMLNode(n.Alias)
	case yaml.MappingNode:
		out := New()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := DecodeYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Set(n.Content[i].Value, v)
		}
		return out, nil
	case yaml.SequenceNode:
		seq := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := DecodeYAMLNode(c)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil
	default:
		var out any
		if err := n.Decode(&out); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return out, nil
	}
}
