package template

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/theory-cloud/cfntheory/pkg/propbag"
)

// Format is a template serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("template: unknown format %q", s)
	}
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Encode renders t in the given format.
func (t *Template) Encode(f Format) ([]byte, error) {
	if f == FormatYAML {
		return t.YAML()
	}
	return t.JSON()
}

// JSON renders t as indented JSON.
func (t *Template) JSON() ([]byte, error) {
	raw, err := t.Bag().MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// YAML renders t as YAML with two-space indentation.
func (t *Template) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t.Bag()); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse reads a template in either format. JSON is detected by a leading '{'.
func Parse(data []byte) (*Template, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// ParseJSON reads a JSON template, keeping document order.
func ParseJSON(data []byte) (*Template, error) {
	var b propbag.Bag
	if err := b.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	return FromBag(&b)
}

// ParseYAML reads a YAML template. Short-form intrinsic tags (!Ref, !GetAtt,
// !Sub, ...) are expanded to their long form.
func ParseYAML(data []byte) (*Template, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	ExpandShortForms(&doc)
	v, err := propbag.DecodeYAMLNode(&doc)
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	b, ok := v.(*propbag.Bag)
	if !ok {
		return nil, fmt.Errorf("template: expected a mapping document, got %T", v)
	}
	return FromBag(b)
}

// ExpandShortForms rewrites every node tagged !Name into a single-key mapping
// {"Fn::Name": value}. !Ref and !Condition keep their bare key, and the
// scalar form of !GetAtt "Res.Attr" becomes a two-element sequence.
func ExpandShortForms(n *yaml.Node) {
	for _, c := range n.Content {
		ExpandShortForms(c)
	}
	if !strings.HasPrefix(n.Tag, "!") || strings.HasPrefix(n.Tag, "!!") {
		return
	}

	name := strings.TrimPrefix(n.Tag, "!")
	key := "Fn::" + name
	if name == "Ref" || name == "Condition" {
		key = name
	}

	inner := *n
	inner.Tag = ""
	if name == "GetAtt" && inner.Kind == yaml.ScalarNode {
		resource, attr, _ := strings.Cut(inner.Value, ".")
		inner = yaml.Node{
			Kind: yaml.SequenceNode,
			Content: []*yaml.Node{
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: resource},
				{Kind: yaml.ScalarNode, Tag: "!!str", Value: attr},
			},
		}
	}

	*n = yaml.Node{
		Kind:   yaml.MappingNode,
		Tag:    "!!map",
		Line:   n.Line,
		Column: n.Column,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&inner,
		},
	}
}
