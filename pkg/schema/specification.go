package schema

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/goccy/go-json"

	"github.com/theory-cloud/cfntheory/pkg/tags"
)

// specDocument is the CloudFormation Resource Specification JSON format.
type specDocument struct {
	ResourceSpecificationVersion string                      `json:"ResourceSpecificationVersion"`
	PropertyTypes                map[string]specPropertyType `json:"PropertyTypes"`
	ResourceTypes                map[string]specResourceType `json:"ResourceTypes"`
}

type specResourceType struct {
	Documentation string                   `json:"Documentation"`
	Attributes    map[string]specAttribute `json:"Attributes"`
	Properties    map[string]specProperty  `json:"Properties"`
}

type specPropertyType struct {
	Documentation string                  `json:"Documentation"`
	Properties    map[string]specProperty `json:"Properties"`
}

type specAttribute struct {
	PrimitiveType string `json:"PrimitiveType"`
	Type          string `json:"Type"`
}

type specProperty struct {
	Documentation     string     `json:"Documentation"`
	Required          bool       `json:"Required"`
	UpdateType        UpdateType `json:"UpdateType"`
	PrimitiveType     string     `json:"PrimitiveType"`
	Type              string     `json:"Type"`
	ItemType          string     `json:"ItemType"`
	PrimitiveItemType string     `json:"PrimitiveItemType"`
}

// LoadSpecification reads a CloudFormation Resource Specification document
// into a new registry. Properties are declared in lexical order, matching the
// document's map keys.
func LoadSpecification(r io.Reader) (*Registry, error) {
	var doc specDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("schema: decode specification: %w", err)
	}

	l := &specLoader{doc: &doc, objects: make(map[string]*PropertyType)}
	reg := NewRegistry()
	for _, name := range sortedKeys(doc.ResourceTypes) {
		rt, err := l.resource(name, doc.ResourceTypes[name])
		if err != nil {
			return nil, err
		}
		if err := reg.Register(rt); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

type specLoader struct {
	doc     *specDocument
	objects map[string]*PropertyType
}

func (l *specLoader) resource(name string, spec specResourceType) (*ResourceType, error) {
	props, err := l.properties(name, name, spec.Properties)
	if err != nil {
		return nil, err
	}
	rt := &ResourceType{
		Name:          name,
		Properties:    props,
		Attributes:    sortedKeys(spec.Attributes),
		Documentation: spec.Documentation,
	}
	for _, p := range props {
		if p.Type.Kind == KindTags {
			rt.TagStyle = p.Type.TagStyle
		}
	}
	return rt, nil
}

func (l *specLoader) properties(owner, resource string, specs map[string]specProperty) ([]*Property, error) {
	out := make([]*Property, 0, len(specs))
	for _, name := range sortedKeys(specs) {
		spec := specs[name]
		t, err := l.typeOf(resource, name, spec)
		if err != nil {
			return nil, fmt.Errorf("schema: %s.%s: %w", owner, name, err)
		}
		out = append(out, &Property{
			Name:          name,
			Required:      spec.Required,
			Type:          t,
			UpdateType:    spec.UpdateType,
			Documentation: spec.Documentation,
		})
	}
	return out, nil
}

func (l *specLoader) typeOf(resource, name string, spec specProperty) (*Type, error) {
	if name == "Tags" {
		switch {
		case spec.ItemType == "Tag":
			return TagsOf(tags.StyleList), nil
		case spec.Type == "Map" || spec.PrimitiveType == "Json":
			return TagsOf(tags.StyleMap), nil
		}
	}

	if spec.PrimitiveType != "" {
		return primitive(spec.PrimitiveType)
	}
	switch spec.Type {
	case "List", "Map":
		var elem *Type
		var err error
		if spec.PrimitiveItemType != "" {
			elem, err = primitive(spec.PrimitiveItemType)
		} else {
			elem, err = l.object(resource, spec.ItemType)
		}
		if err != nil {
			return nil, err
		}
		if spec.Type == "List" {
			return ListOf(elem), nil
		}
		return MapOf(elem), nil
	case "":
		return nil, fmt.Errorf("no type declared")
	default:
		return l.object(resource, spec.Type)
	}
}

// object resolves a property type reference. Names are scoped to the owning
// resource ("AWS::MediaStore::Container.CorsRule") except the shared "Tag".
func (l *specLoader) object(resource, name string) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("no item type declared")
	}
	full := resourcePrefix(resource) + "." + name
	if name == "Tag" {
		full = name
	}
	if pt, ok := l.objects[full]; ok {
		return ObjectOf(pt), nil
	}
	spec, ok := l.doc.PropertyTypes[full]
	if !ok {
		if name == "Tag" {
			return ObjectOf(tagPropertyType()), nil
		}
		return nil, fmt.Errorf("unknown property type %s", full)
	}

	pt := &PropertyType{Name: full, Documentation: spec.Documentation}
	l.objects[full] = pt
	props, err := l.properties(full, resource, spec.Properties)
	if err != nil {
		return nil, err
	}
	pt.Properties = props
	return ObjectOf(pt), nil
}

func tagPropertyType() *PropertyType {
	return &PropertyType{
		Name:       "Tag",
		Properties: []*Property{Required("Key", String()), Required("Value", String())},
	}
}

func resourcePrefix(name string) string {
	if i := strings.Index(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}

func primitive(name string) (*Type, error) {
	switch name {
	case "String":
		return String(), nil
	case "Integer":
		return Integer(), nil
	case "Long":
		return Long(), nil
	case "Double":
		return Double(), nil
	case "Boolean":
		return Boolean(), nil
	case "Timestamp":
		return Timestamp(), nil
	case "Json":
		return JSON(), nil
	default:
		return nil, fmt.Errorf("unknown primitive type %q", name)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
