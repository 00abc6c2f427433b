// Package schema describes CloudFormation resource types and validates raw
// property input against them.
package schema

import (
	"fmt"
	"slices"

	"github.com/theory-cloud/cfntheory/pkg/naming"
	"github.com/theory-cloud/cfntheory/pkg/tags"
)

// Kind is the shape of a property value.
type Kind int

const (
	KindString Kind = iota + 1
	KindInteger
	KindLong
	KindDouble
	KindBoolean
	KindTimestamp
	KindJSON
	KindObject
	KindList
	KindMap
	KindTags
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindInteger:
		return "Integer"
	case KindLong:
		return "Long"
	case KindDouble:
		return "Double"
	case KindBoolean:
		return "Boolean"
	case KindTimestamp:
		return "Timestamp"
	case KindJSON:
		return "Json"
	case KindObject:
		return "Object"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindTags:
		return "Tags"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Primitive reports whether values of k are scalars.
func (k Kind) Primitive() bool {
	return k >= KindString && k <= KindTimestamp
}

// UpdateType mirrors the resource specification's update behavior marker.
type UpdateType string

const (
	Mutable     UpdateType = "Mutable"
	Immutable   UpdateType = "Immutable"
	Conditional UpdateType = "Conditional"
)

// Type is the declared shape of a property.
type Type struct {
	Kind     Kind
	Elem     *Type         // List and Map element type
	Object   *PropertyType // Object structure
	TagStyle tags.Style    // Tags representation
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindList, KindMap:
		return fmt.Sprintf("%s<%s>", t.Kind, t.Elem)
	case KindObject:
		if t.Object != nil && t.Object.Name != "" {
			return t.Object.Name
		}
		return "Object"
	case KindTags:
		return fmt.Sprintf("Tags<%s>", t.TagStyle)
	default:
		return t.Kind.String()
	}
}

func String() *Type    { return &Type{Kind: KindString} }
func Integer() *Type   { return &Type{Kind: KindInteger} }
func Long() *Type      { return &Type{Kind: KindLong} }
func Double() *Type    { return &Type{Kind: KindDouble} }
func Boolean() *Type   { return &Type{Kind: KindBoolean} }
func Timestamp() *Type { return &Type{Kind: KindTimestamp} }
func JSON() *Type      { return &Type{Kind: KindJSON} }

// ListOf and MapOf treat a nil element type as JSON.
func ListOf(elem *Type) *Type { return &Type{Kind: KindList, Elem: elemOrJSON(elem)} }
func MapOf(elem *Type) *Type  { return &Type{Kind: KindMap, Elem: elemOrJSON(elem)} }

func elemOrJSON(elem *Type) *Type {
	if elem == nil {
		return JSON()
	}
	return elem
}

func ObjectOf(pt *PropertyType) *Type { return &Type{Kind: KindObject, Object: pt} }

func TagsOf(style tags.Style) *Type { return &Type{Kind: KindTags, TagStyle: style} }

// Property is one declared field of a resource or property type.
type Property struct {
	Name          string
	Required      bool
	Type          *Type
	UpdateType    UpdateType
	Documentation string
}

// Accessor returns the snake_case accessor name for the property.
func (p *Property) Accessor() string {
	return naming.SnakeCase(p.Name)
}

// Required declares a required property.
func Required(name string, t *Type) *Property {
	return &Property{Name: name, Required: true, Type: t}
}

// Optional declares an optional property.
func Optional(name string, t *Type) *Property {
	return &Property{Name: name, Type: t}
}

// PropertyType is a named structure nested inside resource properties.
type PropertyType struct {
	Name          string
	Properties    []*Property
	Documentation string
}

// Property looks a field up by template name or accessor name.
func (pt *PropertyType) Property(name string) (*Property, bool) {
	return findProperty(pt.Properties, name)
}

// ResourceType is the schema of one CloudFormation resource type.
type ResourceType struct {
	Name          string
	Properties    []*Property
	Attributes    []string
	TagStyle      tags.Style
	Documentation string
}

// Property looks a field up by template name or accessor name.
func (rt *ResourceType) Property(name string) (*Property, bool) {
	return findProperty(rt.Properties, name)
}

// HasAttribute reports whether name is a declared output attribute.
func (rt *ResourceType) HasAttribute(name string) bool {
	return slices.Contains(rt.Attributes, name)
}

// Required lists the template names of required properties in declaration order.
func (rt *ResourceType) Required() []string {
	var out []string
	for _, p := range rt.Properties {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

func findProperty(props []*Property, name string) (*Property, bool) {
	for _, p := range props {
		if p.Name == name || p.Accessor() == name {
			return p, true
		}
	}
	return nil, false
}
