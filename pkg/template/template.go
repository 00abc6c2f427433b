// Package template models a CloudFormation template document.
package template

import (
	"fmt"
	"iter"
	"slices"

	"github.com/theory-cloud/cfntheory/pkg/propbag"
)

// FormatVersion is the only template format version CloudFormation accepts.
const FormatVersion = "2010-09-09"

// Section is an ordered, name-keyed collection of template entries.
type Section[T any] struct {
	names []string
	items map[string]T
}

// Set stores v under name, keeping the original position on replacement.
func (s *Section[T]) Set(name string, v T) {
	if s.items == nil {
		s.items = make(map[string]T)
	}
	if _, ok := s.items[name]; !ok {
		s.names = append(s.names, name)
	}
	s.items[name] = v
}

func (s *Section[T]) Get(name string) (T, bool) {
	v, ok := s.items[name]
	return v, ok
}

func (s *Section[T]) Names() []string { return slices.Clone(s.names) }

func (s *Section[T]) Len() int { return len(s.names) }

func (s *Section[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for _, name := range s.names {
			if !yield(name, s.items[name]) {
				return
			}
		}
	}
}

// Resource is one entry of the Resources section.
type Resource struct {
	Type                string
	Condition           string
	DependsOn           []string
	Properties          *propbag.Bag
	Metadata            *propbag.Bag
	DeletionPolicy      string
	UpdateReplacePolicy string
	// Extra holds resource attributes without a dedicated field, such as
	// CreationPolicy or UpdatePolicy.
	Extra *propbag.Bag
}

// Parameter is one entry of the Parameters section.
type Parameter struct {
	Type                  string
	Description           string
	Default               any
	AllowedValues         []any
	AllowedPattern        string
	ConstraintDescription string
	MinLength             *int
	MaxLength             *int
	NoEcho                bool
}

// Output is one entry of the Outputs section.
type Output struct {
	Description string
	Value       any
	ExportName  any
	Condition   string
}

// Template is a CloudFormation template. Sections keep insertion order so
// synthesized documents are stable.
type Template struct {
	AWSTemplateFormatVersion string
	Description              string
	Metadata                 *propbag.Bag
	Parameters               Section[*Parameter]
	Resources                Section[*Resource]
	Outputs                  Section[*Output]
	// Other holds sections without a dedicated model: Mappings, Conditions,
	// Transform, Rules.
	Other *propbag.Bag
}

// New returns an empty template with the current format version.
func New() *Template {
	return &Template{AWSTemplateFormatVersion: FormatVersion}
}

// Bag renders the template as an ordered property bag, omitting empty
// sections.
func (t *Template) Bag() *propbag.Bag {
	out := propbag.New()
	if t.AWSTemplateFormatVersion != "" {
		out.Set("AWSTemplateFormatVersion", t.AWSTemplateFormatVersion)
	}
	if t.Description != "" {
		out.Set("Description", t.Description)
	}
	if t.Metadata.Len() > 0 {
		out.Set("Metadata", t.Metadata)
	}
	if t.Parameters.Len() > 0 {
		params := propbag.New()
		for name, p := range t.Parameters.All() {
			params.Set(name, p.bag())
		}
		out.Set("Parameters", params)
	}
	for k, v := range t.Other.All() {
		out.Set(k, v)
	}

	resources := propbag.New()
	for name, r := range t.Resources.All() {
		resources.Set(name, r.bag())
	}
	out.Set("Resources", resources)

	if t.Outputs.Len() > 0 {
		outputs := propbag.New()
		for name, o := range t.Outputs.All() {
			outputs.Set(name, o.bag())
		}
		out.Set("Outputs", outputs)
	}
	return out
}

func (r *Resource) bag() *propbag.Bag {
	b := propbag.New()
	b.Set("Type", r.Type)
	if r.Condition != "" {
		b.Set("Condition", r.Condition)
	}
	if len(r.DependsOn) > 0 {
		deps := make([]any, len(r.DependsOn))
		for i, d := range r.DependsOn {
			deps[i] = d
		}
		b.Set("DependsOn", deps)
	}
	if r.Properties.Len() > 0 {
		b.Set("Properties", r.Properties)
	}
	if r.Metadata.Len() > 0 {
		b.Set("Metadata", r.Metadata)
	}
	if r.DeletionPolicy != "" {
		b.Set("DeletionPolicy", r.DeletionPolicy)
	}
	if r.UpdateReplacePolicy != "" {
		b.Set("UpdateReplacePolicy", r.UpdateReplacePolicy)
	}
	for k, v := range r.Extra.All() {
		b.Set(k, v)
	}
	return b
}

func (p *Parameter) bag() *propbag.Bag {
	b := propbag.New()
	b.Set("Type", p.Type)
	if p.Description != "" {
		b.Set("Description", p.Description)
	}
	b.Set("Default", p.Default)
	if len(p.AllowedValues) > 0 {
		b.Set("AllowedValues", p.AllowedValues)
	}
	if p.AllowedPattern != "" {
		b.Set("AllowedPattern", p.AllowedPattern)
	}
	if p.ConstraintDescription != "" {
		b.Set("ConstraintDescription", p.ConstraintDescription)
	}
	if p.MinLength != nil {
		b.Set("MinLength", *p.MinLength)
	}
	if p.MaxLength != nil {
		b.Set("MaxLength", *p.MaxLength)
	}
	if p.NoEcho {
		b.Set("NoEcho", true)
	}
	return b
}

func (o *Output) bag() *propbag.Bag {
	b := propbag.New()
	if o.Description != "" {
		b.Set("Description", o.Description)
	}
	b.Set("Value", o.Value)
	if o.ExportName != nil {
		export := propbag.New()
		export.Set("Name", o.ExportName)
		b.Set("Export", export)
	}
	if o.Condition != "" {
		b.Set("Condition", o.Condition)
	}
	return b
}

// FromBag reads a template from its bag form. Sections without a model are
// kept verbatim in Other.
func FromBag(b *propbag.Bag) (*Template, error) {
	t := &Template{}
	for key, v := range b.All() {
		switch key {
		case "AWSTemplateFormatVersion":
			s, err := asString(key, v)
			if err != nil {
				return nil, err
			}
			t.AWSTemplateFormatVersion = s
		case "Description":
			s, err := asString(key, v)
			if err != nil {
				return nil, err
			}
			t.Description = s
		case "Metadata":
			m, err := asBag(key, v)
			if err != nil {
				return nil, err
			}
			t.Metadata = m
		case "Parameters":
			if err := readSection(key, v, &t.Parameters, parameterFromBag); err != nil {
				return nil, err
			}
		case "Resources":
			if err := readSection(key, v, &t.Resources, resourceFromBag); err != nil {
				return nil, err
			}
		case "Outputs":
			if err := readSection(key, v, &t.Outputs, outputFromBag); err != nil {
				return nil, err
			}
		default:
			if t.Other == nil {
				t.Other = propbag.New()
			}
			t.Other.Set(key, v)
		}
	}
	return t, nil
}

func readSection[T any](name string, v any, into *Section[T], read func(string, *propbag.Bag) (T, error)) error {
	section, err := asBag(name, v)
	if err != nil {
		return err
	}
	for entryName, raw := range section.All() {
		entry, err := asBag(name+"."+entryName, raw)
		if err != nil {
			return err
		}
		item, err := read(name+"."+entryName, entry)
		if err != nil {
			return err
		}
		into.Set(entryName, item)
	}
	return nil
}

func resourceFromBag(path string, b *propbag.Bag) (*Resource, error) {
	r := &Resource{}
	for key, v := range b.All() {
		var err error
		switch key {
		case "Type":
			r.Type, err = asString(path+".Type", v)
		case "Condition":
			r.Condition, err = asString(path+".Condition", v)
		case "DeletionPolicy":
			r.DeletionPolicy, err = asString(path+".DeletionPolicy", v)
		case "UpdateReplacePolicy":
			r.UpdateReplacePolicy, err = asString(path+".UpdateReplacePolicy", v)
		case "Properties":
			r.Properties, err = asBag(path+".Properties", v)
		case "Metadata":
			r.Metadata, err = asBag(path+".Metadata", v)
		case "DependsOn":
			r.DependsOn, err = asStrings(path+".DependsOn", v)
		default:
			if r.Extra == nil {
				r.Extra = propbag.New()
			}
			r.Extra.Set(key, v)
		}
		if err != nil {
			return nil, err
		}
	}
	if r.Type == "" {
		return nil, fmt.Errorf("template: %s: missing Type", path)
	}
	if r.Properties == nil {
		r.Properties = propbag.New()
	}
	return r, nil
}

func parameterFromBag(path string, b *propbag.Bag) (*Parameter, error) {
	p := &Parameter{}
	for key, v := range b.All() {
		var err error
		switch key {
		case "Type":
			p.Type, err = asString(path+".Type", v)
		case "Description":
			p.Description, err = asString(path+".Description", v)
		case "Default":
			p.Default = v
		case "AllowedValues":
			seq, ok := v.([]any)
			if !ok {
				err = fmt.Errorf("template: %s.AllowedValues: expected list, got %T", path, v)
			}
			p.AllowedValues = seq
		case "AllowedPattern":
			p.AllowedPattern, err = asString(path+".AllowedPattern", v)
		case "ConstraintDescription":
			p.ConstraintDescription, err = asString(path+".ConstraintDescription", v)
		case "NoEcho":
			p.NoEcho = v == true || v == "true"
		}
		if err != nil {
			return nil, err
		}
	}
	if p.Type == "" {
		return nil, fmt.Errorf("template: %s: missing Type", path)
	}
	return p, nil
}

func outputFromBag(path string, b *propbag.Bag) (*Output, error) {
	o := &Output{}
	for key, v := range b.All() {
		var err error
		switch key {
		case "Description":
			o.Description, err = asString(path+".Description", v)
		case "Value":
			o.Value = v
		case "Condition":
			o.Condition, err = asString(path+".Condition", v)
		case "Export":
			var export *propbag.Bag
			export, err = asBag(path+".Export", v)
			if err == nil {
				o.ExportName, _ = export.Get("Name")
			}
		}
		if err != nil {
			return nil, err
		}
	}
	if o.Value == nil {
		return nil, fmt.Errorf("template: %s: missing Value", path)
	}
	return o, nil
}

func asString(path string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("template: %s: expected string, got %T", path, v)
	}
	return s, nil
}

func asBag(path string, v any) (*propbag.Bag, error) {
	b, ok := v.(*propbag.Bag)
	if !ok {
		return nil, fmt.Errorf("template: %s: expected mapping, got %T", path, v)
	}
	return b, nil
}

func asStrings(path string, v any) ([]string, error) {
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []any:
		out := make([]string, 0, len(t))
		for i, item := range t {
			s, err := asString(fmt.Sprintf("%s[%d]", path, i), item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("template: %s: expected string or list, got %T", path, v)
	}
}
