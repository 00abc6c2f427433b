package cfntheory

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/dominikbraun/graph"

	"github.com/theory-cloud/cfntheory/pkg/propbag"
	"github.com/theory-cloud/cfntheory/pkg/schema"
	"github.com/theory-cloud/cfntheory/pkg/tags"
	"github.com/theory-cloud/cfntheory/pkg/template"
)

// MetadataPath is the resource metadata key holding the construct path.
const MetadataPath = "aws:cdk:path"

// Template renders the stack. Resources, parameters and outputs appear in
// construct tree order.
func (s *Stack) Template() (*template.Template, error) {
	t := template.New()
	t.Description = s.description

	syn := &stackSynth{stack: s, tmpl: t, ids: make(map[string]string), deps: make(map[string][]string)}
	var err error
	s.node.walk(func(n *Node) {
		if err != nil {
			return
		}
		switch host := n.host.(type) {
		case *CfnParameter:
			err = syn.parameter(host)
		case *CfnResource:
			err = syn.resource(host)
		case *CfnOutput:
			err = syn.output(host)
		}
	})
	if err != nil {
		return nil, err
	}
	if err := syn.checkCycles(); err != nil {
		return nil, err
	}
	return t, nil
}

type stackSynth struct {
	stack *Stack
	tmpl  *template.Template
	// ids maps claimed logical ids to the claiming construct path.
	ids map[string]string
	// deps holds resource -> resources it needs, in discovery order.
	deps      map[string][]string
	resources []string
}

func (syn *stackSynth) claim(logicalID, path string) error {
	if prev, ok := syn.ids[logicalID]; ok {
		return newError(ErrorCodeSynthesisFailed, fmt.Sprintf("logical id %s is used by both %s and %s", logicalID, prev, path), nil)
	}
	syn.ids[logicalID] = path
	return nil
}

func (syn *stackSynth) parameter(p *CfnParameter) error {
	if err := syn.claim(p.logicalID, p.node.Path()); err != nil {
		return err
	}
	syn.tmpl.Parameters.Set(p.logicalID, p.template())
	return nil
}

func (syn *stackSynth) resource(r *CfnResource) error {
	path := r.node.Path()
	if err := syn.claim(r.logicalID, path); err != nil {
		return err
	}

	props, err := withInheritedTags(r)
	if err != nil {
		return newError(ErrorCodeSynthesisFailed, path, err)
	}
	res := resolver{stack: syn.stack}
	resolved, err := res.resolve(props)
	if err != nil {
		return err
	}

	meta := propbag.New()
	meta.Set(MetadataPath, path)
	if r.node.metadata.Len() > 0 {
		userMeta, err := res.resolve(r.node.metadata)
		if err != nil {
			return err
		}
		for k, v := range userMeta.(*propbag.Bag).All() {
			meta.Set(k, v)
		}
	}

	out := &template.Resource{
		Type:                r.rt.Name,
		Condition:           r.condition,
		Metadata:            meta,
		DeletionPolicy:      r.deletionPolicy,
		UpdateReplacePolicy: r.updateReplacePolicy,
	}
	if b, ok := resolved.(*propbag.Bag); ok {
		out.Properties = b
	}

	needs := slices.Clone(res.refs)
	for _, d := range r.dependsOn {
		out.DependsOn = append(out.DependsOn, d.logicalID)
		needs = append(needs, d.logicalID)
	}
	syn.resources = append(syn.resources, r.logicalID)
	syn.deps[r.logicalID] = needs
	syn.tmpl.Resources.Set(r.logicalID, out)
	return nil
}

func (syn *stackSynth) output(o *CfnOutput) error {
	res := resolver{stack: syn.stack}
	value, err := res.resolve(o.props.Value)
	if err != nil {
		return err
	}
	export, err := res.resolve(o.props.ExportName)
	if err != nil {
		return err
	}
	if _, exists := syn.tmpl.Outputs.Get(o.logicalID); exists {
		return newError(ErrorCodeSynthesisFailed, "duplicate output "+o.logicalID, nil)
	}
	syn.tmpl.Outputs.Set(o.logicalID, &template.Output{
		Description: o.props.Description,
		Value:       value,
		ExportName:  export,
		Condition:   o.props.Condition,
	})
	return nil
}

// checkCycles builds the resource dependency graph from DependsOn edges and
// token references and rejects cycles.
func (syn *stackSynth) checkCycles() error {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, id := range syn.resources {
		_ = g.AddVertex(id)
	}
	for _, id := range syn.resources {
		for _, dep := range syn.deps[id] {
			if _, isResource := syn.deps[dep]; !isResource {
				continue
			}
			err := g.AddEdge(id, dep)
			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return newError(ErrorCodeDependencyCycle, fmt.Sprintf("%s -> %s closes a dependency cycle in stack %s", id, dep, syn.stack.StackName()), nil)
			default:
				return newError(ErrorCodeSynthesisFailed, "dependency graph", err)
			}
		}
	}
	return nil
}

// withInheritedTags returns the resource properties with scope tags merged
// into the tag property. Untaggable types and deferred tag values are left
// alone.
func withInheritedTags(r *CfnResource) (*propbag.Bag, error) {
	props := r.props
	if r.rt.TagStyle == tags.StyleNone {
		return props, nil
	}
	inherited := inheritedTags(r.node)
	if len(inherited) == 0 {
		return props, nil
	}
	name := tagPropertyName(r.rt)
	own, _ := props.Get(name)
	if _, deferred := own.(Token); deferred {
		return props, nil
	}
	if _, deferred := template.IsIntrinsic(own); deferred {
		return props, nil
	}

	merged, err := tags.Merge(r.rt.TagStyle, inherited, own)
	if err != nil {
		return nil, err
	}
	out := props.Clone()
	out.Set(name, merged)
	return r.declarationOrder(out), nil
}

func tagPropertyName(rt *schema.ResourceType) string {
	for _, p := range rt.Properties {
		if p.Type.Kind == schema.KindTags {
			return p.Name
		}
	}
	return "Tags"
}

// resolver turns validated property values into plain template values:
// tokens become intrinsics, tag values take their template shape and maps
// become ordered bags.
type resolver struct {
	stack *Stack
	// refs lists the logical ids of same-stack constructs referenced so far.
	refs []string
}

func (r *resolver) resolve(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case Token:
		return r.token(t)
	case string:
		return r.str(t)
	case *propbag.Bag:
		if t == nil {
			return nil, nil
		}
		out := propbag.New()
		for k, item := range t.All() {
			resolved, err := r.resolve(item)
			if err != nil {
				return nil, err
			}
			out.Set(k, resolved)
		}
		return out, nil
	case tags.List:
		out := make([]any, 0, len(t))
		for _, tag := range t {
			value, err := r.str(tag.Value)
			if err != nil {
				return nil, err
			}
			b := propbag.New()
			b.Set("Key", tag.Key)
			b.Set("Value", value)
			out = append(out, b)
		}
		return out, nil
	case tags.Map:
		out := propbag.New()
		for _, k := range sortedTagKeys(t) {
			value, err := r.str(t[k])
			if err != nil {
				return nil, err
			}
			out.Set(k, value)
		}
		return out, nil
	case time.Time:
		return t.UTC().Format(time.RFC3339), nil
	case []any:
		return r.list(reflect.ValueOf(t))
	case map[string]any:
		return r.mapping(reflect.ValueOf(t))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil, nil
		}
		return r.resolve(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		return r.list(rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, newError(ErrorCodeSynthesisFailed, fmt.Sprintf("unsupported map key type %s", rv.Type().Key()), nil)
		}
		return r.mapping(rv)
	default:
		return v, nil
	}
}

func (r *resolver) list(rv reflect.Value) (any, error) {
	out := make([]any, 0, rv.Len())
	for i := range rv.Len() {
		item, err := r.resolve(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *resolver) mapping(rv reflect.Value) (any, error) {
	keys := rv.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int { return strings.Compare(a.String(), b.String()) })
	out := propbag.New()
	for _, k := range keys {
		item, err := r.resolve(rv.MapIndex(k).Interface())
		if err != nil {
			return nil, err
		}
		out.Set(k.String(), item)
	}
	return out, nil
}

// str resolves token placeholders embedded in s. A string that is exactly one
// placeholder becomes that token's intrinsic; mixed content becomes Fn::Join.
func (r *resolver) str(s string) (any, error) {
	locs := tokenPattern.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s, nil
	}

	var parts []any
	literal := func(text string) {
		if text == "" {
			return
		}
		if n := len(parts); n > 0 {
			if prev, ok := parts[n-1].(string); ok {
				parts[n-1] = prev + text
				return
			}
		}
		parts = append(parts, text)
	}

	last := 0
	for _, loc := range locs {
		literal(s[last:loc[0]])
		last = loc[1]
		ref, ok := lookupToken(s[loc[0]:loc[1]])
		if !ok {
			literal(s[loc[0]:loc[1]])
			continue
		}
		resolved, err := r.token(Token{ref: ref})
		if err != nil {
			return nil, err
		}
		parts = append(parts, resolved)
	}
	literal(s[last:])

	if len(parts) == 1 {
		return parts[0], nil
	}
	return template.Join("", parts), nil
}

type referenceable interface {
	LogicalID() string
	Stack() *Stack
}

func (r *resolver) token(t Token) (any, error) {
	ref := t.ref
	if ref == nil {
		return nil, nil
	}
	if ref.pseudo != "" {
		return template.Ref(ref.pseudo), nil
	}

	target, ok := ref.target.host.(referenceable)
	if !ok {
		return nil, newError(ErrorCodeSynthesisFailed, "token target "+ref.target.Path()+" cannot be referenced", nil)
	}
	if target.Stack() != r.stack {
		return nil, newError(ErrorCodeCrossStackReference, fmt.Sprintf("%s is in stack %s and cannot be referenced from stack %s",
			ref.target.Path(), target.Stack().StackName(), r.stack.StackName()), nil)
	}

	id := target.LogicalID()
	r.refs = append(r.refs, id)
	if ref.attribute != "" {
		return template.GetAtt(id, ref.attribute), nil
	}
	return template.Ref(id), nil
}
