package cfntheory

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/theory-cloud/cfntheory/pkg/logger"
	"github.com/theory-cloud/cfntheory/pkg/naming"
	"github.com/theory-cloud/cfntheory/pkg/propbag"
	"github.com/theory-cloud/cfntheory/pkg/sanitization"
	"github.com/theory-cloud/cfntheory/pkg/schema"
)

// RemovalPolicy controls what happens to a resource when it leaves the stack
// or is replaced.
type RemovalPolicy string

const (
	RemovalPolicyDestroy                RemovalPolicy = "Delete"
	RemovalPolicyRetain                 RemovalPolicy = "Retain"
	RemovalPolicySnapshot               RemovalPolicy = "Snapshot"
	RemovalPolicyRetainOnUpdateOrDelete RemovalPolicy = "RetainExceptOnCreate"
)

var logicalIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,255}$`)

type CfnResourceProps struct {
	// Type is the CloudFormation type name, e.g. AWS::MediaStore::Container.
	Type string
	// Properties may use template names or snake_case accessor names.
	Properties map[string]any
	// Schema overrides the registry lookup for Type.
	Schema *schema.ResourceType
}

// CfnResource is a single CloudFormation resource bound to a schema.
type CfnResource struct {
	node      *Node
	stack     *Stack
	rt        *schema.ResourceType
	props     *propbag.Bag
	logicalID string

	dependsOn           []*CfnResource
	deletionPolicy      string
	updateReplacePolicy string
	condition           string

	ref   Token
	attrs map[string]Token
}

// NewCfnResource validates props against the type's schema and registers the
// resource under scope. Nothing is registered when validation fails.
func NewCfnResource(scope Construct, id string, props *CfnResourceProps) (*CfnResource, error) {
	n, err := newNode(scope, id)
	if err != nil {
		return nil, err
	}
	stack, err := stackOf(scope)
	if err != nil {
		return nil, err
	}
	if props == nil {
		props = &CfnResourceProps{}
	}
	rt, err := resolveSchema(stack, props)
	if err != nil {
		return nil, err
	}

	bag, err := rt.Validate(props.Properties)
	if err != nil {
		return nil, validationError(n, rt, err)
	}
	return newResource(n, stack, rt, bag)
}

// NewCfnResourceFromStruct is NewCfnResource for a `cfn`-tagged props struct.
// Typed bindings build on it.
func NewCfnResourceFromStruct(scope Construct, id string, rt *schema.ResourceType, props any) (*CfnResource, error) {
	n, err := newNode(scope, id)
	if err != nil {
		return nil, err
	}
	stack, err := stackOf(scope)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, newError(ErrorCodeUnknownType, "resource schema must not be nil", nil)
	}

	bag, err := schema.Project(rt, props)
	if err != nil {
		return nil, validationError(n, rt, err)
	}
	return newResource(n, stack, rt, bag)
}

func resolveSchema(stack *Stack, props *CfnResourceProps) (*schema.ResourceType, error) {
	if props.Schema != nil {
		if props.Type != "" && props.Type != props.Schema.Name {
			return nil, newError(ErrorCodeUnknownType, fmt.Sprintf("schema %s does not describe %s", props.Schema.Name, props.Type), nil)
		}
		return props.Schema, nil
	}
	if props.Type == "" {
		return nil, newError(ErrorCodeUnknownType, "resource type must not be empty", nil)
	}
	rt, ok := stack.registry().Lookup(props.Type)
	if !ok {
		return nil, newError(ErrorCodeUnknownType, "no schema registered for "+props.Type, nil)
	}
	return rt, nil
}

func newResource(n *Node, stack *Stack, rt *schema.ResourceType, bag *propbag.Bag) (*CfnResource, error) {
	id, err := logicalIDFor(n, stack)
	if err != nil {
		return nil, err
	}
	r := &CfnResource{node: n, stack: stack, rt: rt, props: bag, logicalID: id}
	if err := n.attach(r); err != nil {
		return nil, err
	}
	logger.Logger().WithStack(stack.StackName()).WithPath(n.Path()).Debug("resource registered", map[string]any{
		"type":       rt.Name,
		"logical_id": id,
		"properties": bag.Len(),
	})
	return r, nil
}

// logicalIDFor derives a logical id from the ids below the stack.
func logicalIDFor(n *Node, stack *Stack) (string, error) {
	var components []string
	below := false
	for _, s := range n.Scopes() {
		if below {
			components = append(components, s.id)
		}
		if s == stack.node {
			below = true
		}
	}
	id, err := naming.LogicalID(components)
	if err != nil {
		return "", newError(ErrorCodeInvalidID, n.Path(), err)
	}
	return id, nil
}

func validationError(n *Node, rt *schema.ResourceType, err error) error {
	logger.Logger().WithPath(n.Path()).Warn("property validation failed", map[string]any{
		"type":  rt.Name,
		"error": err.Error(),
	})
	return newError(ErrorCodeValidationFailed, n.Path(), err)
}

func (r *CfnResource) Node() *Node { return r.node }

func (r *CfnResource) Stack() *Stack { return r.stack }

// Type returns the CloudFormation type name.
func (r *CfnResource) Type() string { return r.rt.Name }

func (r *CfnResource) Schema() *schema.ResourceType { return r.rt }

func (r *CfnResource) LogicalID() string { return r.logicalID }

// OverrideLogicalID replaces the derived logical id.
func (r *CfnResource) OverrideLogicalID(id string) error {
	if !logicalIDPattern.MatchString(id) {
		return newError(ErrorCodeInvalidID, errorMessageLogicalIDForm+": "+quote(id), nil)
	}
	r.logicalID = id
	return nil
}

// Properties returns a copy of the validated properties.
func (r *CfnResource) Properties() *propbag.Bag { return r.props.Clone() }

// Property returns one property by template or accessor name.
func (r *CfnResource) Property(name string) (any, bool) {
	p, ok := r.rt.Property(name)
	if !ok {
		return nil, false
	}
	return r.props.Get(p.Name)
}

// SetProperty validates and stores one property. A nil value removes an
// optional property. The stored properties are unchanged on error.
func (r *CfnResource) SetProperty(name string, value any) error {
	p, v, err := r.rt.ValidateProperty(name, value)
	if err != nil {
		return validationError(r.node, r.rt, err)
	}

	next := r.props.Clone()
	next.Set(p.Name, v)
	r.props = r.declarationOrder(next)

	logger.Logger().WithPath(r.node.Path()).Debug("property set", map[string]any{
		"property": p.Name,
		"value":    sanitization.SanitizeFieldValue(p.Name, v),
	})
	return nil
}

// ReplaceProperties validates raw and replaces every property.
func (r *CfnResource) ReplaceProperties(raw *propbag.Bag) error {
	bag, err := r.rt.ValidateBag(raw)
	if err != nil {
		return validationError(r.node, r.rt, err)
	}
	r.props = bag
	return nil
}

// ReplacePropertiesFromStruct validates a `cfn`-tagged props struct and
// replaces every property.
func (r *CfnResource) ReplacePropertiesFromStruct(props any) error {
	bag, err := schema.Project(r.rt, props)
	if err != nil {
		return validationError(r.node, r.rt, err)
	}
	r.props = bag
	return nil
}

// DecodeProperties copies the current properties into a props struct. Struct
// fields match template names, falling back to a case-insensitive match.
// Values keep their Go types; tokens assign to string fields as their
// placeholder strings.
func (r *CfnResource) DecodeProperties(into any) error {
	if err := schema.Assign(into, r.props); err != nil {
		return newError(ErrorCodeValidationFailed, r.node.Path(), err)
	}
	return nil
}

func (r *CfnResource) declarationOrder(b *propbag.Bag) *propbag.Bag {
	out := propbag.New()
	for _, p := range r.rt.Properties {
		if v, ok := b.Get(p.Name); ok {
			out.Set(p.Name, v)
		}
	}
	return out
}

// Ref returns a token for the resource's Ref value.
func (r *CfnResource) Ref() Token {
	if r.ref.IsZero() {
		r.ref = newToken(r.logicalID+".Ref", &tokenRef{target: r.node})
	}
	return r.ref
}

// GetAtt returns a token for a declared attribute.
func (r *CfnResource) GetAtt(attribute string) (Token, error) {
	if tok, ok := r.attrs[attribute]; ok {
		return tok, nil
	}
	if !r.rt.HasAttribute(attribute) {
		return Token{}, newError(ErrorCodeUnknownAttribute, fmt.Sprintf("%s has no attribute %s", r.rt.Name, attribute), nil)
	}
	if r.attrs == nil {
		r.attrs = make(map[string]Token)
	}
	tok := newToken(r.logicalID+"."+attribute, &tokenRef{target: r.node, attribute: attribute})
	r.attrs[attribute] = tok
	return tok, nil
}

// MustGetAtt is GetAtt for attributes known to be declared. It panics
// otherwise.
func (r *CfnResource) MustGetAtt(attribute string) Token {
	tok, err := r.GetAtt(attribute)
	if err != nil {
		panic(err)
	}
	return tok
}

// AddDependency adds DependsOn edges to resources in the same stack.
func (r *CfnResource) AddDependency(others ...*CfnResource) error {
	for _, o := range others {
		if o == nil {
			continue
		}
		if o.stack != r.stack {
			return newError(ErrorCodeCrossStackReference, fmt.Sprintf("%s cannot depend on %s in another stack", r.node.Path(), o.node.Path()), nil)
		}
		if o == r {
			return newError(ErrorCodeDependencyCycle, r.node.Path()+" cannot depend on itself", nil)
		}
		if !slices.Contains(r.dependsOn, o) {
			r.dependsOn = append(r.dependsOn, o)
		}
	}
	return nil
}

// ApplyRemovalPolicy sets DeletionPolicy and UpdateReplacePolicy.
func (r *CfnResource) ApplyRemovalPolicy(policy RemovalPolicy) {
	r.deletionPolicy = string(policy)
	r.updateReplacePolicy = string(policy)
	if policy == RemovalPolicyRetainOnUpdateOrDelete {
		r.updateReplacePolicy = string(RemovalPolicyRetain)
	}
}

// AddMetadata adds an entry to the resource's Metadata section.
func (r *CfnResource) AddMetadata(key string, value any) {
	r.node.AddMetadata(key, value)
}

// SetCondition attaches the resource to a template condition.
func (r *CfnResource) SetCondition(name string) { r.condition = name }
