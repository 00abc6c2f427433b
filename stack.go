package cfntheory

import (
	"github.com/theory-cloud/cfntheory/pkg/naming"
	"github.com/theory-cloud/cfntheory/pkg/schema"
)

type StackProps struct {
	// StackName defaults to the construct id. It must start with a letter
	// and hold only letters, digits and dashes.
	StackName   string
	Description string
	// Tags are applied to every taggable resource in the stack.
	Tags map[string]string
}

// Stack is a unit of deployment. It synthesizes to one template.
type Stack struct {
	node        *Node
	app         *App
	name        string
	description string
}

// NewStack creates a stack directly under app.
func NewStack(scope Construct, id string, props *StackProps) (*Stack, error) {
	n, err := newNode(scope, id)
	if err != nil {
		return nil, err
	}
	app, ok := scope.(*App)
	if !ok {
		return nil, newError(ErrorCodeInvalidScope, errorMessageScopeNotApp, nil)
	}
	if props == nil {
		props = &StackProps{}
	}

	s := &Stack{node: n, app: app, name: props.StackName, description: props.Description}
	if s.name == "" {
		s.name = id
	}
	if !naming.ValidStackName(s.name) {
		return nil, newError(ErrorCodeInvalidID, errorMessageStackNameForm+": "+quote(s.name), nil)
	}
	for _, key := range sortedTagKeys(props.Tags) {
		n.tags = append(n.tags, tagOf(key, props.Tags[key]))
	}
	if err := n.attach(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Stack) Node() *Node { return s.node }

func (s *Stack) App() *App { return s.app }

func (s *Stack) StackName() string { return s.name }

func (s *Stack) Description() string { return s.description }

func (s *Stack) SetDescription(description string) { s.description = description }

// Resources returns the stack's resources in tree order.
func (s *Stack) Resources() []*CfnResource {
	var out []*CfnResource
	s.node.walk(func(n *Node) {
		if r, ok := n.host.(*CfnResource); ok {
			out = append(out, r)
		}
	})
	return out
}

func (s *Stack) registry() *schema.Registry {
	if s.app == nil {
		return schema.Default
	}
	return s.app.registry
}

// stackOf returns the stack enclosing scope.
func stackOf(scope Construct) (*Stack, error) {
	if scope == nil || scope.Node() == nil {
		return nil, newError(ErrorCodeInvalidScope, errorMessageNilScope, nil)
	}
	s := scope.Node().Stack()
	if s == nil {
		return nil, newError(ErrorCodeInvalidScope, errorMessageScopeNoStack, nil)
	}
	return s, nil
}
