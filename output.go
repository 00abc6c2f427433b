package cfntheory

import (
	"github.com/theory-cloud/cfntheory/pkg/template"
)

type CfnOutputProps struct {
	// Value is required. It may be a Token or a string embedding tokens.
	Value       any
	Description string
	// ExportName, when set, exports the value for other stacks.
	ExportName any
	Condition  string
}

// CfnOutput is an entry of the template's Outputs section.
type CfnOutput struct {
	node      *Node
	stack     *Stack
	logicalID string
	props     CfnOutputProps
}

func NewCfnOutput(scope Construct, id string, props *CfnOutputProps) (*CfnOutput, error) {
	n, err := newNode(scope, id)
	if err != nil {
		return nil, err
	}
	stack, err := stackOf(scope)
	if err != nil {
		return nil, err
	}
	if props == nil || props.Value == nil {
		return nil, newError(ErrorCodeValidationFailed, n.Path(), &MissingRequiredFieldError{Resource: "Output", Path: "Value"})
	}
	logicalID, err := logicalIDFor(n, stack)
	if err != nil {
		return nil, err
	}

	o := &CfnOutput{node: n, stack: stack, logicalID: logicalID, props: *props}
	if err := n.attach(o); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *CfnOutput) Node() *Node { return o.node }

func (o *CfnOutput) LogicalID() string { return o.logicalID }

func (o *CfnOutput) Value() any { return o.props.Value }

// SetValue replaces the output value. A nil value is ignored.
func (o *CfnOutput) SetValue(v any) {
	if v != nil {
		o.props.Value = v
	}
}

type CfnParameterProps struct {
	// Type defaults to String.
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

// CfnParameter is an entry of the template's Parameters section.
type CfnParameter struct {
	node      *Node
	stack     *Stack
	logicalID string
	props     CfnParameterProps
	ref       Token
}

func NewCfnParameter(scope Construct, id string, props *CfnParameterProps) (*CfnParameter, error) {
	n, err := newNode(scope, id)
	if err != nil {
		return nil, err
	}
	stack, err := stackOf(scope)
	if err != nil {
		return nil, err
	}
	logicalID, err := logicalIDFor(n, stack)
	if err != nil {
		return nil, err
	}
	if props == nil {
		props = &CfnParameterProps{}
	}

	p := &CfnParameter{node: n, stack: stack, logicalID: logicalID, props: *props}
	if p.props.Type == "" {
		p.props.Type = "String"
	}
	if err := n.attach(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *CfnParameter) Node() *Node { return p.node }

func (p *CfnParameter) Stack() *Stack { return p.stack }

func (p *CfnParameter) LogicalID() string { return p.logicalID }

func (p *CfnParameter) Type() string { return p.props.Type }

// Ref returns a token for the parameter's value.
func (p *CfnParameter) Ref() Token {
	if p.ref.IsZero() {
		p.ref = newToken(p.logicalID+".Ref", &tokenRef{target: p.node})
	}
	return p.ref
}

// ValueAsString is Ref().String(), for string-typed props fields.
func (p *CfnParameter) ValueAsString() string {
	return p.Ref().String()
}

func (p *CfnParameter) template() *template.Parameter {
	return &template.Parameter{
		Type:                  p.props.Type,
		Description:           p.props.Description,
		Default:               p.props.Default,
		AllowedValues:         p.props.AllowedValues,
		AllowedPattern:        p.props.AllowedPattern,
		ConstraintDescription: p.props.ConstraintDescription,
		MinLength:             p.props.MinLength,
		MaxLength:             p.props.MaxLength,
		NoEcho:                p.props.NoEcho,
	}
}
