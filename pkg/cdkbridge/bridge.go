// Package cdkbridge re-hosts a synthesized stack inside an AWS CDK construct
// tree, so cfntheory resources can ship alongside CDK-managed ones.
package cdkbridge

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/cfntheory"
	"github.com/theory-cloud/cfntheory/pkg/propbag"
	"github.com/theory-cloud/cfntheory/pkg/template"
)

// Imported holds the CDK constructs created for one stack, keyed by logical id.
type Imported struct {
	Resources  map[string]awscdk.CfnResource
	Parameters map[string]awscdk.CfnParameter
	Outputs    map[string]awscdk.CfnOutput
}

// Import synthesizes stack and recreates every parameter, resource and output
// under scope with the same logical ids.
func Import(scope constructs.Construct, stack *cfntheory.Stack) (*Imported, error) {
	t, err := stack.Template()
	if err != nil {
		return nil, err
	}
	return ImportTemplate(scope, t)
}

// ImportTemplate is Import for an already rendered template.
func ImportTemplate(scope constructs.Construct, t *template.Template) (*Imported, error) {
	out := &Imported{
		Resources:  make(map[string]awscdk.CfnResource, t.Resources.Len()),
		Parameters: make(map[string]awscdk.CfnParameter, t.Parameters.Len()),
		Outputs:    make(map[string]awscdk.CfnOutput, t.Outputs.Len()),
	}

	for id, p := range t.Parameters.All() {
		cp := awscdk.NewCfnParameter(scope, jsii.String(id), parameterProps(p))
		cp.OverrideLogicalId(jsii.String(id))
		out.Parameters[id] = cp
	}

	for id, r := range t.Resources.All() {
		cr := awscdk.NewCfnResource(scope, jsii.String(id), &awscdk.CfnResourceProps{
			Type:       jsii.String(r.Type),
			Properties: propertiesOf(r),
		})
		cr.OverrideLogicalId(jsii.String(id))
		for _, o := range overrides(r) {
			cr.AddOverride(jsii.String(o.path), o.value)
		}
		if r.Metadata != nil {
			for k, v := range r.Metadata.All() {
				cr.AddMetadata(jsii.String(k), plain(v))
			}
		}
		out.Resources[id] = cr
	}

	for id, o := range t.Outputs.All() {
		if o.Condition != "" {
			return nil, fmt.Errorf("cdkbridge: output %s: conditional outputs cannot be imported", id)
		}
		co := awscdk.NewCfnOutput(scope, jsii.String(id), outputProps(o))
		co.OverrideLogicalId(jsii.String(id))
		out.Outputs[id] = co
	}
	return out, nil
}

type override struct {
	path  string
	value any
}

// overrides lists the resource attributes CfnResourceProps has no field for.
func overrides(r *template.Resource) []override {
	var out []override
	if r.Condition != "" {
		out = append(out, override{"Condition", r.Condition})
	}
	if len(r.DependsOn) > 0 {
		deps := make([]any, len(r.DependsOn))
		for i, d := range r.DependsOn {
			deps[i] = d
		}
		out = append(out, override{"DependsOn", deps})
	}
	if r.DeletionPolicy != "" {
		out = append(out, override{"DeletionPolicy", r.DeletionPolicy})
	}
	if r.UpdateReplacePolicy != "" {
		out = append(out, override{"UpdateReplacePolicy", r.UpdateReplacePolicy})
	}
	if r.Extra != nil {
		for k, v := range r.Extra.All() {
			out = append(out, override{k, plain(v)})
		}
	}
	return out
}

func propertiesOf(r *template.Resource) *map[string]any {
	if r.Properties.Len() == 0 {
		return nil
	}
	props := r.Properties.Plain()
	return &props
}

func parameterProps(p *template.Parameter) *awscdk.CfnParameterProps {
	props := &awscdk.CfnParameterProps{
		Type:    jsii.String(p.Type),
		Default: plain(p.Default),
		NoEcho:  jsii.Bool(p.NoEcho),
	}
	if p.Description != "" {
		props.Description = jsii.String(p.Description)
	}
	if p.AllowedPattern != "" {
		props.AllowedPattern = jsii.String(p.AllowedPattern)
	}
	if p.ConstraintDescription != "" {
		props.ConstraintDescription = jsii.String(p.ConstraintDescription)
	}
	if len(p.AllowedValues) > 0 {
		props.AllowedValues = jsii.Strings(allowedValues(p.AllowedValues)...)
	}
	if p.MinLength != nil {
		props.MinLength = jsii.Number(float64(*p.MinLength))
	}
	if p.MaxLength != nil {
		props.MaxLength = jsii.Number(float64(*p.MaxLength))
	}
	return props
}

func outputProps(o *template.Output) *awscdk.CfnOutputProps {
	props := &awscdk.CfnOutputProps{Value: stringOrToken(o.Value)}
	if o.Description != "" {
		props.Description = jsii.String(o.Description)
	}
	if o.ExportName != nil {
		props.ExportName = stringOrToken(o.ExportName)
	}
	return props
}

// stringOrToken passes strings through and encodes intrinsic functions as CDK
// string tokens.
func stringOrToken(v any) *string {
	if s, ok := v.(string); ok {
		return jsii.String(s)
	}
	return awscdk.Token_AsString(plain(v), nil)
}

func allowedValues(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if s, ok := v.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

// plain converts bags nested anywhere in v into maps.
func plain(v any) any {
	if v == nil {
		return nil
	}
	b := propbag.New()
	b.Set("v", v)
	return b.Plain()["v"]
}
