package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/theory-cloud/cfntheory"
	"github.com/theory-cloud/cfntheory/pkg/naming"
)

// appFile is the declarative input of the synth command:
//
//	app: media
//	stage: prod
//	stacks:
//	  - name: logs
//	    tags: {Env: prod}
//	    resources:
//	      - id: Logs
//	        type: AWS::MediaStore::Container
//	        properties: {ContainerName: logs}
//	    outputs:
//	      - id: Endpoint
//	        value: {"Fn::GetAtt": [Logs, Endpoint]}
//
// With app or stage set, stacks deploy as <app>-<name>-<stage>.
type appFile struct {
	App    string      `yaml:"app"`
	Stage  string      `yaml:"stage"`
	Stacks []stackSpec `yaml:"stacks"`
}

type stackSpec struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Tags        map[string]string `yaml:"tags"`
	Resources   []resourceSpec    `yaml:"resources"`
	Outputs     []outputSpec      `yaml:"outputs"`
}

type resourceSpec struct {
	ID            string         `yaml:"id"`
	Type          string         `yaml:"type"`
	Properties    map[string]any `yaml:"properties"`
	DependsOn     []string       `yaml:"dependsOn"`
	RemovalPolicy string         `yaml:"removalPolicy"`
	Condition     string         `yaml:"condition"`
}

type outputSpec struct {
	ID          string `yaml:"id"`
	Value       any    `yaml:"value"`
	Description string `yaml:"description"`
	ExportName  any    `yaml:"exportName"`
}

func readAppFile(path string) (*appFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, err
	}
	var f appFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Stacks) == 0 {
		return nil, fmt.Errorf("%s declares no stacks", path)
	}
	return &f, nil
}

// build declares every stack of f under app.
func (f *appFile) build(app *cfntheory.App) error {
	for _, spec := range f.Stacks {
		if strings.TrimSpace(spec.Name) == "" {
			return fmt.Errorf("stack without a name")
		}
		props := &cfntheory.StackProps{
			Description: spec.Description,
			Tags:        spec.Tags,
		}
		if f.App != "" || f.Stage != "" {
			props.StackName = naming.StackName(f.App, spec.Name, f.Stage)
		}
		stack, err := cfntheory.NewStack(app, spec.Name, props)
		if err != nil {
			return err
		}
		if err := spec.build(stack); err != nil {
			return err
		}
	}
	return nil
}

func (spec stackSpec) build(stack *cfntheory.Stack) error {
	byID := make(map[string]*cfntheory.CfnResource, len(spec.Resources))
	for _, rs := range spec.Resources {
		r, err := cfntheory.NewCfnResource(stack, rs.ID, &cfntheory.CfnResourceProps{
			Type:       rs.Type,
			Properties: rs.Properties,
		})
		if err != nil {
			return err
		}
		if rs.RemovalPolicy != "" {
			policy, err := parseRemovalPolicy(rs.RemovalPolicy)
			if err != nil {
				return fmt.Errorf("%s: %w", r.Node().Path(), err)
			}
			r.ApplyRemovalPolicy(policy)
		}
		if rs.Condition != "" {
			r.SetCondition(rs.Condition)
		}
		byID[rs.ID] = r
	}

	for _, rs := range spec.Resources {
		for _, dep := range rs.DependsOn {
			target, ok := byID[dep]
			if !ok {
				return fmt.Errorf("%s/%s: depends on unknown resource %q", spec.Name, rs.ID, dep)
			}
			if err := byID[rs.ID].AddDependency(target); err != nil {
				return err
			}
		}
	}

	for _, out := range spec.Outputs {
		_, err := cfntheory.NewCfnOutput(stack, out.ID, &cfntheory.CfnOutputProps{
			Value:       out.Value,
			Description: out.Description,
			ExportName:  out.ExportName,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func parseRemovalPolicy(s string) (cfntheory.RemovalPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "destroy", "delete":
		return cfntheory.RemovalPolicyDestroy, nil
	case "retain":
		return cfntheory.RemovalPolicyRetain, nil
	case "snapshot":
		return cfntheory.RemovalPolicySnapshot, nil
	case "retain-on-update-or-delete", "retainexceptoncreate":
		return cfntheory.RemovalPolicyRetainOnUpdateOrDelete, nil
	default:
		return "", fmt.Errorf("unknown removal policy %q", s)
	}
}
