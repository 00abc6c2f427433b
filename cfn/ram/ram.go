// Package ram holds typed bindings for AWS Resource Access Manager resources.
package ram

import (
	"github.com/theory-cloud/cfntheory"
	"github.com/theory-cloud/cfntheory/pkg/schema"
	"github.com/theory-cloud/cfntheory/pkg/tags"
)

const (
	ResourceShareType = "AWS::RAM::ResourceShare"
	PermissionType    = "AWS::RAM::Permission"
)

// ResourceShareProps configures an AWS::RAM::ResourceShare. Principals may be
// account ids, organization or OU ARNs, or IAM role and user ARNs.
type ResourceShareProps struct {
	Name                    *string   `cfn:"Name,required"`
	AllowExternalPrincipals *bool     `cfn:"AllowExternalPrincipals"`
	PermissionArns          []string  `cfn:"PermissionArns"`
	Principals              []string  `cfn:"Principals"`
	ResourceArns            []string  `cfn:"ResourceArns"`
	Sources                 []string  `cfn:"Sources"`
	Tags                    tags.List `cfn:"Tags"`
}

// PermissionProps configures a customer managed AWS::RAM::Permission.
// PolicyTemplate holds the permission's policy document.
type PermissionProps struct {
	Name           *string   `cfn:"Name,required"`
	ResourceType   *string   `cfn:"ResourceType,required"`
	PolicyTemplate any       `cfn:"PolicyTemplate,required,json"`
	Tags           tags.List `cfn:"Tags"`
}

var (
	resourceShareSchema = schema.FromStruct(ResourceShareType, ResourceShareProps{}, "Arn")
	permissionSchema    = schema.FromStruct(PermissionType, PermissionProps{},
		"Arn", "IsResourceTypeDefault", "PermissionType", "Version")
)

func init() {
	schema.Default.MustRegister(resourceShareSchema)
	schema.Default.MustRegister(permissionSchema)
}

type ResourceShare struct {
	*cfntheory.CfnResource
}

func NewResourceShare(scope cfntheory.Construct, id string, props *ResourceShareProps) (*ResourceShare, error) {
	r, err := cfntheory.NewCfnResourceFromStruct(scope, id, resourceShareSchema, props)
	if err != nil {
		return nil, err
	}
	return &ResourceShare{CfnResource: r}, nil
}

func (s *ResourceShare) Props() (*ResourceShareProps, error) {
	out := &ResourceShareProps{}
	if err := s.DecodeProperties(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ResourceShare) SetProps(props *ResourceShareProps) error {
	return s.ReplacePropertiesFromStruct(props)
}

func (s *ResourceShare) AttrArn() cfntheory.Token { return s.MustGetAtt("Arn") }

type Permission struct {
	*cfntheory.CfnResource
}

func NewPermission(scope cfntheory.Construct, id string, props *PermissionProps) (*Permission, error) {
	r, err := cfntheory.NewCfnResourceFromStruct(scope, id, permissionSchema, props)
	if err != nil {
		return nil, err
	}
	return &Permission{CfnResource: r}, nil
}

func (p *Permission) Props() (*PermissionProps, error) {
	out := &PermissionProps{}
	if err := p.DecodeProperties(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Permission) SetProps(props *PermissionProps) error {
	return p.ReplacePropertiesFromStruct(props)
}

func (p *Permission) AttrArn() cfntheory.Token { return p.MustGetAtt("Arn") }

// AttrIsResourceTypeDefault reports whether this is the default permission
// for its resource type.
func (p *Permission) AttrIsResourceTypeDefault() cfntheory.Token {
	return p.MustGetAtt("IsResourceTypeDefault")
}

func (p *Permission) AttrPermissionType() cfntheory.Token { return p.MustGetAtt("PermissionType") }

func (p *Permission) AttrVersion() cfntheory.Token { return p.MustGetAtt("Version") }
