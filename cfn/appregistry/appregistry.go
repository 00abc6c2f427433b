// Package appregistry holds typed bindings for AWS Service Catalog
// AppRegistry resources. AppRegistry resources use map-style tags.
package appregistry

import (
	"github.com/theory-cloud/cfntheory"
	"github.com/theory-cloud/cfntheory/pkg/schema"
	"github.com/theory-cloud/cfntheory/pkg/tags"
)

const (
	ApplicationType               = "AWS::ServiceCatalogAppRegistry::Application"
	AttributeGroupType            = "AWS::ServiceCatalogAppRegistry::AttributeGroup"
	AttributeGroupAssociationType = "AWS::ServiceCatalogAppRegistry::AttributeGroupAssociation"
	ResourceAssociationType       = "AWS::ServiceCatalogAppRegistry::ResourceAssociation"
)

// ResourceTypeCfnStack is the only ResourceAssociation resource type.
const ResourceTypeCfnStack = "CFN_STACK"

type ApplicationProps struct {
	Name        *string  `cfn:"Name,required"`
	Description *string  `cfn:"Description"`
	Tags        tags.Map `cfn:"Tags"`
}

// AttributeGroupProps configures an attribute group. Attributes is an
// arbitrary JSON document.
type AttributeGroupProps struct {
	Name        *string  `cfn:"Name,required"`
	Attributes  any      `cfn:"Attributes,required,json"`
	Description *string  `cfn:"Description"`
	Tags        tags.Map `cfn:"Tags"`
}

// AttributeGroupAssociationProps links an attribute group to an application.
// Both fields accept a name or an id.
type AttributeGroupAssociationProps struct {
	Application    *string `cfn:"Application,required"`
	AttributeGroup *string `cfn:"AttributeGroup,required"`
}

// ResourceAssociationProps links a stack to an application. Application
// accepts a name or an id, Resource a stack name or ARN.
type ResourceAssociationProps struct {
	Application  *string `cfn:"Application,required"`
	Resource     *string `cfn:"Resource,required"`
	ResourceType *string `cfn:"ResourceType,required"`
}

var (
	applicationSchema = schema.FromStruct(ApplicationType, ApplicationProps{},
		"ApplicationName", "ApplicationTagKey", "ApplicationTagValue", "Arn", "Id")
	attributeGroupSchema            = schema.FromStruct(AttributeGroupType, AttributeGroupProps{}, "Arn", "Id")
	attributeGroupAssociationSchema = schema.FromStruct(AttributeGroupAssociationType, AttributeGroupAssociationProps{},
		"ApplicationArn", "AttributeGroupArn", "Id")
	resourceAssociationSchema = schema.FromStruct(ResourceAssociationType, ResourceAssociationProps{},
		"ApplicationArn", "ResourceArn", "Id")
)

func init() {
	for _, rt := range []*schema.ResourceType{
		applicationSchema,
		attributeGroupSchema,
		attributeGroupAssociationSchema,
		resourceAssociationSchema,
	} {
		schema.Default.MustRegister(rt)
	}
}

type Application struct {
	*cfntheory.CfnResource
}

func NewApplication(scope cfntheory.Construct, id string, props *ApplicationProps) (*Application, error) {
	r, err := cfntheory.NewCfnResourceFromStruct(scope, id, applicationSchema, props)
	if err != nil {
		return nil, err
	}
	return &Application{CfnResource: r}, nil
}

func (a *Application) Props() (*ApplicationProps, error) {
	out := &ApplicationProps{}
	if err := a.DecodeProperties(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Application) SetProps(props *ApplicationProps) error {
	return a.ReplacePropertiesFromStruct(props)
}

func (a *Application) AttrApplicationName() cfntheory.Token { return a.MustGetAtt("ApplicationName") }

// AttrApplicationTagKey and AttrApplicationTagValue form the awsApplication
// tag that associates resources with the application.
func (a *Application) AttrApplicationTagKey() cfntheory.Token {
	return a.MustGetAtt("ApplicationTagKey")
}

func (a *Application) AttrApplicationTagValue() cfntheory.Token {
	return a.MustGetAtt("ApplicationTagValue")
}

func (a *Application) AttrArn() cfntheory.Token { return a.MustGetAtt("Arn") }

func (a *Application) AttrID() cfntheory.Token { return a.MustGetAtt("Id") }

type AttributeGroup struct {
	*cfntheory.CfnResource
}

func NewAttributeGroup(scope cfntheory.Construct, id string, props *AttributeGroupProps) (*AttributeGroup, error) {
	r, err := cfntheory.NewCfnResourceFromStruct(scope, id, attributeGroupSchema, props)
	if err != nil {
		return nil, err
	}
	return &AttributeGroup{CfnResource: r}, nil
}

func (g *AttributeGroup) Props() (*AttributeGroupProps, error) {
	out := &AttributeGroupProps{}
	if err := g.DecodeProperties(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *AttributeGroup) SetProps(props *AttributeGroupProps) error {
	return g.ReplacePropertiesFromStruct(props)
}

func (g *AttributeGroup) AttrArn() cfntheory.Token { return g.MustGetAtt("Arn") }

func (g *AttributeGroup) AttrID() cfntheory.Token { return g.MustGetAtt("Id") }

type AttributeGroupAssociation struct {
	*cfntheory.CfnResource
}

func NewAttributeGroupAssociation(scope cfntheory.Construct, id string, props *AttributeGroupAssociationProps) (*AttributeGroupAssociation, error) {
	r, err := cfntheory.NewCfnResourceFromStruct(scope, id, attributeGroupAssociationSchema, props)
	if err != nil {
		return nil, err
	}
	return &AttributeGroupAssociation{CfnResource: r}, nil
}

func (a *AttributeGroupAssociation) Props() (*AttributeGroupAssociationProps, error) {
	out := &AttributeGroupAssociationProps{}
	if err := a.DecodeProperties(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *AttributeGroupAssociation) SetProps(props *AttributeGroupAssociationProps) error {
	return a.ReplacePropertiesFromStruct(props)
}

func (a *AttributeGroupAssociation) AttrApplicationArn() cfntheory.Token {
	return a.MustGetAtt("ApplicationArn")
}

func (a *AttributeGroupAssociation) AttrAttributeGroupArn() cfntheory.Token {
	return a.MustGetAtt("AttributeGroupArn")
}

func (a *AttributeGroupAssociation) AttrID() cfntheory.Token { return a.MustGetAtt("Id") }

type ResourceAssociation struct {
	*cfntheory.CfnResource
}

func NewResourceAssociation(scope cfntheory.Construct, id string, props *ResourceAssociationProps) (*ResourceAssociation, error) {
	r, err := cfntheory.NewCfnResourceFromStruct(scope, id, resourceAssociationSchema, props)
	if err != nil {
		return nil, err
	}
	return &ResourceAssociation{CfnResource: r}, nil
}

func (a *ResourceAssociation) Props() (*ResourceAssociationProps, error) {
	out := &ResourceAssociationProps{}
	if err := a.DecodeProperties(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *ResourceAssociation) SetProps(props *ResourceAssociationProps) error {
	return a.ReplacePropertiesFromStruct(props)
}

func (a *ResourceAssociation) AttrApplicationArn() cfntheory.Token {
	return a.MustGetAtt("ApplicationArn")
}

func (a *ResourceAssociation) AttrResourceArn() cfntheory.Token { return a.MustGetAtt("ResourceArn") }

func (a *ResourceAssociation) AttrID() cfntheory.Token { return a.MustGetAtt("Id") }
