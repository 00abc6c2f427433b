// Package finspace holds typed bindings for Amazon FinSpace resources.
package finspace

import (
	"github.com/theory-cloud/cfntheory"
	"github.com/theory-cloud/cfntheory/pkg/schema"
	"github.com/theory-cloud/cfntheory/pkg/tags"
)

const EnvironmentType = "AWS::FinSpace::Environment"

// Federation modes.
const (
	FederationModeFederated = "FEDERATED"
	FederationModeLocal     = "LOCAL"
)

// EnvironmentProps configures an AWS::FinSpace::Environment.
//
// FederationParameters applies only when FederationMode is FEDERATED.
type EnvironmentProps struct {
	Name                 *string               `cfn:"Name,required"`
	DataBundles          []string              `cfn:"DataBundles"`
	Description          *string               `cfn:"Description"`
	FederationMode       *string               `cfn:"FederationMode"`
	FederationParameters *FederationParameters `cfn:"FederationParameters"`
	KmsKeyID             *string               `cfn:"KmsKeyId"`
	SuperuserParameters  *SuperuserParameters  `cfn:"SuperuserParameters"`
	Tags                 tags.List             `cfn:"Tags"`
}

// FederationParameters configures SAML federation for the environment.
type FederationParameters struct {
	ApplicationCallBackURL *string            `cfn:"ApplicationCallBackURL"`
	AttributeMap           []AttributeMapItem `cfn:"AttributeMap"`
	FederationProviderName *string            `cfn:"FederationProviderName"`
	FederationURN          *string            `cfn:"FederationURN"`
	SamlMetadataDocument   *string            `cfn:"SamlMetadataDocument"`
	SamlMetadataURL        *string            `cfn:"SamlMetadataURL"`
}

type AttributeMapItem struct {
	Key   *string `cfn:"Key"`
	Value *string `cfn:"Value"`
}

// SuperuserParameters describes the environment's first superuser.
type SuperuserParameters struct {
	EmailAddress *string `cfn:"EmailAddress"`
	FirstName    *string `cfn:"FirstName"`
	LastName     *string `cfn:"LastName"`
}

var environmentSchema = schema.FromStruct(EnvironmentType, EnvironmentProps{},
	"AwsAccountId",
	"DedicatedServiceAccountId",
	"EnvironmentArn",
	"EnvironmentId",
	"EnvironmentUrl",
	"SageMakerStudioDomainUrl",
	"Status",
)

func init() {
	schema.Default.MustRegister(environmentSchema)
}

// Environment is an AWS::FinSpace::Environment.
type Environment struct {
	*cfntheory.CfnResource
}

func NewEnvironment(scope cfntheory.Construct, id string, props *EnvironmentProps) (*Environment, error) {
	r, err := cfntheory.NewCfnResourceFromStruct(scope, id, environmentSchema, props)
	if err != nil {
		return nil, err
	}
	return &Environment{CfnResource: r}, nil
}

func (e *Environment) Props() (*EnvironmentProps, error) {
	out := &EnvironmentProps{}
	if err := e.DecodeProperties(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Environment) SetProps(props *EnvironmentProps) error {
	return e.ReplacePropertiesFromStruct(props)
}

// AttrAwsAccountID is the account that hosts the environment's infrastructure.
func (e *Environment) AttrAwsAccountID() cfntheory.Token { return e.MustGetAtt("AwsAccountId") }

func (e *Environment) AttrDedicatedServiceAccountID() cfntheory.Token {
	return e.MustGetAtt("DedicatedServiceAccountId")
}

func (e *Environment) AttrEnvironmentArn() cfntheory.Token { return e.MustGetAtt("EnvironmentArn") }

func (e *Environment) AttrEnvironmentID() cfntheory.Token { return e.MustGetAtt("EnvironmentId") }

func (e *Environment) AttrEnvironmentURL() cfntheory.Token { return e.MustGetAtt("EnvironmentUrl") }

func (e *Environment) AttrSageMakerStudioDomainURL() cfntheory.Token {
	return e.MustGetAtt("SageMakerStudioDomainUrl")
}

// AttrStatus is one of the CREATE_*, UPDATE_* or DELETE_* lifecycle states.
func (e *Environment) AttrStatus() cfntheory.Token { return e.MustGetAtt("Status") }
