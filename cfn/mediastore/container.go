// Package mediastore holds typed bindings for AWS Elemental MediaStore
// resources.
package mediastore

import (
	"github.com/theory-cloud/cfntheory"
	"github.com/theory-cloud/cfntheory/pkg/schema"
	"github.com/theory-cloud/cfntheory/pkg/tags"
)

const ContainerType = "AWS::MediaStore::Container"

// ContainerProps configures an AWS::MediaStore::Container.
//
// Policy and LifecyclePolicy are JSON documents passed as strings.
type ContainerProps struct {
	ContainerName        *string       `cfn:"ContainerName,required"`
	AccessLoggingEnabled *bool         `cfn:"AccessLoggingEnabled"`
	CorsPolicy           []CorsRule    `cfn:"CorsPolicy"`
	LifecyclePolicy      *string       `cfn:"LifecyclePolicy"`
	MetricPolicy         *MetricPolicy `cfn:"MetricPolicy"`
	Policy               *string       `cfn:"Policy"`
	Tags                 tags.List     `cfn:"Tags"`
}

// CorsRule is one entry of a container's CORS policy.
type CorsRule struct {
	AllowedHeaders []string `cfn:"AllowedHeaders"`
	AllowedMethods []string `cfn:"AllowedMethods"`
	AllowedOrigins []string `cfn:"AllowedOrigins"`
	ExposeHeaders  []string `cfn:"ExposeHeaders"`
	MaxAgeSeconds  *int     `cfn:"MaxAgeSeconds"`
}

// MetricPolicy controls which CloudWatch metrics the container publishes.
// ContainerLevelMetrics is ENABLED or DISABLED.
type MetricPolicy struct {
	ContainerLevelMetrics *string            `cfn:"ContainerLevelMetrics,required"`
	MetricPolicyRules     []MetricPolicyRule `cfn:"MetricPolicyRules"`
}

type MetricPolicyRule struct {
	ObjectGroup     *string `cfn:"ObjectGroup,required"`
	ObjectGroupName *string `cfn:"ObjectGroupName,required"`
}

var containerSchema = schema.FromStruct(ContainerType, ContainerProps{}, "Endpoint")

func init() {
	containerSchema.Documentation = "A storage container for media objects."
	schema.Default.MustRegister(containerSchema)
}

// Container is an AWS::MediaStore::Container.
type Container struct {
	*cfntheory.CfnResource
}

func NewContainer(scope cfntheory.Construct, id string, props *ContainerProps) (*Container, error) {
	r, err := cfntheory.NewCfnResourceFromStruct(scope, id, containerSchema, props)
	if err != nil {
		return nil, err
	}
	return &Container{CfnResource: r}, nil
}

// Props returns the container's current properties.
func (c *Container) Props() (*ContainerProps, error) {
	out := &ContainerProps{}
	if err := c.DecodeProperties(out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetProps validates props and replaces every property.
func (c *Container) SetProps(props *ContainerProps) error {
	return c.ReplacePropertiesFromStruct(props)
}

// AttrEndpoint is the DNS endpoint of the container.
func (c *Container) AttrEndpoint() cfntheory.Token { return c.MustGetAtt("Endpoint") }
