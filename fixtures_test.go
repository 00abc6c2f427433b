package cfntheory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/cfntheory"
	"github.com/theory-cloud/cfntheory/pkg/schema"
	"github.com/theory-cloud/cfntheory/pkg/tags"
	"github.com/theory-cloud/cfntheory/testkit"
)

const (
	containerType = "Test::Media::Container"
	groupType     = "Test::Catalog::Group"
	linkType      = "Test::Plain::Link"
)

func testRegistry() *schema.Registry {
	corsRule := &schema.PropertyType{Name: "CorsRule", Properties: []*schema.Property{
		schema.Optional("AllowedOrigins", schema.ListOf(schema.String())),
		schema.Optional("MaxAgeSeconds", schema.Integer()),
	}}

	reg := schema.NewRegistry()
	reg.MustRegister(&schema.ResourceType{
		Name: containerType,
		Properties: []*schema.Property{
			schema.Required("ContainerName", schema.String()),
			schema.Optional("AccessLoggingEnabled", schema.Boolean()),
			schema.Optional("CorsPolicy", schema.ListOf(schema.ObjectOf(corsRule))),
			schema.Optional("Tags", schema.TagsOf(tags.StyleList)),
		},
		Attributes: []string{"Endpoint"},
		TagStyle:   tags.StyleList,
	})
	reg.MustRegister(&schema.ResourceType{
		Name: groupType,
		Properties: []*schema.Property{
			schema.Required("Name", schema.String()),
			schema.Optional("Description", schema.String()),
			schema.Optional("Tags", schema.TagsOf(tags.StyleMap)),
		},
		Attributes: []string{"Arn", "Id"},
		TagStyle:   tags.StyleMap,
	})
	reg.MustRegister(&schema.ResourceType{
		Name: linkType,
		Properties: []*schema.Property{
			schema.Required("Source", schema.String()),
			schema.Optional("Target", schema.String()),
		},
	})
	return reg
}

func newStack(t *testing.T, id string) (*testkit.Env, *cfntheory.App, *cfntheory.Stack) {
	t.Helper()
	env := testkit.New()
	app := env.App(cfntheory.WithRegistry(testRegistry()))
	stack, err := cfntheory.NewStack(app, id, &cfntheory.StackProps{Description: "test stack"})
	require.NoError(t, err)
	return env, app, stack
}

func newContainer(t *testing.T, scope cfntheory.Construct, id string, props map[string]any) *cfntheory.CfnResource {
	t.Helper()
	r, err := cfntheory.NewCfnResource(scope, id, &cfntheory.CfnResourceProps{Type: containerType, Properties: props})
	require.NoError(t, err)
	return r
}

func newLink(t *testing.T, scope cfntheory.Construct, id string, source any) *cfntheory.CfnResource {
	t.Helper()
	r, err := cfntheory.NewCfnResource(scope, id, &cfntheory.CfnResourceProps{Type: linkType, Properties: map[string]any{"Source": source}})
	require.NoError(t, err)
	return r
}
