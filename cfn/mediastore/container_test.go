package mediastore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/cfntheory"
	"github.com/theory-cloud/cfntheory/cfn/mediastore"
	"github.com/theory-cloud/cfntheory/pkg/schema"
	"github.com/theory-cloud/cfntheory/pkg/tags"
	"github.com/theory-cloud/cfntheory/testkit"
)

func TestContainer_OnlySetFieldsAreEmitted(t *testing.T) {
	t.Parallel()

	stack := testkit.New().Stack(t, "Media")
	c, err := mediastore.NewContainer(stack, "Logs", &mediastore.ContainerProps{ContainerName: cfntheory.String("logs")})
	require.NoError(t, err)
	require.Equal(t, []string{"ContainerName"}, c.Properties().Keys())

	require.NoError(t, c.SetProperty("access_logging_enabled", true))
	props := c.Properties()
	require.Equal(t, []string{"ContainerName", "AccessLoggingEnabled"}, props.Keys())
	v, _ := props.Get("AccessLoggingEnabled")
	require.Equal(t, true, v)

	tmpl := testkit.FromStack(t, stack)
	require.JSONEq(t, `{"ContainerName":"logs","AccessLoggingEnabled":true}`, tmpl.Resource("Logs").Get("Properties").Raw)
	require.Equal(t, mediastore.ContainerType, tmpl.Resource("Logs").Get("Type").String())
}

func TestContainer_GenericConstructorUsesRegisteredSchema(t *testing.T) {
	t.Parallel()

	stack := testkit.New().Stack(t, "Media")
	r, err := cfntheory.NewCfnResource(stack, "Logs", &cfntheory.CfnResourceProps{
		Type:       mediastore.ContainerType,
		Properties: map[string]any{"container_name": "logs"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ContainerName"}, r.Properties().Keys())

	rt, ok := schema.Default.Lookup(mediastore.ContainerType)
	require.True(t, ok)
	require.Equal(t, tags.StyleList, rt.TagStyle)
	require.Equal(t, []string{"ContainerName"}, rt.Required())
}

func TestContainer_RequiredFields(t *testing.T) {
	t.Parallel()

	stack := testkit.New().Stack(t, "Media")
	_, err := mediastore.NewContainer(stack, "Logs", &mediastore.ContainerProps{AccessLoggingEnabled: cfntheory.Bool(true)})
	var missing *cfntheory.MissingRequiredFieldError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "ContainerName", missing.Path)
	require.Empty(t, stack.Node().Children())

	_, err = mediastore.NewContainer(stack, "Metrics", &mediastore.ContainerProps{
		ContainerName: cfntheory.String("metrics"),
		MetricPolicy:  &mediastore.MetricPolicy{MetricPolicyRules: []mediastore.MetricPolicyRule{{ObjectGroup: cfntheory.String("/")}}},
	})
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "MetricPolicy.ContainerLevelMetrics", missing.Path)
}

func TestContainer_NestedPropsRoundTrip(t *testing.T) {
	t.Parallel()

	stack := testkit.New().Stack(t, "Media")
	in := &mediastore.ContainerProps{
		ContainerName: cfntheory.String("media"),
		CorsPolicy: []mediastore.CorsRule{{
			AllowedOrigins: []string{"https://example.com"},
			AllowedMethods: []string{"GET", "HEAD"},
			MaxAgeSeconds:  cfntheory.Int(3000),
		}},
		MetricPolicy: &mediastore.MetricPolicy{
			ContainerLevelMetrics: cfntheory.String("ENABLED"),
			MetricPolicyRules: []mediastore.MetricPolicyRule{
				{ObjectGroup: cfntheory.String("videos/"), ObjectGroupName: cfntheory.String("videos")},
			},
		},
		Tags: tags.List{{Key: "team", Value: "video"}, {Key: "team", Value: "audio"}},
	}
	c, err := mediastore.NewContainer(stack, "Media", in)
	require.NoError(t, err)

	out, err := c.Props()
	require.NoError(t, err)
	require.Equal(t, in, out)

	tmpl := testkit.FromStack(t, stack)
	require.JSONEq(t, `[{"AllowedMethods":["GET","HEAD"],"AllowedOrigins":["https://example.com"],"MaxAgeSeconds":3000}]`,
		tmpl.Resource("Media").Get("Properties.CorsPolicy").Raw)
	require.JSONEq(t, `[{"Key":"team","Value":"video"},{"Key":"team","Value":"audio"}]`,
		tmpl.Resource("Media").Get("Properties.Tags").Raw)

	require.NoError(t, c.SetProps(&mediastore.ContainerProps{ContainerName: cfntheory.String("renamed")}))
	out, err = c.Props()
	require.NoError(t, err)
	require.Equal(t, &mediastore.ContainerProps{ContainerName: cfntheory.String("renamed")}, out)
}

func TestContainer_Endpoint(t *testing.T) {
	t.Parallel()

	stack := testkit.New().Stack(t, "Media")
	c, err := mediastore.NewContainer(stack, "Logs", &mediastore.ContainerProps{ContainerName: cfntheory.String("logs")})
	require.NoError(t, err)
	_, err = cfntheory.NewCfnOutput(stack, "Endpoint", &cfntheory.CfnOutputProps{Value: c.AttrEndpoint()})
	require.NoError(t, err)

	testkit.FromStack(t, stack).HasOutput("Endpoint", map[string]any{"Fn::GetAtt": []any{"Logs", "Endpoint"}})
}
