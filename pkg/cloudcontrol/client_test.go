package cloudcontrol

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudcontrol"
	"github.com/aws/aws-sdk-go-v2/service/cloudcontrol/types"
	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/cfntheory/pkg/schema"
)

type fakeAPI struct {
	get   []*cloudcontrol.GetResourceInput
	model string
	err   error
}

func (f *fakeAPI) GetResource(
	_ context.Context,
	params *cloudcontrol.GetResourceInput,
	_ ...func(*cloudcontrol.Options),
) (*cloudcontrol.GetResourceOutput, error) {
	f.get = append(f.get, params)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudcontrol.GetResourceOutput{
		TypeName: params.TypeName,
		ResourceDescription: &types.ResourceDescription{
			Identifier: params.Identifier,
			Properties: aws.String(f.model),
		},
	}, nil
}

const containerModel = `{"ContainerName":"logs","Endpoint":"https://abc.data.mediastore.us-east-1.amazonaws.com","AccessLoggingEnabled":true,"MetricPolicy":{"ContainerLevelMetrics":"ENABLED"}}`

func containerSchema() *schema.ResourceType {
	return &schema.ResourceType{
		Name:       "AWS::MediaStore::Container",
		Properties: []*schema.Property{schema.Required("ContainerName", schema.String())},
		Attributes: []string{"Endpoint", "MetricPolicy.ContainerLevelMetrics", "Arn"},
	}
}

func TestClient_ValidatesInput(t *testing.T) {
	fake := &fakeAPI{model: containerModel}
	c, err := NewClient(context.Background(), WithAPI(fake))
	require.NoError(t, err)

	_, err = c.GetResource(context.Background(), "", "logs")
	require.Error(t, err)
	_, err = c.GetResource(context.Background(), "AWS::MediaStore::Container", "  ")
	require.Error(t, err)
	_, err = c.GetAttribute(context.Background(), nil, "logs", "Endpoint")
	require.Error(t, err)
	require.Empty(t, fake.get)
}

func TestClient_GetResource(t *testing.T) {
	fake := &fakeAPI{model: containerModel}
	c, err := NewClient(context.Background(), WithAPI(fake))
	require.NoError(t, err)

	res, err := c.GetResource(context.Background(), " AWS::MediaStore::Container ", "logs")
	require.NoError(t, err)
	require.Len(t, fake.get, 1)
	require.Equal(t, "AWS::MediaStore::Container", *fake.get[0].TypeName)
	require.Equal(t, "logs", *fake.get[0].Identifier)

	require.Equal(t, "logs", res.Identifier)
	require.True(t, res.Get("AccessLoggingEnabled").Bool())

	model, err := res.Model()
	require.NoError(t, err)
	require.Equal(t, []string{"ContainerName", "Endpoint", "AccessLoggingEnabled", "MetricPolicy"}, model.Keys())
}

func TestClient_GetAttribute(t *testing.T) {
	fake := &fakeAPI{model: containerModel}
	c, err := NewClient(context.Background(), WithAPI(fake))
	require.NoError(t, err)
	rt := containerSchema()

	v, err := c.GetAttribute(context.Background(), rt, "logs", "Endpoint")
	require.NoError(t, err)
	require.Equal(t, "https://abc.data.mediastore.us-east-1.amazonaws.com", v.String())

	v, err = c.GetAttribute(context.Background(), rt, "logs", "MetricPolicy.ContainerLevelMetrics")
	require.NoError(t, err)
	require.Equal(t, "ENABLED", v.String())

	_, err = c.GetAttribute(context.Background(), rt, "logs", "Arn")
	require.ErrorIs(t, err, ErrAttributeNotFound)

	calls := len(fake.get)
	_, err = c.GetAttribute(context.Background(), rt, "logs", "Bogus")
	require.ErrorIs(t, err, ErrUnknownAttribute)
	require.Len(t, fake.get, calls)
}

func TestClient_WrapsAPIErrors(t *testing.T) {
	boom := errors.New("ResourceNotFoundException")
	c, err := NewClient(context.Background(), WithAPI(&fakeAPI{err: boom}))
	require.NoError(t, err)

	_, err = c.GetResource(context.Background(), "AWS::MediaStore::Container", "missing")
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "AWS::MediaStore::Container missing")
}

func TestClient_RejectsInvalidModel(t *testing.T) {
	c, err := NewClient(context.Background(), WithAPI(&fakeAPI{model: "{not json"}))
	require.NoError(t, err)

	_, err = c.GetResource(context.Background(), "AWS::MediaStore::Container", "logs")
	require.Error(t, err)
}

func TestNewClient_BuildsSDKClientFromOptions(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "credentials"))

	c, err := NewClient(context.Background(),
		WithRegion("us-west-2"),
		WithStaticCredentials("AKIDEXAMPLE", "secret", ""),
		WithEndpoint("http://localhost:4566"),
		nil,
	)
	require.NoError(t, err)
	require.NotNil(t, c.(*client).api)

	c, err = NewClient(context.Background(), WithAWSConfig(aws.Config{Region: "eu-west-1"}))
	require.NoError(t, err)
	_, ok := c.(*client).api.(*cloudcontrol.Client)
	require.True(t, ok)
}

func TestAttributePath(t *testing.T) {
	require.Equal(t, "Endpoint", attributePath("Endpoint"))
	require.Equal(t, "Tags.Key", attributePath("Tags.Key"))
	require.Equal(t, `a\*b`, attributePath("a*b"))
}

func TestClient_NilClient(t *testing.T) {
	var nilClient *client
	_, err := nilClient.GetResource(context.Background(), "AWS::MediaStore::Container", "logs")
	require.EqualError(t, err, "cloudcontrol: client is nil")
}
